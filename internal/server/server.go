package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/netutil"

	"github.com/devwelkin/hermes-chat/internal/config"
	"github.com/devwelkin/hermes-chat/internal/request"
	"github.com/devwelkin/hermes-chat/internal/response"
)

// HandlerError is a structured error for http handlers
type HandlerError struct {
	StatusCode response.StatusCode
	Message    string
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Handler answers one request. Returning a nil response and a nil error
// means the request gets no response at all; the connection is just closed.
type Handler func(ctx context.Context, req *request.Request) (*response.Response, *HandlerError)

// Server holds the state for our http server
type Server struct {
	listener    net.Listener
	handler     Handler
	framing     response.Framing
	standard    bool
	readWindow  time.Duration
	readTimeout time.Duration
	concurrent  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// Serve listens on cfg.Port and starts accepting in the background.
func Serve(cfg config.Config, handler Handler) (*Server, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return nil, err
	}
	return ServeListener(listener, cfg, handler), nil
}

// ServeListener is Serve over an existing listener.
func ServeListener(listener net.Listener, cfg config.Config, handler Handler) *Server {
	cfg = cfg.Sanitize()

	s := &Server{
		listener:    listener,
		handler:     handler,
		readWindow:  cfg.ReadWindow,
		readTimeout: cfg.ReadTimeout,
	}
	if cfg.Protocol == config.ProtocolStandard {
		s.standard = true
		s.framing = response.FramingStandard
	}
	if cfg.MaxConns > 1 {
		s.concurrent = true
		s.listener = netutil.LimitListener(listener, cfg.MaxConns)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go s.listen()

	return s
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Close stops accepting and waits for in-flight connections.
func (s *Server) Close() error {
	s.closed.Store(true)
	err := s.listener.Close()
	s.cancel()
	s.wg.Wait()
	return err
}

// listen is the main accept loop. Unless concurrency is enabled, each
// connection is fully handled before the next is accepted.
func (s *Server) listen() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				log.Println("listener closed, server shutting down.")
				return
			}
			log.Printf("error accepting connection: %v", err)
			continue
		}

		if !s.concurrent {
			s.handle(conn)
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) writeErrorResponse(conn net.Conn, handlerErr *HandlerError) {
	res := response.New(handlerErr.StatusCode, "text/plain")
	if _, err := res.Write([]byte(handlerErr.Message)); err != nil {
		log.Printf("error buffering error body: %v", err)
		return
	}
	if err := response.Write(conn, res, s.framing); err != nil {
		log.Printf("error writing error response: %v", err)
	}
}

func (s *Server) readRequest(conn net.Conn) (*request.Request, error) {
	if s.standard {
		if err := conn.SetReadDeadline(time.Now().Add(s.readTimeout)); err != nil {
			return nil, err
		}
		return request.RequestFromReader(conn)
	}

	raw, err := request.ReadAvailable(conn, s.readWindow)
	if err != nil && (len(raw) == 0 || errors.Is(err, request.ErrRequestTooLarge)) {
		return nil, err
	}
	if err != nil {
		log.Printf("read from %s ended early: %v", conn.RemoteAddr(), err)
	}
	return request.Parse(raw)
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("recovered panic serving %s: %v", conn.RemoteAddr(), r)
		}
	}()

	// 1. parse the request
	req, err := s.readRequest(conn)
	if err != nil {
		log.Printf("error parsing request from %s: %v", conn.RemoteAddr(), err)
		s.writeErrorResponse(conn, &HandlerError{
			StatusCode: response.StatusBadRequest,
			Message:    "Bad Request\n",
		})
		return
	}
	req.RemoteAddr = conn.RemoteAddr().String()

	// 2. call the handler
	res, handlerErr := s.handler(s.ctx, req)
	if handlerErr != nil {
		log.Printf("handler error for %s %s: %v", req.RequestLine.Method, req.RequestLine.RequestTarget, handlerErr)
		s.writeErrorResponse(conn, handlerErr)
		return
	}
	if res == nil {
		log.Printf("no response for %s %s", req.RequestLine.Method, req.RequestLine.RequestTarget)
		return
	}

	// 3. write the buffered response in one piece
	if err := response.Write(conn, res, s.framing); err != nil {
		log.Printf("error writing response to %s: %v", conn.RemoteAddr(), err)
	}
}
