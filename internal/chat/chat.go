// Package chat routes requests for the login form and the shared chat board.
package chat

import (
	"context"
	"errors"
	"log"

	"github.com/devwelkin/hermes-chat/internal/pages"
	"github.com/devwelkin/hermes-chat/internal/request"
	"github.com/devwelkin/hermes-chat/internal/response"
	"github.com/devwelkin/hermes-chat/internal/server"
	"github.com/devwelkin/hermes-chat/internal/session"
	"github.com/devwelkin/hermes-chat/internal/store"
)

const (
	PathLogin = "/login/"
	PathChat  = "/chat/"
)

type Handler struct {
	credentials store.Credentials
	messages    store.MessageLog
	pages       *pages.Pages
	sessions    *session.Manager
}

func NewHandler(credentials store.Credentials, messages store.MessageLog, p *pages.Pages, sessions *session.Manager) *Handler {
	return &Handler{
		credentials: credentials,
		messages:    messages,
		pages:       p,
		sessions:    sessions,
	}
}

// Serve is a server.Handler. Requests for unknown methods or paths get no
// response.
func (h *Handler) Serve(ctx context.Context, req *request.Request) (*response.Response, *server.HandlerError) {
	path := req.RequestLine.RequestTarget

	switch req.RequestLine.Method {
	case request.MethodGet:
		switch path {
		case PathLogin:
			logAccess(req, "")
			return h.loginPage(), nil
		case PathChat:
			logAccess(req, "")
			return h.chatBoard(ctx)
		}

	case request.MethodPost:
		state := h.sessions.Begin()
		switch path {
		case PathLogin:
			if err := h.login(ctx, req, state); err != nil {
				return nil, err
			}
		case PathChat:
			if err := h.post(ctx, req, state); err != nil {
				return nil, err
			}
		default:
			return nil, nil
		}
		return h.afterPost(state)
	}

	return nil, nil
}

func (h *Handler) login(ctx context.Context, req *request.Request, state *session.State) *server.HandlerError {
	logAccess(req, "")

	form := req.Form()
	username, password := form.Get("username"), form.Get("password")

	stored, err := h.credentials.Find(ctx, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		log.Printf("credential lookup for %q failed: %v", username, err)
		return &server.HandlerError{
			StatusCode: response.StatusInternalServerError,
			Message:    "Internal Server Error\n",
		}
	case username != "" && stored == password:
		h.sessions.Login(state, username)
	}

	if state.Authenticated {
		log.Printf("login ok for %q", username)
	} else {
		log.Printf("login failed for %q", username)
	}
	return nil
}

func (h *Handler) post(ctx context.Context, req *request.Request, state *session.State) *server.HandlerError {
	var user string
	if value, ok := req.Cookie(); ok {
		resolved, err := h.sessions.Resolve(value)
		if err != nil {
			log.Printf("rejecting session cookie from %s: %v", req.RemoteAddr, err)
		} else {
			user = resolved
			state.CurrentUser = user
		}
	}
	logAccess(req, user)

	if user == "" {
		return nil
	}

	if text := req.Form().Get("message"); text != "" {
		err := h.messages.Append(ctx, store.Message{Username: user, Text: text})
		if errors.Is(err, store.ErrInvalidMessage) {
			log.Printf("rejecting message from %q: %v", user, err)
			return &server.HandlerError{
				StatusCode: response.StatusBadRequest,
				Message:    "Bad Request\n",
			}
		}
		if err != nil {
			log.Printf("append message for %q failed: %v", user, err)
			return &server.HandlerError{
				StatusCode: response.StatusInternalServerError,
				Message:    "Internal Server Error\n",
			}
		}
	}
	h.sessions.Login(state, user)
	return nil
}

// afterPost picks the reply shared by both POST routes: the chat page with
// a session cookie when authenticated, otherwise the error page.
func (h *Handler) afterPost(state *session.State) (*response.Response, *server.HandlerError) {
	if !state.Authenticated {
		return h.page(pages.Error), nil
	}

	res := h.page(pages.Chat)
	if res.Status != response.StatusOK {
		return res, nil
	}

	cookie, err := h.sessions.CookieValue(state)
	if err != nil {
		log.Printf("issuing session cookie failed: %v", err)
		return nil, &server.HandlerError{
			StatusCode: response.StatusInternalServerError,
			Message:    "Internal Server Error\n",
		}
	}
	state.EmitCookie = true
	res.SetCookie = true
	res.Cookie = cookie
	return res, nil
}

func (h *Handler) loginPage() *response.Response {
	return h.page(pages.Login)
}

func (h *Handler) chatBoard(ctx context.Context) (*response.Response, *server.HandlerError) {
	msgs, err := h.messages.ListAll(ctx)
	if err != nil {
		log.Printf("reading message log failed: %v", err)
		return nil, &server.HandlerError{
			StatusCode: response.StatusInternalServerError,
			Message:    "Internal Server Error\n",
		}
	}

	res := response.New(response.StatusOK, "text/html")
	if err := pages.RenderChat(res, msgs); err != nil {
		return nil, &server.HandlerError{
			StatusCode: response.StatusInternalServerError,
			Message:    "Internal Server Error\n",
		}
	}
	return res, nil
}

// page loads a static page, falling back to a 404 with a fixed body.
func (h *Handler) page(name string) *response.Response {
	content, contentType, err := h.pages.Load(name)
	if err != nil {
		if !errors.Is(err, pages.ErrNotFound) {
			log.Printf("loading %s failed: %v", name, err)
		}
		res := response.New(response.StatusNotFound, "text/html")
		res.Write([]byte(pages.NotFoundBody))
		return res
	}

	res := response.New(response.StatusOK, contentType)
	res.Write(content)
	return res
}

func logAccess(req *request.Request, user string) {
	rl := req.RequestLine
	if rl.Method == request.MethodPost {
		log.Printf("client %s, method %s, path %s, version %s, host %s, headers %v, body %s, user %q",
			req.RemoteAddr, rl.Method, rl.RequestTarget, rl.HTTPVersion, req.Host,
			req.Headers.Lines(), req.Body, user)
		return
	}
	log.Printf("client %s, method %s, path %s, version %s, host %s, headers %v",
		req.RemoteAddr, rl.Method, rl.RequestTarget, rl.HTTPVersion, req.Host, req.Headers.Lines())
}
