// request.go

package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/devwelkin/hermes-chat/internal/headers"
)

// Custom errors
var (
	ErrInvalidRequestFormat = errors.New("invalid request line format")
	ErrUnsupportedHTTP      = errors.New("unsupported http version")
	ErrRequestTooLarge      = errors.New("request too large")
)

const (
	MethodGet  = "GET"
	MethodPost = "POST"
)

// maxRequestSize caps how much a single connection may send.
const maxRequestSize = 1 << 20

const (
	stateRequestLine = iota // 0
	stateHeaders            // 1
	stateBody               // 2
	stateDone               // 3
)

type Request struct {
	RequestLine RequestLine
	Host        string
	Headers     *headers.Headers
	Body        []byte
	// RemoteAddr is filled in by the server, not by the parsers.
	RemoteAddr string
	state      int
}

type RequestLine struct {
	HTTPVersion   string
	RequestTarget string
	Method        string
}

// Cookie returns the identifier carried by the request's Cookie line.
func (r *Request) Cookie() (string, bool) {
	return r.Headers.Cookie()
}

// RequestFromReader parses a request with blank-line terminated headers
// and a body sized by Content-Length. It blocks until the request is
// complete, the reader fails, or the reader reports EOF.
func RequestFromReader(reader io.Reader) (*Request, error) {
	req := &Request{
		state:   stateRequestLine,
		Headers: headers.NewHeaders(),
	}
	var accumulatedData []byte

	readBuf := make([]byte, 1024)

	for req.state != stateDone {
		n, err := reader.Read(readBuf)

		if n > 0 {
			accumulatedData = append(accumulatedData, readBuf[:n]...)
			if len(accumulatedData) > maxRequestSize {
				return nil, ErrRequestTooLarge
			}
		}

		// keep parsing the buffer until it's empty
		for {
			consumed, pErr := req.parse(accumulatedData)
			if pErr != nil {
				return nil, pErr
			}

			if consumed == 0 && req.state != stateDone {
				// not enough data in the buffer to parse a full line.
				break
			}

			accumulatedData = accumulatedData[consumed:]

			if req.state == stateDone {
				break
			}
		}

		if req.state == stateDone {
			break
		}

		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}

		if err != nil {
			return nil, err
		}
	}

	if host, err := req.Headers.Get("host"); err == nil {
		req.Host = host
	}

	return req, nil
}

func parseRequestLine(data []byte) (*RequestLine, int, error) {
	idx := bytes.Index(data, []byte("\r\n"))
	if idx == -1 {
		return nil, 0, nil
	}

	parts := strings.Split(string(data[:idx]), " ")
	// panic guard
	if len(parts) != 3 {
		return nil, 0, fmt.Errorf("%w: expected 3 parts, got %d", ErrInvalidRequestFormat, len(parts))
	}

	method := parts[0]
	target := parts[1]
	versionRaw := parts[2]

	http, httpv, ok := strings.Cut(versionRaw, "/")

	if !ok || http != "HTTP" || (httpv != "1.1" && httpv != "1.0") {
		return nil, 0, fmt.Errorf("%w: expected 'HTTP/1.1', got '%s'", ErrUnsupportedHTTP, versionRaw)
	}

	reqLine := RequestLine{
		Method:        method,
		RequestTarget: target,
		HTTPVersion:   versionRaw,
	}

	return &reqLine, idx + 2, nil
}

func (r *Request) parse(data []byte) (int, error) {
	switch r.state {
	case stateRequestLine:
		reqLine, consumed, err := parseRequestLine(data)
		if err != nil {
			return 0, fmt.Errorf("failed to parse request line: %w", err)
		}

		if consumed == 0 {
			return 0, nil
		}

		r.RequestLine = *reqLine
		r.state = stateHeaders
		return consumed, nil

	case stateHeaders:
		consumed, done, err := r.Headers.Parse(data)
		if err != nil {
			return 0, err
		}

		if consumed > 0 {
			if done {
				r.state = stateBody
			}
			return consumed, nil
		}

		return 0, nil

	case stateBody:
		value, err := r.Headers.Get("content-length")
		if err != nil {
			r.state = stateDone
			return 0, nil
		}

		contentLength, err := strconv.Atoi(value)
		if err != nil || contentLength < 0 {
			return 0, fmt.Errorf("invalid content-length value: %q", value)
		}
		if contentLength > maxRequestSize {
			return 0, ErrRequestTooLarge
		}

		if contentLength == 0 {
			r.state = stateDone
			return 0, nil
		}

		needed := contentLength - len(r.Body)
		toConsume := min(needed, len(data))

		r.Body = append(r.Body, data[:toConsume]...)

		if len(r.Body) == contentLength {
			r.state = stateDone
		}

		return toConsume, nil

	case stateDone:
		return 0, nil

	default:
		return 0, errors.New("invalid parser state")
	}
}
