package request

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/devwelkin/hermes-chat/internal/headers"
)

// DeadlineReader is a reader whose blocking reads can be bounded,
// such as a net.Conn.
type DeadlineReader interface {
	io.Reader
	SetReadDeadline(t time.Time) error
}

// ReadAvailable reads whatever the peer has sent until no more bytes show
// up within window. It does not look at Content-Length: a client that is
// silent for longer than window yields a short (possibly empty) read.
func ReadAvailable(r DeadlineReader, window time.Duration) ([]byte, error) {
	var data []byte
	buf := make([]byte, 1024)

	for {
		if err := r.SetReadDeadline(time.Now().Add(window)); err != nil {
			return data, err
		}
		n, err := r.Read(buf)
		if n > 0 {
			data = append(data, buf[:n]...)
			if len(data) > maxRequestSize {
				return data, ErrRequestTooLarge
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, io.EOF) {
			break
		}
		return data, err
	}

	// leave the connection usable for the response
	if err := r.SetReadDeadline(time.Time{}); err != nil {
		return data, err
	}
	return data, nil
}

// Parse splits a raw request on CRLF. Line 0 is the request line, line 1
// is taken as the Host line, and for POST the final line is the body
// while the two lines before it (separator and body) are excluded from
// the headers. There is no blank-line detection: the body is always the
// last line of the split request.
func Parse(raw []byte) (*Request, error) {
	lines := splitLines(string(raw))

	parts := strings.Split(lines[0], " ")
	if len(parts) < 3 {
		return nil, fmt.Errorf("%w: expected 3 parts, got %d", ErrInvalidRequestFormat, len(parts))
	}

	req := &Request{
		RequestLine: RequestLine{
			Method:        parts[0],
			RequestTarget: parts[1],
			HTTPVersion:   parts[2],
		},
		state: stateDone,
	}

	if len(lines) > 1 {
		if fields := strings.Split(lines[1], " "); len(fields) > 1 {
			req.Host = fields[1]
		}
	}

	var headerLines []string
	if req.RequestLine.Method == MethodPost {
		if len(lines) > 4 {
			headerLines = lines[2 : len(lines)-2]
		}
		if len(lines) > 2 {
			req.Body = []byte(lines[len(lines)-1])
		}
	} else if len(lines) > 2 {
		headerLines = lines[2:]
	}
	req.Headers = headers.FromLines(headerLines)

	return req, nil
}

// splitLines splits on CRLF and drops trailing empty lines, so a request
// ending in a blank line has no empty tail. It always returns at least
// one element.
func splitLines(s string) []string {
	lines := strings.Split(s, "\r\n")
	for len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
