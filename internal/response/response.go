package response

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/devwelkin/hermes-chat/internal/headers"
)

type StatusCode int

const (
	StatusOK                  StatusCode = 200
	StatusBadRequest          StatusCode = 400
	StatusNotFound            StatusCode = 404
	StatusInternalServerError StatusCode = 500
)

var reasonPhrases = map[StatusCode]string{
	StatusOK:                  "OK",
	StatusBadRequest:          "Bad Request",
	StatusNotFound:            "Not Found",
	StatusInternalServerError: "Internal Server Error",
}

// StatusText returns "<code> <reason>", e.g. "404 Not Found".
func StatusText(code StatusCode) string {
	return fmt.Sprintf("%d %s", code, reasonPhrases[code])
}

// Framing selects how a response is laid out on the wire.
type Framing int

const (
	// FramingLegacy reproduces the chat server's historical layout:
	// "HTTP/1.1 200 OK<status>", "ContentType" header, body, then a
	// trailing blank line pair.
	FramingLegacy Framing = iota
	// FramingStandard is a plain HTTP/1.1 response with Content-Length
	// and Connection: close.
	FramingStandard
)

// Response is a fully buffered reply. Handlers write the body into it and
// the server encodes it in one piece once the handler returns.
type Response struct {
	Status      StatusCode
	ContentType string
	// Cookie is sent as Set-Cookie only when SetCookie is true.
	Cookie    string
	SetCookie bool
	body      bytes.Buffer
}

func New(status StatusCode, contentType string) *Response {
	return &Response{Status: status, ContentType: contentType}
}

// Write appends p to the body.
func (r *Response) Write(p []byte) (int, error) {
	return r.body.Write(p)
}

func (r *Response) Body() []byte {
	return r.body.Bytes()
}

type writerState int

const (
	stateStatus  writerState = iota // can write status
	stateHeaders                    // can write headers
	stateBody                       // can write body
	stateClosed
)

// Writer is a stateful writer for constructing an http response.
type Writer struct {
	w       io.Writer
	state   writerState
	framing Framing
}

func NewWriter(w io.Writer, framing Framing) *Writer {
	return &Writer{
		w:       w,
		state:   stateStatus,
		framing: framing,
	}
}

// WriteStatusLine writes the status line. can only be called once, and first.
func (w *Writer) WriteStatusLine(statusCode StatusCode) error {
	if w.state != stateStatus {
		return errors.New("WriteStatusLine called in wrong state")
	}

	var statusLine string
	switch w.framing {
	case FramingLegacy:
		statusLine = "HTTP/1.1 200 OK" + StatusText(statusCode) + "\r\n"
	default:
		statusLine = fmt.Sprintf("HTTP/1.1 %d %s\r\n", statusCode, reasonPhrases[statusCode])
	}

	if _, err := io.WriteString(w.w, statusLine); err != nil {
		return err
	}
	w.state = stateHeaders
	return nil
}

// WriteHeaders writes the headers in order. must be called after status
// and before body.
func (w *Writer) WriteHeaders(h *headers.Headers) error {
	if w.state != stateHeaders {
		return errors.New("WriteHeaders called in wrong state")
	}

	for _, line := range h.Lines() {
		if _, err := io.WriteString(w.w, line+"\r\n"); err != nil {
			return err
		}
	}

	// final crlf to separate headers from body
	if _, err := io.WriteString(w.w, "\r\n"); err != nil {
		return err
	}

	w.state = stateBody
	return nil
}

// WriteBody writes to the response body. can be called multiple times, but
// only after headers have been written.
func (w *Writer) WriteBody(p []byte) (int, error) {
	if w.state != stateBody {
		return 0, errors.New("WriteBody called in wrong state")
	}
	return w.w.Write(p)
}

// Close ends the response. Legacy framing appends a CRLF pair after the body.
func (w *Writer) Close() error {
	if w.state != stateBody {
		return errors.New("Close called before body")
	}
	w.state = stateClosed
	if w.framing == FramingLegacy {
		_, err := io.WriteString(w.w, "\r\n\r\n")
		return err
	}
	return nil
}

// GetDefaultHeaders returns the header block for res in the given framing.
func GetDefaultHeaders(res *Response, framing Framing) *headers.Headers {
	h := headers.NewHeaders()
	if res.SetCookie {
		h.Set("Set-Cookie", res.Cookie)
	}
	if framing == FramingLegacy {
		h.Set("ContentType", res.ContentType)
		return h
	}
	h.Set("Content-Type", res.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(res.Body())))
	h.Set("Connection", "close")
	return h
}

// Encode serializes res completely before anything reaches the wire.
func Encode(res *Response, framing Framing) ([]byte, error) {
	var buf bytes.Buffer
	w := NewWriter(&buf, framing)

	if err := w.WriteStatusLine(res.Status); err != nil {
		return nil, err
	}
	if err := w.WriteHeaders(GetDefaultHeaders(res, framing)); err != nil {
		return nil, err
	}
	if _, err := w.WriteBody(res.Body()); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes res and sends it with a single write.
func Write(conn io.Writer, res *Response, framing Framing) error {
	data, err := Encode(res, framing)
	if err != nil {
		return err
	}
	_, err = conn.Write(data)
	return err
}
