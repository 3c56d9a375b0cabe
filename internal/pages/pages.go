// Package pages serves the static HTML pages and renders the chat board.
package pages

import (
	"errors"
	"fmt"
	"html"
	"io"
	"io/fs"
	"mime"
	"path"
	"strings"

	"github.com/devwelkin/hermes-chat/internal/store"
)

const (
	Login = "/login/login.html"
	Error = "/login/error.html"
	Chat  = "/chat/chat.html"
)

// NotFoundBody is sent when a page is missing.
const NotFoundBody = "<h1>Not found :(</h1>"

var ErrNotFound = errors.New("page not found")

const (
	chatHeader = "<html>\n<body>\n<h1>Chat Page for CS352</h1>\n<p>\n" +
		"    Chat Space  :\n</p>\n<div id=\"chat-window\">\n"
	chatFooter = "</div>\n<form action=\"/chat/\" method=\"post\">\n" +
		"   <p>Enter Message : </p>\n   <input type=\"text\" name=\"message\">\n" +
		"    <p></p>\n   <input type=\"submit\" value=\"Enter\">\n</form>\n</body>\n" +
		"</html>\n"
)

// Pages looks up static files relative to the root of an fs.FS.
type Pages struct {
	fsys fs.FS
}

func New(fsys fs.FS) *Pages {
	return &Pages{fsys: fsys}
}

// Load reads the page at name and guesses its content type. "/" resolves
// to "/index.html".
func (p *Pages) Load(name string) ([]byte, string, error) {
	if name == "/" {
		name = "/index.html"
	}
	rel := strings.TrimPrefix(path.Clean(name), "/")
	if !fs.ValidPath(rel) {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	data, err := fs.ReadFile(p.fsys, rel)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, "", err
	}
	return data, ContentType(rel), nil
}

// ContentType guesses a bare media type from the file extension, without
// parameters: ".html" gives "text/html", not "text/html; charset=utf-8".
func ContentType(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		media, _, _ := strings.Cut(t, ";")
		return strings.TrimSpace(media)
	}
	return "application/octet-stream"
}

// RenderChat writes the chat board: header, one paragraph per message in
// order, then the message form.
func RenderChat(w io.Writer, msgs []store.Message) error {
	if _, err := io.WriteString(w, chatHeader); err != nil {
		return err
	}
	for _, m := range msgs {
		line := " <p>" + html.EscapeString(m.Username) + ": " + html.EscapeString(m.Text) + "</p>\n"
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, chatFooter)
	return err
}
