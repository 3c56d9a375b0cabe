package pages

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/devwelkin/hermes-chat/internal/store"
)

func TestLoad(t *testing.T) {
	p := New(fstest.MapFS{
		"login/login.html": {Data: []byte("<form>login</form>")},
		"index.html":       {Data: []byte("home")},
		"chat/style.css":   {Data: []byte("p{}")},
	})

	tests := []struct {
		name     string
		path     string
		want     string
		wantType string
		wantErr  error
	}{
		{"login page", Login, "<form>login</form>", "text/html", nil},
		{"root maps to index", "/", "home", "text/html", nil},
		{"css", "/chat/style.css", "p{}", "text/css", nil},
		{"missing", Error, "", "", ErrNotFound},
		{"escape attempt", "/../etc/passwd", "", "", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, ct, err := p.Load(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if string(data) != tt.want {
				t.Errorf("data = %q, want %q", data, tt.want)
			}
			if ct != tt.wantType {
				t.Errorf("content type = %q, want %q", ct, tt.wantType)
			}
		})
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"login/login.html": "text/html",
		"chat/style.css":   "text/css",
		"blob.unknownext":  "application/octet-stream",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestRenderChatEmpty(t *testing.T) {
	var b strings.Builder
	if err := RenderChat(&b, nil); err != nil {
		t.Fatal(err)
	}
	if b.String() != chatHeader+chatFooter {
		t.Errorf("empty board = %q", b.String())
	}
	window := strings.SplitN(b.String(), "<div id=\"chat-window\">\n", 2)[1]
	if !strings.HasPrefix(window, "</div>") {
		t.Errorf("empty board contains message lines: %q", window)
	}
}

func TestRenderChatOrder(t *testing.T) {
	var b strings.Builder
	msgs := []store.Message{
		{Username: "bob", Text: "hello"},
		{Username: "alice", Text: "hi"},
		{Username: "bob", Text: "<b>bye</b>"},
	}
	if err := RenderChat(&b, msgs); err != nil {
		t.Fatal(err)
	}
	out := b.String()

	lines := []string{
		"<p>bob: hello</p>",
		"<p>alice: hi</p>",
		"<p>bob: &lt;b&gt;bye&lt;/b&gt;</p>",
	}
	last := strings.Index(out, "<div id=\"chat-window\">")
	for _, l := range lines {
		i := strings.Index(out, l)
		if i < 0 {
			t.Fatalf("missing %q in %q", l, out)
		}
		if i < last {
			t.Errorf("%q out of order", l)
		}
		last = i
	}
	if !strings.HasSuffix(out, chatFooter) {
		t.Error("form not at the end")
	}
}
