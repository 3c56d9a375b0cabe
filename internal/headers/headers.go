package headers

import (
	"bytes"
	"errors"
	"strings"
)

var ErrKeyNotFound = errors.New("key not found")

// Headers keeps header lines in the order they arrived, plus a lowercase
// field index for lookups.
type Headers struct {
	lines  []string
	fields map[string]string
}

func NewHeaders() *Headers {
	return &Headers{fields: map[string]string{}}
}

// FromLines builds Headers from raw, unvalidated lines. Lines that look
// like "key: value" are also indexed; everything else is kept as-is.
func FromLines(lines []string) *Headers {
	h := NewHeaders()
	for _, line := range lines {
		h.lines = append(h.lines, line)
		key, value, ok := strings.Cut(line, ":")
		if !ok || key == "" {
			continue
		}
		h.add(strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(value))
	}
	return h
}

// Parse consumes one header line from data. done is true once the blank
// line that ends the header block has been consumed.
func (h *Headers) Parse(data []byte) (n int, done bool, err error) {
	idx := bytes.Index(data, []byte("\r\n"))

	if idx == -1 {
		return 0, false, nil
	}

	if idx == 0 {
		// the empty line
		return 2, true, nil
	}

	line := data[:idx]

	colonIdx := bytes.IndexByte(line, ':')
	if colonIdx == -1 {
		return 0, false, errors.New("invalid header: no colon found")
	}

	if colonIdx == 0 || line[colonIdx-1] == ' ' {
		return 0, false, errors.New("invalid header")
	}

	key := bytes.TrimSpace(line[:colonIdx])
	for _, b := range key {
		isLetter := (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
		isDigit := (b >= '0' && b <= '9')
		isSpecial := bytes.IndexByte([]byte("!#$%&'*+-.^_`|~"), b) != -1

		if !isLetter && !isDigit && !isSpecial {
			return 0, false, errors.New("invalid header key: invalid character")
		}
	}

	value := bytes.TrimSpace(line[colonIdx+1:])

	h.lines = append(h.lines, string(line))
	h.add(string(bytes.ToLower(key)), string(value))

	return idx + 2, false, nil
}

func (h *Headers) add(key, value string) {
	if prev, ok := h.fields[key]; ok {
		h.fields[key] = prev + ", " + value
		return
	}
	h.fields[key] = value
}

// Get looks up a field by name, case-insensitively.
func (h *Headers) Get(key string) (string, error) {
	value, ok := h.fields[strings.ToLower(key)]

	if ok {
		return value, nil
	}

	return "", ErrKeyNotFound
}

// Set adds or overwrites a header. An overwritten field keeps its
// original position in Lines.
func (h *Headers) Set(key, value string) {
	lower := strings.ToLower(key)
	line := key + ": " + value
	if _, ok := h.fields[lower]; ok {
		for i, l := range h.lines {
			k, _, _ := strings.Cut(l, ":")
			if strings.EqualFold(strings.TrimSpace(k), key) {
				h.lines[i] = line
				break
			}
		}
		h.fields[lower] = value
		return
	}
	h.lines = append(h.lines, line)
	h.fields[lower] = value
}

// Lines returns the header lines in arrival order.
func (h *Headers) Lines() []string {
	return append([]string(nil), h.lines...)
}

func (h *Headers) Len() int {
	return len(h.lines)
}

// Cookie returns the session identifier carried by a line containing
// "Cookie": the line is split on spaces, and the value after '=' in the
// second token is the identifier. When several lines match, the last wins.
func (h *Headers) Cookie() (string, bool) {
	var (
		value string
		found bool
	)
	for _, line := range h.lines {
		if !strings.Contains(line, "Cookie") {
			continue
		}
		tokens := strings.Split(line, " ")
		if len(tokens) < 2 {
			continue
		}
		parts := strings.Split(tokens[1], "=")
		if len(parts) < 2 {
			continue
		}
		value, found = parts[1], true
	}
	return value, found
}
