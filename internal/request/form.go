package request

import "strings"

// Form holds the key=value pairs of a form-encoded body. Values are kept
// exactly as sent; no percent-decoding is applied.
type Form map[string]string

// ParseForm splits body on '&' and each pair on its first '='. Pairs
// without '=' map to an empty value. Later duplicates are ignored.
func ParseForm(body string) Form {
	form := Form{}
	if body == "" {
		return form
	}
	for _, pair := range strings.Split(body, "&") {
		key, value, _ := strings.Cut(pair, "=")
		if key == "" {
			continue
		}
		if _, seen := form[key]; seen {
			continue
		}
		form[key] = value
	}
	return form
}

// Get returns the value for key, or "" when the key is absent.
func (f Form) Get(key string) string {
	return f[key]
}

// Form parses the request body as a form.
func (r *Request) Form() Form {
	return ParseForm(string(r.Body))
}
