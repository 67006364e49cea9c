package resource

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FormContentType is the only request body type POST accepts
const FormContentType = "application/x-www-form-urlencoded"

var ErrMalformedForm = errors.New("malformed form body")

// parseForm splits "a=1&b=2" into a map. Keys and values are kept as sent;
// the last of duplicate keys wins. An empty body is an empty form.
func parseForm(body string) (map[string]string, error) {
	form := make(map[string]string)
	if body == "" {
		return form, nil
	}

	for _, pair := range strings.Split(body, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: no '=' in %q", ErrMalformedForm, pair)
		}
		form[key] = value
	}
	return form, nil
}

// encodeForm renders the form as a JSON object without HTML escaping
func encodeForm(form map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(form); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
