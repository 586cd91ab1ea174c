package apierror

import (
	"bytes"
	"encoding/json"
)

// FromResponse converts a non-2xx response into an API error. The message is
// taken from a "detail" or "message" field when present, otherwise from the
// first string-valued field in document order.
func FromResponse(status int, body []byte) *Error {
	message, details := ExtractMessage(body)
	return API(status, message, details)
}

// ExtractMessage pulls a human readable message and the decoded object out of
// an error body. Bodies that are not JSON objects yield an empty message.
func ExtractMessage(body []byte) (string, map[string]any) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", nil
	}

	var details map[string]any
	if err := json.Unmarshal(trimmed, &details); err != nil {
		return "", nil
	}

	for _, key := range []string{"detail", "message"} {
		if msg := firstString(details[key]); msg != "" {
			return msg, details
		}
	}

	for _, key := range orderedKeys(trimmed) {
		if msg := firstString(details[key]); msg != "" {
			return msg, details
		}
	}

	return "", details
}

// firstString accepts either a non-empty string or a list whose first element is one.
func firstString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case []any:
		if len(value) > 0 {
			if s, ok := value[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// orderedKeys lists the top-level keys of a JSON object in the order they appear.
func orderedKeys(body []byte) []string {
	dec := json.NewDecoder(bytes.NewReader(body))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
		keys = append(keys, key)
	}
	return keys
}
