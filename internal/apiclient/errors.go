package apiclient

import (
	"encoding/json"
	"fmt"
	"mime"
	"strings"
)

// HTTPError is a non-2xx response. Message comes from the body when the
// backend supplied one.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NetworkError means the request never completed: DNS, refused connection,
// TLS, a blocked cross-origin call behind a proxy.
type NetworkError struct {
	BaseURL string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("Cannot reach API at %s. Is your backend running, and is CORS allowed for this frontend origin?", e.BaseURL)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DecodeError is a successful response whose body is not JSON.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response of %s: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// errorMessage derives the user-facing message of a failed response.
func errorMessage(status int, contentType string, body []byte) string {
	if isJSON(contentType) {
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err == nil {
			for _, k := range []string{"message", "error"} {
				if s, ok := payload[k].(string); ok && s != "" {
					return s
				}
			}
		}
	} else if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return fmt.Sprintf("HTTP error! status: %d", status)
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
