package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EncodeJSONBody encodes body for an HTTP request. HTML escaping is off so
// payloads survive round trips untouched.
func EncodeJSONBody(body any) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return &buf, nil
}
