// Package entity wraps a raw response payload together with the response
// metadata it arrived with. It does not interpret the payload; decoding is
// on demand via Text and JSON.
package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Entity pairs payload bytes with the metadata of the exchange that
// produced them. Values are immutable once built.
type Entity struct {
	Content     []byte
	ContentType string
	Headers     http.Header
	Timestamp   time.Time
}

// FromResponse wraps body with resp's metadata. It returns nil when there is
// nothing to wrap: no response to take metadata from, or an empty body.
func FromResponse(resp *http.Response, body []byte) *Entity {
	if resp == nil || len(body) == 0 {
		return nil
	}
	return &Entity{
		Content:     body,
		ContentType: resp.Header.Get("Content-Type"),
		Headers:     resp.Header,
		Timestamp:   time.Now(),
	}
}

// Text returns the payload as a trimmed string.
func (e *Entity) Text() string {
	return strings.TrimSpace(string(e.Content))
}

// JSON decodes the payload into v. UseNumber keeps numeric fields from being
// forced to float64.
func (e *Entity) JSON(v any) error {
	dec := json.NewDecoder(bytes.NewReader(e.Content))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode entity: %w", err)
	}
	return nil
}
