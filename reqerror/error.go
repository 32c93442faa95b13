// Package reqerror turns every way a request can go wrong — transport
// failure, TLS trouble, non-2xx status, client-side parse or validation —
// into one error shape with a display message that is always present.
package reqerror

import (
	"net/http"
	"time"

	"github.com/SocratisM/siesta/entity"
)

// fallbackMessage is used when no override, cause, or known status code is
// available. Callers normally supply at least one of those, but nothing
// enforces it; keep this branch alive.
const fallbackMessage = "Request failed"

// Synthetic causes built by NewWithDebug carry this domain and code so they
// are distinguishable from real transport errors.
const (
	debugDomain = "siesta"
	debugCode   = -1
)

// Error is the single error type this library hands back, whatever the
// failure origin. UserMessage is always non-empty and safe to show as-is;
// the remaining fields are diagnostics and may be zero.
type Error struct {
	UserMessage string         // for direct display, never empty
	StatusCode  int            // HTTP status, 0 when no response arrived
	Entity      *entity.Entity // response body + metadata, nil when the body was empty or absent
	Cause       error          // lower-level error, nil when none
	Timestamp   time.Time      // when the failure was recorded
}

func (e *Error) Error() string {
	return e.UserMessage
}

// Unwrap exposes the cause so errors.Is / errors.As see through the
// normalization.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Cause is a portable domain/code/description triple for diagnostics that
// did not start life as a Go error. Description is debug detail, not a
// display string.
type Cause struct {
	Domain      string
	Code        int
	Description string
}

func (c *Cause) Error() string {
	return c.Description
}

// FromResponse builds an Error out of whatever the transport produced: an
// optional response, an optional (already slurped) body, an optional cause,
// and an optional override message. Every input may be zero; construction
// never fails.
//
// The display message is the first of: the override, the cause's
// description, the standard phrase for the status code, fallbackMessage.
func FromResponse(resp *http.Response, body []byte, cause error, userMessage string) *Error {
	e := &Error{
		Cause:     cause,
		Timestamp: time.Now(),
	}
	if resp != nil {
		e.StatusCode = resp.StatusCode
	}
	if len(body) > 0 {
		// entity.FromResponse returns nil when it cannot wrap (e.g. no
		// response to take metadata from); that nil is stored as-is.
		e.Entity = entity.FromResponse(resp, body)
	}
	e.UserMessage = resolveMessage(userMessage, cause, e.StatusCode)
	return e
}

// New builds an Error from an already-chosen display message. No status code
// is recorded; this shape carries no response.
func New(userMessage string, cause error, ent *entity.Entity) *Error {
	if userMessage == "" {
		userMessage = fallbackMessage
	}
	return &Error{
		UserMessage: userMessage,
		Entity:      ent,
		Cause:       cause,
		Timestamp:   time.Now(),
	}
}

// NewWithDebug is New plus a debug-only detail string. The detail never
// reaches UserMessage; it travels as the description of a synthesized Cause.
func NewWithDebug(userMessage, debugMessage string, ent *entity.Entity) *Error {
	return New(userMessage, &Cause{
		Domain:      debugDomain,
		Code:        debugCode,
		Description: debugMessage,
	}, ent)
}

// resolveMessage picks the display message. First match wins; an unknown
// status code yields no phrase and falls through.
func resolveMessage(override string, cause error, status int) string {
	if override != "" {
		return override
	}
	if cause != nil {
		if desc := cause.Error(); desc != "" {
			return desc
		}
	}
	if status != 0 {
		if phrase := http.StatusText(status); phrase != "" {
			return phrase
		}
	}
	return fallbackMessage
}
