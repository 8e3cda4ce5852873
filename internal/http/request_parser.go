// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Mutating endpoints accept either JSON or form-encoded bodies.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"budgetcare/internal/core"
	"budgetcare/internal/editor"
)

const maxBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(trimmed, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = fmt.Errorf("decode json body: %w", err)
			return p.err
		}
		return nil
	}
	if trimmed[0] == '[' {
		p.err = errors.New("decode json body: object expected")
		return p.err
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	if p.err != nil {
		p.err = fmt.Errorf("decode form body: %w", p.err)
	}
	return p.err
}

// Get returns a trimmed, sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) GetRaw() []byte {
	return p.body
}

func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseReservationForm reads the fields of a new reservation. The amount is
// kept as text so the service can apply its own parsing rules.
func ParseReservationForm(p *RequestBodyParser) core.ReservationForm {
	return core.ReservationForm{
		CategoryID: p.Get("categoryId"),
		Amount:     p.Get("amount"),
		Purpose:    p.Get("purpose"),
		Notes:      p.Get("notes"),
	}
}

// ReservedBy is the body's reservedBy field, falling back to the
// X-User-Email header set by the login front end.
func ReservedBy(p *RequestBodyParser, r *http.Request) string {
	if by := p.Get("reservedBy"); by != "" {
		return by
	}
	return sanitizeInput(r.Header.Get("X-User-Email"))
}

func ParseConversion(p *RequestBodyParser) core.Conversion {
	return core.Conversion{
		Vendor:          p.Get("vendor"),
		Date:            p.Get("date"),
		TransactionType: p.Get("transactionType"),
	}
}

func ParseCancellation(p *RequestBodyParser) core.Cancellation {
	return core.Cancellation{Reason: p.Get("reason")}
}

// ParseFilter builds a reservation filter from ?status=&q=&category=.
// An unknown status is an error; an empty one matches every status.
func ParseFilter(query url.Values, planID string) (core.Filter, error) {
	f := core.Filter{
		PlanID:     planID,
		CategoryID: sanitizeInput(query.Get("category")),
		Search:     sanitizeInput(query.Get("q")),
	}
	if planID == "" {
		f.PlanID = sanitizeInput(query.Get("plan"))
	}
	if raw := strings.ToLower(sanitizeInput(query.Get("status"))); raw != "" && raw != "all" {
		status := core.ReservationStatus(raw)
		if !status.IsValid() {
			return core.Filter{}, fmt.Errorf("unknown status %q", raw)
		}
		f.Status = status
	}
	return f, nil
}

// actionEnvelope is the wire form of an editor action.
type actionEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ParseEditorAction decodes {"type": ..., "payload": {...}} into an action.
func ParseEditorAction(p *RequestBodyParser) (editor.Action, error) {
	if p.err != nil {
		return nil, p.err
	}
	var env actionEnvelope
	if err := json.Unmarshal(p.body, &env); err != nil {
		return nil, fmt.Errorf("decode editor action: %w", err)
	}
	return editor.DecodeAction(strings.TrimSpace(env.Type), env.Payload)
}
