package mathapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/doeshing/mathool/internal/domain"
)

type resultPayload struct {
	Number    *domain.Number  `json:"number"`
	Prime     *bool           `json:"prime"`
	Factorial json.RawMessage `json:"factorial"`
}

// decodeResult keeps the number plus only the fields the mode implies.
// The number in the response wins over the requested one.
func decodeResult(body []byte, mode domain.Mode, requested domain.Number) (domain.ResultRecord, error) {
	var payload resultPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.ResultRecord{}, err
	}

	rec := domain.ResultRecord{Number: requested}
	if payload.Number != nil {
		rec.Number = *payload.Number
	}
	if mode.WantsPrime() && payload.Prime != nil {
		rec.Prime = domain.BoolPtr(*payload.Prime)
	}
	if mode.WantsFactorial() {
		factorial, err := decodeFactorial(payload.Factorial)
		if err != nil {
			return domain.ResultRecord{}, err
		}
		rec.Factorial = factorial
	}
	return rec, nil
}

// decodeFactorial accepts the documented string form and, leniently, a bare
// JSON integer whose digits are kept verbatim.
func decodeFactorial(raw json.RawMessage) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return &s, nil
	}
	var n domain.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("factorial: %w", err)
	}
	s := n.String()
	return &s, nil
}

type errorPayload struct {
	Timestamp     json.RawMessage `json:"timestamp"`
	StatusCode    *int            `json:"statusCode"`
	Status        *int            `json:"status"`
	StatusMessage *string         `json:"statusMessage"`
	Message       json.RawMessage `json:"message"`
	Error         json.RawMessage `json:"error"`
}

// decodeError flattens an error payload. The HTTP status fills in for a
// payload without statusCode/statusMessage.
func decodeError(status int, body []byte) (domain.ErrorResponse, error) {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return domain.ErrorResponse{}, err
	}

	resp := domain.ErrorResponse{
		Timestamp:     parseTimestamp(payload.Timestamp),
		StatusCode:    status,
		StatusMessage: http.StatusText(status),
		Message:       extractMessage(payload),
	}
	switch {
	case payload.StatusCode != nil:
		resp.StatusCode = *payload.StatusCode
	case payload.Status != nil:
		resp.StatusCode = *payload.Status
	}
	if payload.StatusMessage != nil {
		resp.StatusMessage = *payload.StatusMessage
	}
	return resp, nil
}

// extractMessage applies the precedence: string message verbatim, then the
// values of a message mapping joined by newlines (payload order), then a
// plain error string, then a generic text.
func extractMessage(payload errorPayload) string {
	msg := bytes.TrimSpace(payload.Message)
	if len(msg) > 0 {
		switch msg[0] {
		case '"':
			var s string
			if err := json.Unmarshal(msg, &s); err == nil {
				return s
			}
		case '{':
			if joined, err := joinObjectValues(msg); err == nil {
				return joined
			}
		case '[':
			if joined, err := joinArrayValues(msg); err == nil {
				return joined
			}
		}
	}
	if e := bytes.TrimSpace(payload.Error); len(e) > 0 && e[0] == '"' {
		var s string
		if err := json.Unmarshal(e, &s); err == nil && s != "" {
			return s
		}
	}
	return domain.MsgUnknownError
}

func joinObjectValues(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return "", err
	}
	var parts []string
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return "", err
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return "", err
		}
		parts = append(parts, valueText(value))
	}
	if _, err := dec.Token(); err != nil {
		return "", err
	}
	return strings.Join(parts, "\n"), nil
}

func joinArrayValues(raw []byte) (string, error) {
	var values []json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return "", err
	}
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, valueText(v))
	}
	return strings.Join(parts, "\n"), nil
}

func valueText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}

// parseTimestamp accepts RFC 3339 strings, the zone-less form Spring emits,
// and epoch milliseconds. Anything else yields the zero time.
func parseTimestamp(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
		return time.Time{}
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms).UTC()
	}
	return time.Time{}
}
