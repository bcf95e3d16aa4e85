package hub

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vietddude/askhub/internal/core/domain"
)

var errMissingState = errors.New("response has no state")

// affirmatives are the tokens the hub uses for a true suppress_confirmation,
// across the languages it is configured in.
var affirmatives = map[string]struct{}{
	"true": {},
	"1":    {},
	"yes":  {},
	"y":    {},
	"on":   {},
	"oui":  {},
	"si":   {},
	"sí":   {},
	"ja":   {},
	"sim":  {},
}

// ParseAffirmative coerces a loosely typed JSON value to a bool.
// Anything that is not true or an affirmative string is false.
func ParseAffirmative(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		_, ok := affirmatives[strings.ToLower(strings.TrimSpace(x))]
		return ok
	default:
		return false
	}
}

type questionEnvelope struct {
	State json.RawMessage `json:"state"`
}

type questionPayload struct {
	Event                eventID     `json:"event"`
	Text                 *string     `json:"text"`
	SuppressConfirmation affirmative `json:"suppress_confirmation"`
	DeviceSerial         *string     `json:"deviceSerialNumber"`
	RawText              *string     `json:"textBrut"`
}

// eventID accepts a string or a number; hubs are not consistent about it.
type eventID string

func (e *eventID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*e = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*e = eventID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("event must be a string or number: %w", err)
		}
		*e = eventID(n.String())
	}
	return nil
}

type affirmative bool

func (a *affirmative) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*a = false
		return nil
	}
	*a = affirmative(ParseAffirmative(v))
	return nil
}

// parseQuestion decodes a question endpoint body. The state field is either
// an object or a JSON string holding one.
func parseQuestion(body []byte) (*domain.ActiveQuestion, error) {
	var env questionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	raw := bytes.TrimSpace(env.State)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errMissingState
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode state string: %w", err)
		}
		raw = bytes.TrimSpace([]byte(s))
	}
	if len(raw) == 0 {
		return nil, errMissingState
	}
	if raw[0] != '{' {
		return nil, fmt.Errorf("state is not an object: %s", truncate(string(raw), 50))
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if len(fields) == 0 {
		return nil, errMissingState
	}

	var p questionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	q := &domain.ActiveQuestion{
		EventID:              string(p.Event),
		SuppressConfirmation: bool(p.SuppressConfirmation),
		DeviceSerial:         p.DeviceSerial,
		RawText:              p.RawText,
	}
	if p.Text != nil {
		q.Prompt = *p.Text
	}
	return q, nil
}
