// Package skill routes voice-platform invocations to the hub client.
//
// Every invocation gets a fresh hub client, a new invocation ID and the
// strings of its locale. Handlers decide what to fetch and post; the hub
// client decides what happened on the wire.
package skill

// Request types sent by the voice platform.
const (
	LaunchRequest       = "LaunchRequest"
	IntentRequest       = "IntentRequest"
	SessionEndedRequest = "SessionEndedRequest"
)

// Session end reasons that count as the user abandoning the question.
const (
	ReasonUserInitiated        = "USER_INITIATED"
	ReasonExceededMaxReprompts = "EXCEEDED_MAX_REPROMPTS"
	ReasonError                = "ERROR"
)

// Request is the voice-platform envelope, reduced to the fields askhub reads.
type Request struct {
	Type        string `json:"type"`
	Locale      string `json:"locale"`
	Intent      Intent `json:"intent"`
	Reason      string `json:"reason,omitempty"`
	PersonID    string `json:"person_id,omitempty"`
	UserID      string `json:"user_id,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

// Intent is the intent the platform resolved, with its slots.
type Intent struct {
	Name  string          `json:"name"`
	Slots map[string]Slot `json:"slots,omitempty"`
}

// Slot is one intent slot. Resolved holds the entity-resolution match, if any.
type Slot struct {
	Value    string `json:"value"`
	Resolved string `json:"resolved,omitempty"`
}

// Response is what the platform speaks back.
type Response struct {
	Speech     string `json:"speech,omitempty"`
	Reprompt   string `json:"reprompt,omitempty"`
	EndSession bool   `json:"end_session"`
}

// SlotValue returns the raw value of slot name.
func (r Request) SlotValue(name string) string {
	return r.Intent.Slots[name].Value
}

// ResolvedValue prefers the entity-resolution match over the raw value.
func (r Request) ResolvedValue(name string) string {
	s := r.Intent.Slots[name]
	if s.Resolved != "" {
		return s.Resolved
	}
	return s.Value
}

func speak(text string) Response {
	return Response{Speech: text, EndSession: true}
}

func ask(text string) Response {
	return Response{Speech: text, Reprompt: text, EndSession: false}
}
