package domain

// ResponseType tells the hub how to interpret event_response.
type ResponseType string

const (
	ResponseYes           ResponseType = "ResponseYes"
	ResponseNo            ResponseType = "ResponseNo"
	ResponseNone          ResponseType = "ResponseNone"
	ResponseNumeric       ResponseType = "ResponseNumeric"
	ResponseString        ResponseType = "ResponseString"
	ResponseSelect        ResponseType = "ResponseSelect"
	ResponseDuration      ResponseType = "ResponseDuration"
	ResponseDateTime      ResponseType = "ResponseDateTime"
	ResponseDeviceControl ResponseType = "ResponseDeviceControl"
	ResponseStatusQuery   ResponseType = "ResponseStatusQuery"
	ResponseSetValue      ResponseType = "ResponseSetValue"
	ResponseScenario      ResponseType = "ResponseScenario"
)

// ResponseTypes lists every type the hub understands.
var ResponseTypes = []ResponseType{
	ResponseYes,
	ResponseNo,
	ResponseNone,
	ResponseNumeric,
	ResponseString,
	ResponseSelect,
	ResponseDuration,
	ResponseDateTime,
	ResponseDeviceControl,
	ResponseStatusQuery,
	ResponseSetValue,
	ResponseScenario,
}

// ParseResponseType returns the ResponseType named s.
func ParseResponseType(s string) (ResponseType, bool) {
	for _, t := range ResponseTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Caller identifies the end user behind one voice invocation.
type Caller struct {
	PersonID    string
	UserID      string
	SessionID   string
	AccessToken string
}
