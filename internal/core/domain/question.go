package domain

// QuestionState is the hub's view of the conversation held by one client.
// It is either *ActiveQuestion or *FailedQuestion; a nil QuestionState
// means nothing has been fetched yet, or the last answer was consumed.
type QuestionState interface {
	questionState()
}

// ActiveQuestion is a live, unanswered question on the hub.
type ActiveQuestion struct {
	EventID              string
	Prompt               string
	SuppressConfirmation bool
	DeviceSerial         *string
	RawText              *string
}

// FailedQuestion records that the last fetch or post failed.
type FailedQuestion struct {
	Message string
}

func (*ActiveQuestion) questionState() {}
func (*FailedQuestion) questionState() {}

// HasEvent reports whether the question can be answered.
func (q *ActiveQuestion) HasEvent() bool {
	return q != nil && q.EventID != ""
}
