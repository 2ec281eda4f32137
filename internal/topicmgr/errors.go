package topicmgr

// ErrorType classifies a TopicError.
type ErrorType string

const (
	ErrorTopicNotFound         ErrorType = "topic_not_found"
	ErrorDuplicateRegistration ErrorType = "duplicate_registration"
	ErrorValidationFailed      ErrorType = "validation_failed"
)

// TopicError is returned by every Manager operation that fails.
type TopicError struct {
	Type  ErrorType
	Topic string
	Cause error
}

func (e *TopicError) Error() string {
	msg := string(e.Type) + ": " + e.Topic
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TopicError) Unwrap() error {
	return e.Cause
}
