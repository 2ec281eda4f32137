package websocket

import (
	"encoding/json"
	"errors"

	"github.com/nfrund/gobychat/internal/domain"
	"github.com/nfrund/gobychat/internal/topics"
)

// Inbound frame types.
const (
	frameMessage     = "message"
	frameSubscribe   = "subscribe"
	frameUnsubscribe = "unsubscribe"
)

// inboundFrame is a client frame. Message fields sit at the top level, so
// {"type":"subscribe","groupId":3} fills GroupID of the embedded Message.
type inboundFrame struct {
	Type string `json:"type"`
	domain.Message
}

// frameError is the data of an "error" envelope.
type frameError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func encodeEnvelope(envType string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(topics.Envelope{Type: envType, Data: raw})
}

// errorFrame builds an "error" envelope whose code follows the error kind.
func errorFrame(err error) []byte {
	code := "internal"
	msg := "internal error"
	switch {
	case errors.Is(err, domain.ErrValidation):
		code, msg = "validation", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		code, msg = "not_found", err.Error()
	case errors.Is(err, domain.ErrPersistence):
		code, msg = "persistence", "message could not be stored"
	}
	// frameError always marshals
	frame, _ := encodeEnvelope(topics.EnvelopeError, frameError{Code: code, Message: msg})
	return frame
}
