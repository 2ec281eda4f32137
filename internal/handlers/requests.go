package handlers

import (
	"strings"

	"github.com/nfrund/gobychat/internal/domain"
)

// CustomValidator implements echo.Validator with the domain's validator, so
// request DTOs fail with a domain validation error.
type CustomValidator struct{}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i any) error {
	return domain.ValidateStruct("validate request", i)
}

// SendMessageRequest is the body of POST /api/messages/public and /private.
// The sender is always the caller's identity.
type SendMessageRequest struct {
	ReceiverName string        `json:"receiverName" validate:"omitempty,max=100"`
	Message      string        `json:"message" validate:"max=4000"`
	Media        string        `json:"media" validate:"max=500"`
	MediaType    string        `json:"mediaType" validate:"max=100"`
	Status       domain.Status `json:"status" validate:"omitempty,oneof=JOIN MESSAGE LEAVE"`
}

func (r SendMessageRequest) toMessage(sender string) domain.Message {
	return domain.Message{
		SenderName:   sender,
		ReceiverName: r.ReceiverName,
		Message:      r.Message,
		Media:        r.Media,
		MediaType:    r.MediaType,
		Status:       r.Status,
	}
}

// GroupMessageRequest is the body of POST /api/groups/:groupId/messages.
type GroupMessageRequest struct {
	Message   string `json:"message" validate:"max=4000"`
	Media     string `json:"media" validate:"max=500"`
	MediaType string `json:"mediaType" validate:"max=100"`
}

// CreateGroupRequest is the body of POST /api/groups.
type CreateGroupRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// LoginRequest is the body of POST /api/session.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100,excludesall=/"`
}

func (r *LoginRequest) normalize() {
	r.Username = strings.TrimSpace(r.Username)
}
