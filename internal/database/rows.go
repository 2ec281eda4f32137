package database

import (
	"time"

	"github.com/nfrund/gobychat/internal/domain"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// chat_message.kind values
const (
	kindPublic  = "public"
	kindPrivate = "private"
)

type messageRow struct {
	ID           *surrealmodels.RecordID       `json:"id,omitempty"`
	Kind         string                        `json:"kind"`
	SenderName   string                        `json:"sender_name"`
	ReceiverName string                        `json:"receiver_name"`
	Message      string                        `json:"message"`
	Media        string                        `json:"media"`
	MediaType    string                        `json:"media_type"`
	Status       string                        `json:"status"`
	Timestamp    *surrealmodels.CustomDateTime `json:"timestamp"`
}

type groupMessageRow struct {
	ID         *surrealmodels.RecordID       `json:"id,omitempty"`
	GroupID    int64                         `json:"group_id"`
	SenderName string                        `json:"sender_name"`
	Message    string                        `json:"message"`
	Media      string                        `json:"media"`
	MediaType  string                        `json:"media_type"`
	Timestamp  *surrealmodels.CustomDateTime `json:"timestamp"`
}

type groupRow struct {
	ID        *surrealmodels.RecordID       `json:"id,omitempty"`
	Number    int64                         `json:"number"`
	Name      string                        `json:"name"`
	CreatedAt *surrealmodels.CustomDateTime `json:"created_at"`
}

type counterRow struct {
	Value int64 `json:"value"`
}

func recordString(id *surrealmodels.RecordID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func timeOf(dt *surrealmodels.CustomDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	return dt.Time.UTC()
}

func (r messageRow) toDomain() domain.Message {
	return domain.Message{
		ID:           recordString(r.ID),
		SenderName:   r.SenderName,
		ReceiverName: r.ReceiverName,
		Message:      r.Message,
		Media:        r.Media,
		MediaType:    r.MediaType,
		Status:       domain.Status(r.Status),
		Timestamp:    timeOf(r.Timestamp),
	}
}

func (r groupMessageRow) toDomain() domain.GroupMessage {
	return domain.GroupMessage{
		ID:         recordString(r.ID),
		GroupID:    r.GroupID,
		SenderName: r.SenderName,
		Message:    r.Message,
		Media:      r.Media,
		MediaType:  r.MediaType,
		Timestamp:  timeOf(r.Timestamp),
	}
}

func (r groupRow) toDomain() domain.Group {
	return domain.Group{
		ID:        r.Number,
		Name:      r.Name,
		CreatedAt: timeOf(r.CreatedAt),
	}
}
