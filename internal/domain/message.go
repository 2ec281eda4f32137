package domain

import "time"

// Status is set by the client and stored verbatim.
type Status string

const (
	StatusJoin    Status = "JOIN"
	StatusMessage Status = "MESSAGE"
	StatusLeave   Status = "LEAVE"
)

// Message is a public or private chat message. The body may be empty: JOIN
// and LEAVE announcements carry only a sender and a status.
// ReceiverName empty means public. GroupID is only set on inbound messages
// that should be routed to a group; persisted Messages never carry it.
type Message struct {
	ID           string    `json:"id,omitempty"`
	SenderName   string    `json:"senderName" validate:"required,max=100"`
	ReceiverName string    `json:"receiverName,omitempty" validate:"omitempty,max=100"`
	GroupID      int64     `json:"groupId,omitempty" validate:"gte=0"`
	Message      string    `json:"message" validate:"max=4000"`
	Media        string    `json:"media,omitempty" validate:"max=500"`
	MediaType    string    `json:"mediaType,omitempty" validate:"max=100"`
	Status       Status    `json:"status,omitempty" validate:"omitempty,oneof=JOIN MESSAGE LEAVE"`
	Timestamp    time.Time `json:"timestamp"`
}

// IsPublic reports whether the message has neither a receiver nor a group.
func (m Message) IsPublic() bool {
	return m.ReceiverName == "" && m.GroupID == 0
}

// GroupSend is the intake shape of a group message.
type GroupSend struct {
	GroupID    int64  `json:"groupId" validate:"required,gt=0"`
	SenderName string `json:"senderName" validate:"required,max=100"`
	Message    string `json:"message" validate:"max=4000"`
	Media      string `json:"media,omitempty" validate:"max=500"`
	MediaType  string `json:"mediaType,omitempty" validate:"max=100"`
}

// GroupMessage is a persisted message scoped to one group.
type GroupMessage struct {
	ID         string    `json:"id,omitempty"`
	GroupID    int64     `json:"groupId"`
	SenderName string    `json:"senderName"`
	Message    string    `json:"message"`
	Media      string    `json:"media,omitempty"`
	MediaType  string    `json:"mediaType,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// GroupMessageView is the read projection of a GroupMessage sent to clients.
// It carries the group id and name but no reference to the group record.
type GroupMessageView struct {
	ID         string    `json:"id"`
	SenderName string    `json:"senderName"`
	Message    string    `json:"message"`
	Media      string    `json:"media,omitempty"`
	MediaType  string    `json:"mediaType,omitempty"`
	GroupID    int64     `json:"groupId"`
	GroupName  string    `json:"groupName"`
	Timestamp  time.Time `json:"timestamp"`
}

// View projects m for a group with the given name.
func (m GroupMessage) View(groupName string) GroupMessageView {
	return GroupMessageView{
		ID:         m.ID,
		SenderName: m.SenderName,
		Message:    m.Message,
		Media:      m.Media,
		MediaType:  m.MediaType,
		GroupID:    m.GroupID,
		GroupName:  groupName,
		Timestamp:  m.Timestamp,
	}
}

// Group is a named conversation with its own message history. Membership
// is not modeled; sessions subscribe to groups while connected.
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
