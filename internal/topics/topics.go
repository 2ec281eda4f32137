// Package topics declares the pub/sub events shared by the transport, the
// presence tracker and the message fan-out, together with their payloads.
package topics

import (
	"encoding/json"

	"github.com/nfrund/gobychat/internal/pubsub"
	"github.com/nfrund/gobychat/internal/topicmgr"
)

// PresenceUpdate is a full snapshot of the online set. Version increases with
// every mutation; consumers keep the highest version they have seen.
type PresenceUpdate struct {
	Type    string   `json:"type"`
	Version uint64   `json:"version"`
	Users   []string `json:"users"`
}

// PresenceUpdateType is the Type of every PresenceUpdate.
const PresenceUpdateType = "presence_update"

// ClientEvent is published by the WebSocket bridge when a session opens or closes.
// UserID is empty for anonymous sessions.
type ClientEvent struct {
	UserID   string `json:"userID"`
	ClientID string `json:"clientID"`
	Endpoint string `json:"endpoint"`
	Reason   string `json:"reason,omitempty"`
}

// GroupEvent announces a change to a group as a whole.
type GroupEvent struct {
	GroupID int64 `json:"groupId"`
}

// Envelope wraps every frame written to a socket.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Envelope types.
const (
	EnvelopePublic   = "public"
	EnvelopePrivate  = "private"
	EnvelopeGroup        = "group"
	EnvelopeGroupDeleted = "group_deleted"
	EnvelopePresence     = "presence"
	EnvelopeSent         = "sent"
	EnvelopeError        = "error"
)

var (
	OnlineUsers = pubsub.NewFrameworkEvent[PresenceUpdate](topicmgr.TopicConfig{
		Name:        "presence.users.online",
		Description: "Full snapshot of online identities, published on every connect and disconnect",
		Example:     `{"type":"presence_update","version":3,"users":["alice","bob"]}`,
	})

	ClientReady = pubsub.NewFrameworkEvent[ClientEvent](topicmgr.TopicConfig{
		Name:        "ws.client.ready",
		Description: "A WebSocket session finished its handshake",
		Example:     `{"userID":"alice","clientID":"3f0c...","endpoint":"/ws"}`,
	})

	ClientDisconnected = pubsub.NewFrameworkEvent[ClientEvent](topicmgr.TopicConfig{
		Name:        "ws.client.disconnected",
		Description: "A WebSocket session closed",
		Example:     `{"userID":"alice","clientID":"3f0c...","endpoint":"/ws","reason":"closed"}`,
	})

	Public = pubsub.NewModuleEvent[Envelope](topicmgr.TopicConfig{
		Name:        "chat.public",
		Module:      "chat",
		Description: "Messages for every connected session",
		Example:     `{"type":"public","data":{"senderName":"alice","message":"hi"}}`,
	})

	Private = pubsub.NewModuleEvent[Envelope](topicmgr.TopicConfig{
		Name:        "chat.private",
		Module:      "chat",
		Description: "Messages for the sessions of one identity",
		Example:     `{"type":"private","data":{"senderName":"alice","receiverName":"bob","message":"hi"}}`,
		Metadata:    map[string]any{"requires": []string{pubsub.MetaRecipientID}},
	})

	Group = pubsub.NewModuleEvent[Envelope](topicmgr.TopicConfig{
		Name:        "chat.group",
		Module:      "chat",
		Description: "Messages for the sessions subscribed to one group",
		Example:     `{"type":"group","data":{"groupId":1,"groupName":"ops","message":"hi"}}`,
		Metadata:    map[string]any{"requires": []string{pubsub.MetaGroupID}},
	})

	GroupDeleted = pubsub.NewModuleEvent[GroupEvent](topicmgr.TopicConfig{
		Name:        "chat.group.deleted",
		Module:      "chat",
		Description: "A group and its history were removed; sessions drop their subscription",
		Example:     `{"groupId":1}`,
	})
)
