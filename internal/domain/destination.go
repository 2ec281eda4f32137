package domain

import "fmt"

// Kind selects the delivery channel of a message.
type Kind int

const (
	KindPublic Kind = iota + 1
	KindPrivate
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindPublic:
		return "public"
	case KindPrivate:
		return "private"
	case KindGroup:
		return "group"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Destination addresses one live delivery. Identity is set for KindPrivate,
// GroupID for KindGroup. Destinations are never persisted.
type Destination struct {
	Kind     Kind
	Identity string
	GroupID  int64
}

func PublicTopic() Destination {
	return Destination{Kind: KindPublic}
}

func PrivateChannel(identity string) Destination {
	return Destination{Kind: KindPrivate, Identity: identity}
}

func GroupTopic(groupID int64) Destination {
	return Destination{Kind: KindGroup, GroupID: groupID}
}

func (d Destination) String() string {
	switch d.Kind {
	case KindPrivate:
		return "private:" + d.Identity
	case KindGroup:
		return fmt.Sprintf("group:%d", d.GroupID)
	default:
		return d.Kind.String()
	}
}

// Classify decides the destination of an inbound message exactly once.
// A message naming both a receiver and a group is rejected.
func Classify(m Message) (Destination, error) {
	switch {
	case m.ReceiverName != "" && m.GroupID != 0:
		return Destination{}, Validation("classify", "message cannot target both a receiver and a group")
	case m.GroupID < 0:
		return Destination{}, Validation("classify", "group id must be positive")
	case m.GroupID > 0:
		return GroupTopic(m.GroupID), nil
	case m.ReceiverName != "":
		return PrivateChannel(m.ReceiverName), nil
	default:
		return PublicTopic(), nil
	}
}
