package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMalformedMessage = errors.New("malformed message")

type MessageType string

const (
	TypeJoin      MessageType = "join"
	TypeOffer     MessageType = "offer"
	TypeAnswer    MessageType = "answer"
	TypeCandidate MessageType = "candidate"
	TypeChat      MessageType = "chat"
	// TypeUnknown covers a missing, non-string or unrecognized tag.
	TypeUnknown MessageType = ""
)

func (t MessageType) Known() bool {
	switch t {
	case TypeJoin, TypeOffer, TypeAnswer, TypeCandidate, TypeChat:
		return true
	}
	return false
}

func (t MessageType) String() string {
	if t == TypeUnknown {
		return "unknown"
	}
	return string(t)
}

// Message is one inbound signaling frame. Raw is kept as received and
// everything besides the type tag stays opaque.
type Message struct {
	Type MessageType
	// Tag is the type value as sent, for logging unrecognized messages.
	Tag string
	Raw []byte
}

// DecodeMessage checks that data is a JSON object and extracts its type tag.
func DecodeMessage(data []byte) (Message, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if fields == nil {
		return Message{}, fmt.Errorf("%w: not an object", ErrMalformedMessage)
	}

	msg := Message{Type: TypeUnknown, Raw: data}
	if raw, ok := fields["type"]; ok {
		var tag string
		if err := json.Unmarshal(raw, &tag); err == nil {
			msg.Tag = tag
			if t := MessageType(tag); t.Known() {
				msg.Type = t
			}
		} else {
			msg.Tag = string(raw)
		}
	}
	return msg, nil
}
