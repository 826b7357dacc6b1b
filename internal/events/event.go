package events

import (
	"strings"
)

// Clients drive their own event registration over the socket with plain text
// control messages of the form "event:<action>:<name>", e.g.
// "event:add:file-change".

const eventIdentifier = "event:"

// EventType names a subscribable event stream.
type EventType string

// FileChange is the folder change-set stream.
const FileChange EventType = "file-change"

// Action is what a control message asks for.
type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// ControlMessage is a parsed client control message.
type ControlMessage struct {
	Action Action
	Type   EventType
}

// ParseControlMessage parses a client text message. The second return value
// is false for anything that is not a well-formed control message; such
// messages are ignored by the connection, not treated as errors.
func ParseControlMessage(message string) (ControlMessage, bool) {
	if !strings.HasPrefix(message, eventIdentifier) {
		return ControlMessage{}, false
	}

	parts := strings.SplitN(message[len(eventIdentifier):], ":", 2)
	if len(parts) != 2 {
		return ControlMessage{}, false
	}

	action := Action(parts[0])
	switch action {
	case ActionAdd, ActionRemove:
	default:
		return ControlMessage{}, false
	}

	eventType := EventType(parts[1])
	if eventType != FileChange {
		return ControlMessage{}, false
	}

	return ControlMessage{Action: action, Type: eventType}, true
}
