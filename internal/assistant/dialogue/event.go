// Package dialogue routes user events through the single pending state of a
// conversation and produces the replies.
package dialogue

import "strings"

type EventKind int

const (
	EventCommand EventKind = iota
	EventText
	EventCallback
	EventDocument
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventText:
		return "text"
	case EventCallback:
		return "callback"
	case EventDocument:
		return "document"
	default:
		return "unknown"
	}
}

// Event is one inbound user action. Payload is the command name without the
// slash, the message text, the callback data or the local path of an upload.
type Event struct {
	Kind    EventKind
	Payload string
}

func Command(name string) Event {
	return Event{Kind: EventCommand, Payload: strings.TrimPrefix(strings.TrimSpace(name), "/")}
}

func Text(text string) Event {
	return Event{Kind: EventText, Payload: text}
}

func Callback(data string) Event {
	return Event{Kind: EventCallback, Payload: data}
}

func Document(path string) Event {
	return Event{Kind: EventDocument, Payload: path}
}

// Keyboard selects the markup the transport should attach to a reply.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardMainMenu
	KeyboardTaxRegimes
)

// Attachment is a generated file to deliver. The transport owns it afterwards.
type Attachment struct {
	Path    string
	Caption string
}

type Reply struct {
	Text       string
	Keyboard   Keyboard
	Attachment *Attachment
}

// Empty reports whether the event was ignored and nothing should be sent.
func (r Reply) Empty() bool {
	return r.Text == "" && r.Attachment == nil
}
