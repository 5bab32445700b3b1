// Package outbound owns everything that leaves the service toward the chat
// transport: the message vocabulary (text plus reply keyboard), a debouncer
// that collapses duplicate reprompts, and a fire-and-forget dispatcher so a
// failed or slow send can never block the dialog state machine.
package outbound

import "context"

// Keyboard describes the reply keyboard attached to a message. The zero
// value attaches nothing; Remove takes precedence over Rows.
type Keyboard struct {
	Rows    [][]string
	OneTime bool
	Remove  bool
}

// Canonical keyboards of the report dialog.
var (
	MainKeyboard   = Keyboard{Rows: [][]string{{"New report", "Dashboard"}}}
	UnitKeyboard   = Keyboard{Rows: [][]string{{"Truck", "Trailer"}}, OneTime: true}
	PaidKeyboard   = Keyboard{Rows: [][]string{{"company", "driver"}}, OneTime: true}
	RemoveKeyboard = Keyboard{Remove: true}
)

// Message is one outbound chat message.
type Message struct {
	ChatID   int64
	Text     string
	Keyboard Keyboard
}

// Messenger sends a single message to the chat transport.
type Messenger interface {
	Send(ctx context.Context, msg Message) error
}
