package dialog

import (
	"strings"

	"github.com/danmiller22/botfarm/internal/application/outbound"
	"github.com/danmiller22/botfarm/internal/domain/conversation"
	"github.com/danmiller22/botfarm/internal/domain/report"
)

// User identifies the message sender, used for the ReportedBy column and
// the invoice filename.
type User struct {
	Username  string
	FirstName string
	LastName  string
}

// Update is one normalized inbound chat event.
type Update struct {
	ChatID         int64
	UpdateID       int
	MessageID      int
	Text           string
	PhotoFileID    string
	DocumentFileID string
	From           User
}

// Prompt is one outbound reply decided by a transition. Key is the
// prompt's semantic identity; when Debounce is set an identical Key sent
// to the same conversation within the debounce window is suppressed.
type Prompt struct {
	Key      string
	Text     string
	Keyboard outbound.Keyboard
	Debounce bool
}

// Outcome is the full effect of one transition. A nil Next leaves the
// stored state untouched; Reset discards it unconditionally. A non-nil
// Snapshot tells the caller to spawn finalization after releasing the
// conversation lock.
type Outcome struct {
	Next     *conversation.State
	Reset    bool
	Prompts  []Prompt
	Snapshot *report.Snapshot
}

// Engine is the pure dialog state machine: (state, update) -> Outcome.
// It performs no I/O and holds no mutable state.
type Engine struct {
	DashboardURL string
}

// Transition applies one inbound update to a conversation state.
func (e *Engine) Transition(st conversation.State, in Update) Outcome {
	raw := strings.TrimSpace(in.Text)
	t := strings.ToLower(raw)

	// Global overrides run before any per-step logic.
	switch t {
	case "/start", "start", "/cancel", "cancel":
		return Outcome{Reset: true, Prompts: []Prompt{promptReady()}}
	case "new report":
		next := conversation.State{Step: conversation.StepAwaitUnitType}
		return Outcome{Next: &next, Prompts: []Prompt{promptAskUnit()}}
	case "dashboard":
		return Outcome{Prompts: []Prompt{{Key: "dashboard", Text: e.DashboardURL, Keyboard: outbound.MainKeyboard}}}
	}

	switch st.Step {
	case conversation.StepAwaitUnitType:
		switch t {
		case "truck":
			st.Data = conversation.ReportFields{UnitType: conversation.UnitTruck}
			return advance(st, conversation.StepAwaitTruckNumber, promptAskTruck())
		case "trailer":
			st.Data = conversation.ReportFields{UnitType: conversation.UnitTrailer}
			return advance(st, conversation.StepAwaitTrailerNumber, promptAskTrailer())
		}
		return reprompt(promptAskUnit())

	case conversation.StepAwaitTruckNumber:
		if raw == "" {
			return reprompt(promptAskTruck())
		}
		st.Data.Truck = raw
		st.Data.UnitType = conversation.UnitTruck
		return advance(st, conversation.StepAwaitDescription, promptAskDescription())

	case conversation.StepAwaitTrailerNumber:
		if raw == "" {
			return reprompt(promptAskTrailer())
		}
		st.Data.Trailer = raw
		st.Data.UnitType = conversation.UnitTrailer
		return advance(st, conversation.StepAwaitTrailerTruckNumber, promptAskTrailerTruck())

	case conversation.StepAwaitTrailerTruckNumber:
		if raw == "" {
			return reprompt(promptAskTrailerTruck())
		}
		st.Data.Truck = raw
		return advance(st, conversation.StepAwaitDescription, promptAskDescription())

	case conversation.StepAwaitDescription:
		if raw == "" {
			return reprompt(promptAskDescription())
		}
		st.Data.Description = raw
		return advance(st, conversation.StepAwaitPaidBy, promptAskPaidBy())

	case conversation.StepAwaitPaidBy:
		payer, ok := normalizePaidBy(t)
		if !ok {
			return reprompt(promptAskPaidBy())
		}
		st.Data.PaidBy = payer
		return advance(st, conversation.StepAwaitTotal, promptAskTotal())

	case conversation.StepAwaitTotal:
		amount, ok := ParseAmount(raw)
		if !ok {
			return reprompt(promptAskTotal())
		}
		st.Data.Total = amount
		return advance(st, conversation.StepAwaitNotes, promptAskNotes())

	case conversation.StepAwaitNotes:
		// Empty text and "-" both mean "no notes"; anything else is kept.
		if raw != "" && raw != "-" {
			st.Data.Notes = raw
		}
		return advance(st, conversation.StepAwaitInvoice, promptAskInvoice())

	case conversation.StepAwaitInvoice:
		fileID, kind := attachment(in)
		if fileID == "" {
			return reprompt(promptAskInvoice())
		}
		snap := report.Snapshot{
			ChatID:       in.ChatID,
			Fields:       st.Data,
			FileID:       fileID,
			Kind:         kind,
			ReportedBy:   displayName(in.From),
			FilenameBase: filenameBase(in.From),
		}
		// The conversation goes idle right away; finalization continues on
		// the snapshot, not on the stored record.
		next := conversation.State{Step: conversation.StepIdle, Data: st.Data}
		return Outcome{
			Next:     &next,
			Prompts:  []Prompt{{Key: "saving", Text: "Saving…", Keyboard: outbound.RemoveKeyboard}},
			Snapshot: &snap,
		}
	}

	// Idle or unknown: stay silent so a finished flow is not restarted.
	return Outcome{}
}

func advance(st conversation.State, next conversation.Step, p Prompt) Outcome {
	st.Step = next
	return Outcome{Next: &st, Prompts: []Prompt{p}}
}

func reprompt(p Prompt) Outcome {
	p.Debounce = true
	return Outcome{Prompts: []Prompt{p}}
}

func normalizePaidBy(t string) (string, bool) {
	switch t {
	case "company", "c", "comp":
		return conversation.PaidByCompany, true
	case "driver", "d":
		return conversation.PaidByDriver, true
	}
	return "", false
}

// attachment picks the invoice file: the highest-resolution photo variant
// wins over a document.
func attachment(in Update) (string, report.AttachmentKind) {
	if in.PhotoFileID != "" {
		return in.PhotoFileID, report.KindPhoto
	}
	if in.DocumentFileID != "" {
		return in.DocumentFileID, report.KindDocument
	}
	return "", ""
}

func displayName(u User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return strings.TrimSpace(strings.Join(nonEmpty(u.FirstName, u.LastName), " "))
}

func filenameBase(u User) string {
	if u.Username != "" {
		return u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "user"
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func promptReady() Prompt {
	return Prompt{Key: "ready", Text: "Ready.", Keyboard: outbound.MainKeyboard}
}

func promptAskUnit() Prompt {
	return Prompt{Key: "ask_unit_type", Text: "Unit:", Keyboard: outbound.UnitKeyboard}
}

func promptAskTruck() Prompt {
	return Prompt{Key: "ask_truck_number", Text: "Truck #:", Keyboard: outbound.RemoveKeyboard}
}

func promptAskTrailer() Prompt {
	return Prompt{Key: "ask_trailer_number", Text: "Trailer #:", Keyboard: outbound.RemoveKeyboard}
}

func promptAskTrailerTruck() Prompt {
	return Prompt{Key: "ask_trailer_truck_number", Text: "Truck # with this trailer:", Keyboard: outbound.RemoveKeyboard}
}

func promptAskDescription() Prompt {
	return Prompt{Key: "ask_description", Text: "Describe the issue:", Keyboard: outbound.RemoveKeyboard}
}

func promptAskPaidBy() Prompt {
	return Prompt{Key: "ask_paidby", Text: "Paid By:", Keyboard: outbound.PaidKeyboard}
}

func promptAskTotal() Prompt {
	return Prompt{Key: "ask_total", Text: "Total amount (e.g. 525.94):", Keyboard: outbound.RemoveKeyboard}
}

func promptAskNotes() Prompt {
	return Prompt{Key: "ask_notes", Text: "Notes (optional). Send text or '-' to skip:", Keyboard: outbound.RemoveKeyboard}
}

func promptAskInvoice() Prompt {
	return Prompt{Key: "ask_invoice", Text: "Send invoice (photo or PDF):", Keyboard: outbound.RemoveKeyboard}
}
