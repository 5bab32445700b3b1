// Package report defines the immutable snapshot handed from a completed
// dialog to the submission finalizer, and the spreadsheet row derived
// from it. The snapshot is a value type on purpose: finalization runs
// after the conversation lock is released and must never share mutable
// state with the live conversation record.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/danmiller22/botfarm/internal/domain/conversation"
)

// AttachmentKind distinguishes how the invoice arrived.
type AttachmentKind string

const (
	KindPhoto    AttachmentKind = "photo"
	KindDocument AttachmentKind = "document"
)

// Snapshot carries everything the finalizer needs, captured at the moment
// the invoice attachment was accepted.
type Snapshot struct {
	ChatID       int64
	Fields       conversation.ReportFields
	FileID       string
	Kind         AttachmentKind
	ReportedBy   string
	FilenameBase string
}

// Filename suggests the Drive object name for the invoice.
func (s Snapshot) Filename(now time.Time) string {
	base := s.FilenameBase
	if base == "" {
		base = "user"
	}
	ext := "pdf"
	if s.Kind == KindPhoto {
		ext = "jpg"
	}
	return fmt.Sprintf("%s_%d.%s", base, now.UnixMilli(), ext)
}

// Row builds the eight-column sheet row:
// date, asset, repair, total, paid by, reported by, invoice link, comments.
func (s Snapshot) Row(now time.Time, link string) []string {
	return []string{
		now.Format("1/2/2006"),
		AssetDescription(s.Fields),
		s.Fields.Description,
		s.Fields.Total,
		s.Fields.PaidBy,
		s.ReportedBy,
		link,
		s.Fields.Notes,
	}
}

// AssetDescription renders the unit column: "truck 102" for trucks,
// "TRL 53119 ( unit 102 )" for trailers.
func AssetDescription(f conversation.ReportFields) string {
	if f.UnitType == conversation.UnitTruck {
		return strings.TrimSpace("truck " + f.Truck)
	}
	return fmt.Sprintf("TRL %s ( unit %s )", f.Trailer, f.Truck)
}
