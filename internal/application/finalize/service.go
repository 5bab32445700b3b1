// Package finalize files a completed report: it fetches the invoice
// attachment, uploads it to the object store, appends the sheet row and
// confirms to the user. It runs entirely outside the conversation lock,
// on an immutable snapshot of the collected fields. Failures reset the
// conversation and surface to the user; nothing is retried and no partial
// row is ever appended.
package finalize

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmiller22/botfarm/internal/application/outbound"
	"github.com/danmiller22/botfarm/internal/domain/conversation"
	"github.com/danmiller22/botfarm/internal/domain/report"
)

// Attachments resolves and fetches chat attachments.
type Attachments interface {
	// ResolveURL turns an attachment id into a transient download URL.
	ResolveURL(ctx context.Context, fileID string) (string, error)
	// Download fetches the attachment bytes and their MIME type.
	Download(ctx context.Context, url string) (data []byte, mime string, err error)
}

// Uploader stores the invoice and returns its stable reference id.
type Uploader interface {
	Upload(ctx context.Context, filename, mime string, data []byte) (string, error)
}

// RowAppender appends one report row to the tabular store.
type RowAppender interface {
	AppendRow(ctx context.Context, row []string) error
}

const runTimeout = 2 * time.Minute

// Service is the submission finalizer.
type Service struct {
	messenger outbound.Messenger
	files     Attachments
	uploader  Uploader
	rows      RowAppender
	states    conversation.StateRepository
	now       func() time.Time
	logger    zerolog.Logger
}

func NewService(
	messenger outbound.Messenger,
	files Attachments,
	uploader Uploader,
	rows RowAppender,
	states conversation.StateRepository,
	logger zerolog.Logger,
) *Service {
	return &Service{
		messenger: messenger,
		files:     files,
		uploader:  uploader,
		rows:      rows,
		states:    states,
		now:       time.Now,
		logger:    logger.With().Str("service", "finalize").Logger(),
	}
}

// Submit runs finalization on its own goroutine. Called from the dialog
// turn after the conversation lock has been released.
func (s *Service) Submit(snap report.Snapshot) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		s.Run(ctx, snap)
	}()
}

// Run executes the four finalization steps synchronously.
func (s *Service) Run(ctx context.Context, snap report.Snapshot) {
	url, err := s.files.ResolveURL(ctx, snap.FileID)
	if err != nil {
		s.logger.Error().Err(err).Int64("chat_id", snap.ChatID).Msg("attachment resolve failed")
		s.abort(ctx, snap.ChatID, "Cannot fetch file.")
		return
	}
	data, mime, err := s.files.Download(ctx, url)
	if err != nil {
		s.logger.Error().Err(err).Int64("chat_id", snap.ChatID).Msg("attachment download failed")
		s.abort(ctx, snap.ChatID, "Cannot fetch file.")
		return
	}

	id, err := s.uploader.Upload(ctx, snap.Filename(s.now()), mime, data)
	if err != nil {
		s.logger.Error().Err(err).Int64("chat_id", snap.ChatID).Msg("invoice upload failed")
		s.abort(ctx, snap.ChatID, "Error while saving. Try again.")
		return
	}
	link := "https://drive.google.com/uc?id=" + id

	if err := s.rows.AppendRow(ctx, snap.Row(s.now(), link)); err != nil {
		s.logger.Error().Err(err).Int64("chat_id", snap.ChatID).Msg("row append failed")
		s.abort(ctx, snap.ChatID, "Error while saving. Try again.")
		return
	}

	s.send(ctx, snap.ChatID, "Saved. "+link, outbound.RemoveKeyboard)
	s.send(ctx, snap.ChatID, "Ready.", outbound.MainKeyboard)
	if err := s.states.Reset(ctx, snap.ChatID); err != nil {
		s.logger.Warn().Err(err).Int64("chat_id", snap.ChatID).Msg("reset after finalize failed")
	}
	s.logger.Info().Int64("chat_id", snap.ChatID).Str("file_id", id).Msg("report filed")
}

// abort notifies the user and forces the conversation back to idle.
func (s *Service) abort(ctx context.Context, chatID int64, text string) {
	s.send(ctx, chatID, text, outbound.MainKeyboard)
	if err := s.states.Reset(ctx, chatID); err != nil {
		s.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("reset after failure failed")
	}
}

func (s *Service) send(ctx context.Context, chatID int64, text string, kb outbound.Keyboard) {
	if err := s.messenger.Send(ctx, outbound.Message{ChatID: chatID, Text: text, Keyboard: kb}); err != nil {
		s.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}
