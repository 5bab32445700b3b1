// Package httpapi exposes the inbound surface: the Telegram webhook and a
// liveness endpoint. The webhook acknowledges immediately; handling runs
// on the dialog processor's worker pool.
package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/danmiller22/botfarm/internal/application/dialog"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Server holds dependencies for HTTP handlers.
type Server struct {
	processor     *dialog.Processor
	webhookSecret string
	logger        zerolog.Logger
}

func NewServer(processor *dialog.Processor, webhookSecret string, logger zerolog.Logger) *Server {
	return &Server{
		processor:     processor,
		webhookSecret: webhookSecret,
		logger:        logger.With().Str("service", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Post("/telegram", s.handleWebhook)
	r.Get("/health", s.handleHealth)
	return r
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.webhookSecret != "" {
		got := r.Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.webhookSecret)) != 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.logger.Warn().Err(err).Msg("bad webhook payload")
		// Malformed payloads are acked: Telegram would otherwise redeliver
		// them forever.
		s.ok(w)
		return
	}

	if u, ok := toDialogUpdate(update); ok {
		s.processor.Enqueue(u)
	}
	s.ok(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.ok(w)
}

func (s *Server) ok(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// toDialogUpdate normalizes a Telegram update. Non-message updates are
// ignored; for photos the highest-resolution variant is kept.
func toDialogUpdate(update tgbotapi.Update) (dialog.Update, bool) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return dialog.Update{}, false
	}

	u := dialog.Update{
		ChatID:    msg.Chat.ID,
		UpdateID:  update.UpdateID,
		MessageID: msg.MessageID,
		Text:      msg.Text,
	}
	if u.Text == "" {
		u.Text = msg.Caption
	}
	if len(msg.Photo) > 0 {
		// Telegram orders photo variants by ascending resolution.
		u.PhotoFileID = msg.Photo[len(msg.Photo)-1].FileID
	}
	if msg.Document != nil {
		u.DocumentFileID = msg.Document.FileID
	}
	if msg.From != nil {
		u.From = dialog.User{
			Username:  msg.From.UserName,
			FirstName: msg.From.FirstName,
			LastName:  msg.From.LastName,
		}
	}
	return u, true
}
