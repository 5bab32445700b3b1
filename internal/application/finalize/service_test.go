package finalize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danmiller22/botfarm/internal/application/outbound"
	"github.com/danmiller22/botfarm/internal/domain/conversation"
	"github.com/danmiller22/botfarm/internal/domain/report"
	"github.com/danmiller22/botfarm/internal/infrastructure/memory"
)

type fakeMessenger struct {
	sent []outbound.Message
}

func (m *fakeMessenger) Send(_ context.Context, msg outbound.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type fakeAttachments struct {
	resolveErr  error
	downloadErr error
}

func (a *fakeAttachments) ResolveURL(_ context.Context, fileID string) (string, error) {
	if a.resolveErr != nil {
		return "", a.resolveErr
	}
	return "https://files.test/" + fileID, nil
}

func (a *fakeAttachments) Download(_ context.Context, _ string) ([]byte, string, error) {
	if a.downloadErr != nil {
		return nil, "", a.downloadErr
	}
	return []byte("binary"), "image/jpeg", nil
}

type fakeUploader struct {
	err      error
	filename string
	mime     string
}

func (u *fakeUploader) Upload(_ context.Context, filename, mime string, _ []byte) (string, error) {
	u.filename = filename
	u.mime = mime
	if u.err != nil {
		return "", u.err
	}
	return "drv-1", nil
}

type fakeRows struct {
	err  error
	rows [][]string
}

func (r *fakeRows) AppendRow(_ context.Context, row []string) error {
	if r.err != nil {
		return r.err
	}
	r.rows = append(r.rows, row)
	return nil
}

type fixture struct {
	svc       *Service
	messenger *fakeMessenger
	files     *fakeAttachments
	uploader  *fakeUploader
	rows      *fakeRows
	states    *memory.StateRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		messenger: &fakeMessenger{},
		files:     &fakeAttachments{},
		uploader:  &fakeUploader{},
		rows:      &fakeRows{},
		states:    memory.NewStateRepository(),
	}
	f.svc = NewService(f.messenger, f.files, f.uploader, f.rows, f.states, zerolog.Nop())
	f.svc.now = func() time.Time { return time.Date(2025, time.March, 7, 12, 0, 0, 0, time.UTC) }
	return f
}

func snapshot() report.Snapshot {
	return report.Snapshot{
		ChatID: 7,
		Fields: conversation.ReportFields{
			UnitType:    conversation.UnitTruck,
			Truck:       "TR-102",
			Description: "broken light",
			PaidBy:      conversation.PaidByCompany,
			Total:       "125.00",
		},
		FileID:       "ph-77",
		Kind:         report.KindPhoto,
		ReportedBy:   "@dan",
		FilenameBase: "dan",
	}
}

func (f *fixture) stateOf(t *testing.T, chatID int64) conversation.State {
	t.Helper()
	st, _, err := f.states.Get(context.Background(), chatID)
	require.NoError(t, err)
	return st
}

func TestRunHappyPath(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.states.Put(context.Background(), 7, conversation.State{
		Step: conversation.StepIdle,
		Data: snapshot().Fields,
	}))

	f.svc.Run(context.Background(), snapshot())

	require.Len(t, f.rows.rows, 1)
	assert.Equal(t, []string{
		"3/7/2025",
		"truck TR-102",
		"broken light",
		"125.00",
		"company",
		"@dan",
		"https://drive.google.com/uc?id=drv-1",
		"",
	}, f.rows.rows[0])

	assert.Equal(t, "image/jpeg", f.uploader.mime)
	assert.Contains(t, f.uploader.filename, "dan_")
	assert.Contains(t, f.uploader.filename, ".jpg")

	require.Len(t, f.messenger.sent, 2)
	assert.Equal(t, "Saved. https://drive.google.com/uc?id=drv-1", f.messenger.sent[0].Text)
	assert.Equal(t, "Ready.", f.messenger.sent[1].Text)

	st := f.stateOf(t, 7)
	assert.Equal(t, conversation.StepIdle, st.Step)
	assert.True(t, st.Data.IsEmpty(), "fields are discarded after filing")
}

func TestRunResolveFailure(t *testing.T) {
	f := newFixture(t)
	f.files.resolveErr = errors.New("file gone")

	f.svc.Run(context.Background(), snapshot())

	assert.Empty(t, f.rows.rows, "no partial row on failure")
	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, "Cannot fetch file.", f.messenger.sent[0].Text)
	assert.Equal(t, conversation.StepIdle, f.stateOf(t, 7).Step)
}

func TestRunDownloadFailure(t *testing.T) {
	f := newFixture(t)
	f.files.downloadErr = errors.New("timeout")

	f.svc.Run(context.Background(), snapshot())

	assert.Empty(t, f.rows.rows)
	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, "Cannot fetch file.", f.messenger.sent[0].Text)
}

func TestRunUploadFailure(t *testing.T) {
	f := newFixture(t)
	f.uploader.err = errors.New("quota")

	f.svc.Run(context.Background(), snapshot())

	assert.Empty(t, f.rows.rows, "append must not happen after a failed upload")
	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, "Error while saving. Try again.", f.messenger.sent[0].Text)
	assert.Equal(t, conversation.StepIdle, f.stateOf(t, 7).Step)
}

func TestRunAppendFailure(t *testing.T) {
	f := newFixture(t)
	f.rows.err = errors.New("sheet locked")

	f.svc.Run(context.Background(), snapshot())

	require.Len(t, f.messenger.sent, 1)
	assert.Equal(t, "Error while saving. Try again.", f.messenger.sent[0].Text)
	assert.Equal(t, conversation.StepIdle, f.stateOf(t, 7).Step)
}
