package google

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Drive uploads invoices into one shared folder and makes them readable
// by link.
type Drive struct {
	svc      *drive.Service
	folderID string
}

func NewDrive(ctx context.Context, client *http.Client, folderID string) (*Drive, error) {
	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return &Drive{svc: svc, folderID: folderID}, nil
}

// Upload stores the file and returns its Drive id. The anyone-with-link
// permission is part of the upload: a row is only ever appended with a
// link that already resolves.
func (d *Drive) Upload(ctx context.Context, filename, mime string, data []byte) (string, error) {
	meta := &drive.File{Name: filename, Parents: []string{d.folderID}}
	created, err := d.svc.Files.Create(meta).
		Media(bytes.NewReader(data), googleapi.ContentType(mime)).
		SupportsAllDrives(true).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive upload: %w", err)
	}

	_, err = d.svc.Permissions.Create(created.Id, &drive.Permission{Role: "reader", Type: "anyone"}).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive permission: %w", err)
	}
	return created.Id, nil
}
