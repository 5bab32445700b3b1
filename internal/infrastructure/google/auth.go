// Package google holds the record-keeping collaborators: invoice files go
// to a Drive folder, report rows go to a spreadsheet. Both authenticate
// as one service account via a JWT grant.
package google

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/google"
	driveapi "google.golang.org/api/drive/v3"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// NewHTTPClient builds an authenticated client from service-account JSON.
func NewHTTPClient(ctx context.Context, serviceAccountJSON []byte) (*http.Client, error) {
	cfg, err := google.JWTConfigFromJSON(serviceAccountJSON, driveapi.DriveScope, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}
	return cfg.Client(ctx), nil
}
