package google

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sheets appends report rows to one spreadsheet range.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	appendRange   string
}

func NewSheets(ctx context.Context, client *http.Client, spreadsheetID, appendRange string) (*Sheets, error) {
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Sheets{svc: svc, spreadsheetID: spreadsheetID, appendRange: appendRange}, nil
}

// AppendRow appends one row of raw values.
func (s *Sheets) AppendRow(ctx context.Context, row []string) error {
	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{values}}
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, s.appendRange, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets append: %w", err)
	}
	return nil
}
