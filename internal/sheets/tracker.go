package sheets

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"drivewatch/internal/extract"
	"drivewatch/internal/logger"
)

var headerRow = []interface{}{"File ID", "File Name", "File Type", "Tracking Number", "ASIN", "Boxes"}

// Record is one processed file's extracted data, ready to be appended to the
// tracking worksheet.
type Record struct {
	FileID         string
	FileName       string
	FileType       extract.FileType
	TrackingNumber string
	ASINs          []string
	BoxCount       int
	HasBoxCount    bool
}

// Tracker appends extracted records to the tracking worksheet and remembers
// which Drive file IDs have already been written. The processed set is seeded
// from the worksheet itself, so restarts do not duplicate rows.
type Tracker struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string

	mu        sync.Mutex
	processed map[string]bool
}

// NewTracker builds a Tracker authenticated with a service account key file.
// Call Init before use.
func NewTracker(ctx context.Context, credentialsFile, spreadsheetID, worksheet string) (*Tracker, error) {
	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Tracker{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		worksheet:     worksheet,
		processed:     make(map[string]bool),
	}, nil
}

// Init ensures the tracking worksheet exists (creating it with a header row if
// needed) and seeds the processed-file set from its File ID column.
func (t *Tracker) Init(ctx context.Context) error {
	exists, err := t.worksheetExists(ctx)
	if err != nil {
		return err
	}

	if !exists {
		if err := t.createWorksheet(ctx); err != nil {
			return err
		}
		logger.Info("Created tracking worksheet", "worksheet", t.worksheet)
		return nil
	}

	return t.seedProcessed(ctx)
}

// IsProcessed reports whether a file ID has already been written.
func (t *Tracker) IsProcessed(fileID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.processed[fileID]
}

// Append writes one record to the worksheet: a row for the tracking number,
// then one row per ASIN. The file is marked processed only after the append
// succeeds, so a failed write is retried on the next pass.
func (t *Tracker) Append(ctx context.Context, rec Record) error {
	rows := buildRows(rec)
	if len(rows) == 0 {
		return fmt.Errorf("record for %s has no data to append", rec.FileName)
	}

	valueRange := &sheets.ValueRange{Values: rows}
	_, err := t.svc.Spreadsheets.Values.
		Append(t.spreadsheetID, t.worksheet, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append to worksheet %s: %w", t.worksheet, err)
	}

	t.mu.Lock()
	t.processed[rec.FileID] = true
	t.mu.Unlock()

	logger.Info("Appended record to tracking worksheet",
		"file", rec.FileName,
		"file_type", string(rec.FileType),
		"tracking_number", rec.TrackingNumber,
		"asin_count", len(rec.ASINs),
		"rows", len(rows))
	return nil
}

func (t *Tracker) worksheetExists(ctx context.Context) (bool, error) {
	spreadsheet, err := t.svc.Spreadsheets.Get(t.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("failed to get spreadsheet: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == t.worksheet {
			return true, nil
		}
	}
	return false, nil
}

func (t *Tracker) createWorksheet(ctx context.Context) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: t.worksheet,
					GridProperties: &sheets.GridProperties{
						RowCount:    1000,
						ColumnCount: 26,
					},
				},
			},
		}},
	}
	_, err := t.svc.Spreadsheets.BatchUpdate(t.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to create worksheet %s: %w", t.worksheet, err)
	}

	header := &sheets.ValueRange{Values: [][]interface{}{headerRow}}
	_, err = t.svc.Spreadsheets.Values.
		Update(t.spreadsheetID, fmt.Sprintf("%s!A1", t.worksheet), header).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	return nil
}

func (t *Tracker) seedProcessed(ctx context.Context) error {
	resp, err := t.svc.Spreadsheets.Values.
		Get(t.spreadsheetID, fmt.Sprintf("%s!A2:A", t.worksheet)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to read processed file IDs: %w", err)
	}

	seen := seedFromValues(resp.Values)
	t.mu.Lock()
	for id := range seen {
		t.processed[id] = true
	}
	t.mu.Unlock()

	logger.Info("Seeded processed-file set from worksheet",
		"worksheet", t.worksheet, "count", len(seen))
	return nil
}

// buildRows converts a record into worksheet rows. The tracking number gets its
// own row (carrying the box count when present), followed by one row per ASIN.
// A record with no tracking number still emits its ASIN rows.
func buildRows(rec Record) [][]interface{} {
	var rows [][]interface{}

	boxes := ""
	if rec.HasBoxCount {
		boxes = strconv.Itoa(rec.BoxCount)
	}

	if rec.TrackingNumber != "" {
		rows = append(rows, []interface{}{
			rec.FileID, rec.FileName, string(rec.FileType), rec.TrackingNumber, "", boxes,
		})
	}
	for _, asin := range rec.ASINs {
		rows = append(rows, []interface{}{
			rec.FileID, rec.FileName, string(rec.FileType), rec.TrackingNumber, asin, "",
		})
	}
	return rows
}

// seedFromValues collects the non-blank file IDs from a File ID column read.
func seedFromValues(values [][]interface{}) map[string]bool {
	seen := make(map[string]bool)
	for _, row := range values {
		if len(row) == 0 {
			continue
		}
		if id, ok := row[0].(string); ok && id != "" {
			seen[id] = true
		}
	}
	return seen
}
