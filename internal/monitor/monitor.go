package monitor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"drivewatch/internal/drive"
	"drivewatch/internal/extract"
	"drivewatch/internal/logger"
	"drivewatch/internal/sheets"
)

// FileSource lists and downloads files from the watched storage folder.
type FileSource interface {
	ListRecent(ctx context.Context, folderID string, window time.Duration) ([]drive.File, error)
	ListAll(ctx context.Context, folderID string) ([]drive.File, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}

// RecordSink receives extracted records and answers dedup queries.
type RecordSink interface {
	IsProcessed(fileID string) bool
	Append(ctx context.Context, rec sheets.Record) error
}

// Monitor composes the file source, the classifiers/extractors, and the record
// sink into the check-and-process operation.
type Monitor struct {
	source   FileSource
	sink     RecordSink
	folderID string
	window   time.Duration
}

// Summary is the outcome of one pass.
type Summary struct {
	Listed    int `json:"listed"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

func New(source FileSource, sink RecordSink, folderID string, window time.Duration) *Monitor {
	return &Monitor{
		source:   source,
		sink:     sink,
		folderID: folderID,
		window:   window,
	}
}

// CheckOnce lists the files created within the poll window and processes each.
// Per-file failures are counted and logged, not fatal to the pass.
func (m *Monitor) CheckOnce(ctx context.Context) (Summary, error) {
	logger.Info("Checking folder for new files", "folder_id", m.folderID, "window", m.window.String())

	files, err := m.source.ListRecent(ctx, m.folderID, m.window)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list recent files: %w", err)
	}

	summary := m.processFiles(ctx, files)
	logger.Info("Check completed",
		"listed", summary.Listed,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
	return summary, nil
}

// ProcessAll processes every file in the folder. minPrefix, when 0-99, keeps
// only files whose name starts with a two-digit number at or above it; pass a
// negative value for no filter. Already-written file IDs are still skipped so
// a rerun never duplicates worksheet rows.
func (m *Monitor) ProcessAll(ctx context.Context, minPrefix int) (Summary, error) {
	logger.Info("Processing all folder files", "folder_id", m.folderID, "min_prefix", minPrefix)

	files, err := m.source.ListAll(ctx, m.folderID)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list folder files: %w", err)
	}

	if minPrefix >= 0 {
		filtered := files[:0]
		for _, f := range files {
			if hasMinPrefix(f.Name, minPrefix) {
				filtered = append(filtered, f)
			}
		}
		files = filtered
	}

	summary := m.processFiles(ctx, files)
	logger.Info("Batch processing completed",
		"listed", summary.Listed,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
	return summary, nil
}

// ProcessFiles runs the per-file pipeline over an explicit file list. Used by
// the interactive review mode after the operator picks files.
func (m *Monitor) ProcessFiles(ctx context.Context, files []drive.File) Summary {
	return m.processFiles(ctx, files)
}

// ListRecent exposes the source's recent-file listing for callers that need
// the candidates without processing them.
func (m *Monitor) ListRecent(ctx context.Context) ([]drive.File, error) {
	return m.source.ListRecent(ctx, m.folderID, m.window)
}

// IsProcessed reports whether the sink already holds the file.
func (m *Monitor) IsProcessed(fileID string) bool {
	return m.sink.IsProcessed(fileID)
}

func (m *Monitor) processFiles(ctx context.Context, files []drive.File) Summary {
	summary := Summary{Listed: len(files)}
	for _, f := range files {
		processed, err := m.processFile(ctx, f)
		switch {
		case err != nil:
			summary.Failed++
			logger.Error("Failed to process file", "file", f.Name, "file_id", f.ID, "error", err)
		case processed:
			summary.Processed++
		default:
			summary.Skipped++
		}
	}
	return summary
}

// processFile runs one file through classify, extract, and append. It returns
// false with no error when the file is skipped: already written, not a known
// type, not a workbook, or extraction found nothing.
func (m *Monitor) processFile(ctx context.Context, f drive.File) (bool, error) {
	if m.sink.IsProcessed(f.ID) {
		logger.Debug("Skipping already-processed file", "file", f.Name, "file_id", f.ID)
		return false, nil
	}

	fileType := extract.DetectFileType(f.Name)
	if fileType == extract.TypeUnknown {
		logger.Debug("Skipping file with no type marker", "file", f.Name)
		return false, nil
	}
	if extract.IsLegacyWorkbook(f.Name) {
		logger.Info("Skipping legacy .xls workbook, parser reads .xlsx only",
			"file", f.Name, "file_type", string(fileType))
		return false, nil
	}
	if !extract.IsSpreadsheet(f.Name) {
		logger.Info("Skipping non-workbook file", "file", f.Name, "file_type", string(fileType))
		return false, nil
	}

	data, err := m.source.Download(ctx, f.ID)
	if err != nil {
		return false, err
	}

	result, err := extract.FromBytes(data, fileType)
	if err != nil {
		return false, err
	}
	if result.Empty() {
		logger.Warn("File contained no tracking number or ASINs", "file", f.Name, "file_type", string(fileType))
		return false, nil
	}

	logger.Info("Extracted shipment data",
		"file", f.Name,
		"file_type", string(fileType),
		"tracking_number", result.TrackingNumber,
		"asin_count", len(result.ASINs))

	rec := sheets.Record{
		FileID:         f.ID,
		FileName:       f.Name,
		FileType:       fileType,
		TrackingNumber: result.TrackingNumber,
		ASINs:          result.ASINs,
		BoxCount:       result.BoxCount,
		HasBoxCount:    result.HasBoxCount,
	}
	if err := m.sink.Append(ctx, rec); err != nil {
		return false, err
	}
	return true, nil
}

// hasMinPrefix reports whether the filename starts with a two-digit number at
// or above min. Names without a numeric prefix never match.
func hasMinPrefix(name string, min int) bool {
	if len(name) < 2 {
		return false
	}
	prefix, err := strconv.Atoi(name[:2])
	if err != nil {
		return false
	}
	return prefix >= min
}
