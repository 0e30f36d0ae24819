package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Layout holds the hard-coded cell coordinates for one file type. Carrier
// templates are fixed, so coordinates are constants rather than configuration.
type Layout struct {
	TrackingCell string
	ItemColumn   string
	ItemStartRow int
	BoxCountCell string // empty when the template has no box count
}

var layouts = map[FileType]Layout{
	TypeOCS: {TrackingCell: "G2", ItemColumn: "D", ItemStartRow: 17, BoxCountCell: "G3"},
	TypeTW:  {TrackingCell: "A12", ItemColumn: "K", ItemStartRow: 16},
	TypeYP:  {TrackingCell: "F12", ItemColumn: "J", ItemStartRow: 21},
}

// LayoutFor returns the cell layout for a file type.
func LayoutFor(ft FileType) (Layout, bool) {
	layout, ok := layouts[ft]
	return layout, ok
}

// Result is the data pulled out of one shipment workbook.
type Result struct {
	Type           FileType
	TrackingNumber string
	ASINs          []string
	BoxCount       int
	HasBoxCount    bool
}

// Empty reports whether extraction found nothing worth recording.
func (r *Result) Empty() bool {
	return r.TrackingNumber == "" && len(r.ASINs) == 0
}

// FromBytes extracts the fixed-position fields for the given file type from a
// workbook payload. The first sheet is read. Cells outside the sheet's bounds
// read as blank, so undersized sheets yield empty results rather than errors.
func FromBytes(data []byte, ft FileType) (*Result, error) {
	layout, ok := LayoutFor(ft)
	if !ok {
		return nil, fmt.Errorf("no layout for file type %q", ft)
	}

	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	result := &Result{Type: ft}

	tracking, err := file.GetCellValue(sheet, layout.TrackingCell)
	if err != nil {
		return nil, fmt.Errorf("failed to read tracking cell %s: %w", layout.TrackingCell, err)
	}
	result.TrackingNumber = strings.TrimSpace(tracking)

	result.ASINs, err = readColumnDown(file, sheet, layout.ItemColumn, layout.ItemStartRow)
	if err != nil {
		return nil, err
	}

	if layout.BoxCountCell != "" {
		raw, err := file.GetCellValue(sheet, layout.BoxCountCell)
		if err != nil {
			return nil, fmt.Errorf("failed to read box count cell %s: %w", layout.BoxCountCell, err)
		}
		if count, parseErr := strconv.Atoi(strings.TrimSpace(raw)); parseErr == nil {
			result.BoxCount = count
			result.HasBoxCount = true
		}
	}

	return result, nil
}

// readColumnDown reads a column from startRow until the first blank cell.
func readColumnDown(file *excelize.File, sheet, column string, startRow int) ([]string, error) {
	var values []string
	for row := startRow; ; row++ {
		cell := fmt.Sprintf("%s%d", column, row)
		value, err := file.GetCellValue(sheet, cell)
		if err != nil {
			return nil, fmt.Errorf("failed to read cell %s: %w", cell, err)
		}
		value = strings.TrimSpace(value)
		if value == "" {
			break
		}
		values = append(values, value)
	}
	return values, nil
}
