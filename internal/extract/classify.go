package extract

import "strings"

// FileType identifies which carrier layout a shipment file uses.
type FileType string

const (
	TypeOCS     FileType = "OCS"
	TypeTW      FileType = "TW"
	TypeYP      FileType = "YP"
	TypeUnknown FileType = ""
)

// DetectFileType classifies a file by name. The match is case-insensitive and
// ordered: a name containing both "OCS" and "TW" is OCS.
func DetectFileType(filename string) FileType {
	upper := strings.ToUpper(filename)
	switch {
	case strings.Contains(upper, "OCS"):
		return TypeOCS
	case strings.Contains(upper, "TW"):
		return TypeTW
	case strings.Contains(upper, "YP"):
		return TypeYP
	}
	return TypeUnknown
}

// IsSpreadsheet reports whether the filename is a workbook the extractor can
// parse. Only OOXML .xlsx payloads are; legacy BIFF .xls files are recognized
// by IsLegacyWorkbook and skipped upstream.
func IsSpreadsheet(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// IsLegacyWorkbook reports whether the filename is a pre-OOXML .xls workbook.
func IsLegacyWorkbook(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xls")
}
