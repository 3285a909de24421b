package constants

import "strings"

// Report formats accepted in Report.Formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ReportSuffix marks an expanded file as an hOCR page report.
const ReportSuffix = ".hocr.html"

// ArchiveName is the file the conversion payload is saved as inside a scratch directory.
const ArchiveName = "downloaded.files.zip"

// ScratchPrefix starts every scratch-directory identifier.
const ScratchPrefix = "temp_dir_"

// ReportPrefix starts every report file name.
const ReportPrefix = "output_data_"

// Timestamp layouts. Scratch directories use a compact form; reports separate date and time.
const (
	ScratchTimestampLayout = "20060102150405"
	ReportTimestampLayout  = "20060102_150405"
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
