package constants

// FileStatus is the outcome of processing one input file.
type FileStatus string

const (
	FileStatusOK        FileStatus = "OK"         // converted and at least one page row extracted
	FileStatusNoReports FileStatus = "NO_REPORTS" // converted, but nothing usable in the archive
	FileStatusSkipped   FileStatus = "SKIPPED"    // conversion service answered non-2xx
)
