package pdfverify

import "time"

// parseDate parses a PDF-formatted date string ("D:YYYYMMDDHHmmSSOHH'mm'"),
// as found in a signature dictionary's /M entry.
func parseDate(v string) (time.Time, error) {
	return time.Parse("D:20060102150405Z07'00'", v)
}
