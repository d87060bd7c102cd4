// utils/reports.go
package utils

import "strings"

// ReportFileName returns the report file name for a Date attribute value,
// e.g. "10-14-21" -> "10-14-21.txt".
func ReportFileName(date, ext string) string {
	return date + ext
}

// ReportDate is the inverse of ReportFileName. ok is false when name does
// not carry the extension.
func ReportDate(name, ext string) (date string, ok bool) {
	if !strings.HasSuffix(name, ext) {
		return "", false
	}
	return strings.TrimSuffix(name, ext), true
}
