package utils

import "time"

// CompactLayout is the YYYYMMDDHHmmss layout used by createdDate/modifiedDate.
const CompactLayout = "20060102150405"

// NowRFC3339 returns the current UTC time in RFC3339 format.
func NowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ParseRFC3339 parses a time string in RFC3339 format.
func ParseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// FormatCompact renders t as YYYYMMDDHHmmss in UTC.
func FormatCompact(t time.Time) string {
	return t.UTC().Format(CompactLayout)
}
