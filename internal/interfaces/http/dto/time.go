package dto

import "time"

// TimeLayout is the wire format of every timestamp in the API
const TimeLayout = "2006-01-02 15:04:05"

// FormatTime renders t in UTC using TimeLayout
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// FormatTimePtr is FormatTime for optional timestamps
func FormatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}
