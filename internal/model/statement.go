package model

import "time"

// Statement is an immutable snapshot of one parsed upload.
// A new upload produces a new Statement; snapshots are never merged.
type Statement struct {
	ID           string        `json:"id"`
	Generation   uint64        `json:"generation"`
	Source       string        `json:"source"`
	TextBytes    int           `json:"text_bytes"`
	Transactions []Transaction `json:"transactions"`
	ParsedAt     time.Time     `json:"parsed_at"`
}

// Empty reports whether the snapshot has nothing to export.
func (s *Statement) Empty() bool {
	return s == nil || len(s.Transactions) == 0
}
