package models

import "time"

const (
	InputKindURL  = "url"
	InputKindText = "text"
)

type CheckRecord struct {
	ID            string
	InputKind     string
	SourceURL     string
	Summary       string
	Verdict       string
	Score         int
	Explanation   string
	Malformed     bool
	RawResponse   string
	EvidenceCount int
	LatencyMS     int
	CreatedAt     time.Time
}

type EvidenceRow struct {
	ID       int
	CheckID  string
	Position int
	Title    string
	Snippet  string
	Link     string
}

type FeedbackRow struct {
	ID        int
	CheckID   string
	Rating    int
	CreatedAt time.Time
}
