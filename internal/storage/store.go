package storage

import (
	"context"
	"fmt"
	"strings"
)

// ResultRecord is one completed transcription bound for the results sheet.
type ResultRecord struct {
	Email             string
	Question          string
	MediaURL          string
	Transcript        string
	OverallConfidence float64
	Warnings          []string
}

// Store persists completed transcription results. Upsert returns false when
// the record could not be stored; implementations log their own failures.
// Callers treat false as "not stored" and carry on.
type Store interface {
	Upsert(ctx context.Context, rec ResultRecord) bool
}

// cellText renders the transcript cell: the enhanced text plus a
// quality-notes footer whenever there are warnings to surface.
func cellText(rec ResultRecord) string {
	if len(rec.Warnings) == 0 {
		return rec.Transcript
	}

	lines := make([]string, 0, len(rec.Warnings)+1)
	lines = append(lines, fmt.Sprintf("- Confidence: %.2f%%", rec.OverallConfidence*100))
	for _, w := range rec.Warnings {
		lines = append(lines, "- "+w)
	}
	return strings.TrimSpace(rec.Transcript + "\n\nQuality Notes:\n" + strings.Join(lines, "\n"))
}
