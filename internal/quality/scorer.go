// Package quality assesses completed transcripts from the provider's
// per-word confidence stream combined with the source-media quality tier.
package quality

import (
	"github.com/Cordycepsers/final-transcript/internal/media"
	"github.com/Cordycepsers/final-transcript/internal/revai"
	"github.com/Cordycepsers/final-transcript/internal/types"
)

// Words below this confidence are flagged for review.
const lowConfidenceThreshold = 0.8

// Fraction of flagged words above which the transcript is warned about.
const uncertainWordsFraction = 0.1

// FlaggedWord is a recognized word whose confidence fell below the
// flagging threshold.
type FlaggedWord struct {
	Word       string  `json:"word"`
	Confidence float64 `json:"confidence"`
	Timestamp  float64 `json:"timestamp"`
}

// Report is the acoustic quality assessment for a completed transcript.
type Report struct {
	OverallConfidence  float64             `json:"overall_confidence"`
	TotalWords         int                 `json:"total_words"`
	LowConfidenceCount int                 `json:"low_confidence_count"`
	LowConfidenceWords []FlaggedWord       `json:"low_confidence_words,omitempty"`
	QualityRating      string              `json:"quality_rating"`
	MediaQuality       media.QualityReport `json:"media_quality"`
	Warnings           []string            `json:"warnings,omitempty"`
}

// PendingReport is returned for jobs that have not completed. It carries no
// confidence fields.
type PendingReport struct {
	Status       string              `json:"status"`
	Message      string              `json:"message"`
	MediaQuality media.QualityReport `json:"media_quality"`
}

// Pending builds the report for a job still in flight.
func Pending(status string, mediaQuality media.QualityReport) PendingReport {
	return PendingReport{
		Status:       status,
		Message:      "Transcript not ready yet",
		MediaQuality: mediaQuality,
	}
}

// Score walks every text element of the transcript and derives the overall
// confidence, the flagged-word list, and the quality rating.
func Score(tr *revai.Transcript, mediaQuality media.QualityReport) Report {
	report := Report{MediaQuality: mediaQuality}

	var sum float64
	for _, monologue := range tr.Monologues {
		for _, el := range monologue.Elements {
			if el.Type != "text" {
				continue
			}
			report.TotalWords++
			sum += el.Confidence
			if el.Confidence < lowConfidenceThreshold {
				report.LowConfidenceCount++
				report.LowConfidenceWords = append(report.LowConfidenceWords, FlaggedWord{
					Word:       el.Value,
					Confidence: el.Confidence,
					Timestamp:  el.Timestamp,
				})
			}
		}
	}

	if report.TotalWords > 0 {
		report.OverallConfidence = sum / float64(report.TotalWords)
	}

	switch {
	case report.OverallConfidence > 0.9:
		report.QualityRating = types.RatingGood
	case report.OverallConfidence > 0.8:
		report.QualityRating = types.RatingFair
	default:
		report.QualityRating = types.RatingPoor
	}

	if report.OverallConfidence < lowConfidenceThreshold {
		report.Warnings = append(report.Warnings, "Low overall confidence score")
	}
	if report.TotalWords > 0 &&
		float64(report.LowConfidenceCount)/float64(report.TotalWords) > uncertainWordsFraction {
		report.Warnings = append(report.Warnings, "High number of uncertain words")
	}

	return report
}
