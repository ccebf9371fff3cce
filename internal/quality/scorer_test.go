package quality

import (
	"math"
	"testing"

	"github.com/Cordycepsers/final-transcript/internal/media"
	"github.com/Cordycepsers/final-transcript/internal/revai"
	"github.com/Cordycepsers/final-transcript/internal/types"
)

func transcriptOf(elements ...revai.Element) *revai.Transcript {
	return &revai.Transcript{Monologues: []revai.Monologue{{Speaker: 0, Elements: elements}}}
}

func TestScoreFlagsLowConfidenceWords(t *testing.T) {
	tr := transcriptOf(
		revai.Element{Type: "text", Value: "Hello", Confidence: 0.95, Timestamp: 0.5},
		revai.Element{Type: "punct", Value: " "},
		revai.Element{Type: "text", Value: "world", Confidence: 0.75, Timestamp: 1.0},
	)

	report := Score(tr, media.QualityReport{QualityLevel: types.TierHigh})

	if report.TotalWords != 2 {
		t.Errorf("total words = %d, want 2", report.TotalWords)
	}
	if math.Abs(report.OverallConfidence-0.85) > 1e-9 {
		t.Errorf("overall confidence = %v, want 0.85", report.OverallConfidence)
	}
	if report.LowConfidenceCount != 1 {
		t.Errorf("low confidence count = %d, want 1", report.LowConfidenceCount)
	}
	if len(report.LowConfidenceWords) != 1 {
		t.Fatalf("flagged words = %v, want one entry", report.LowConfidenceWords)
	}
	flagged := report.LowConfidenceWords[0]
	if flagged.Word != "world" || flagged.Confidence != 0.75 || flagged.Timestamp != 1.0 {
		t.Errorf("unexpected flagged word %+v", flagged)
	}
	if report.QualityRating != types.RatingFair {
		t.Errorf("rating = %q, want fair", report.QualityRating)
	}
	if report.MediaQuality.QualityLevel != types.TierHigh {
		t.Errorf("media quality not carried through: %+v", report.MediaQuality)
	}
}

func TestScoreRatings(t *testing.T) {
	tests := []struct {
		name        string
		confidences []float64
		rating      string
	}{
		{"good above 0.9", []float64{0.95, 0.93}, types.RatingGood},
		{"exactly 0.9 is fair", []float64{0.9, 0.9}, types.RatingFair},
		{"exactly 0.8 is poor", []float64{0.8, 0.8}, types.RatingPoor},
		{"low is poor", []float64{0.5, 0.6}, types.RatingPoor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var elements []revai.Element
			for _, c := range tt.confidences {
				elements = append(elements, revai.Element{Type: "text", Value: "word", Confidence: c})
			}

			report := Score(transcriptOf(elements...), media.QualityReport{})
			if report.QualityRating != tt.rating {
				t.Errorf("rating = %q, want %q", report.QualityRating, tt.rating)
			}
		})
	}
}

func TestScoreWarnings(t *testing.T) {
	// Every word uncertain: both warnings fire.
	tr := transcriptOf(
		revai.Element{Type: "text", Value: "um", Confidence: 0.5},
		revai.Element{Type: "text", Value: "maybe", Confidence: 0.6},
	)

	report := Score(tr, media.QualityReport{})
	if len(report.Warnings) != 2 {
		t.Fatalf("warnings = %v, want low-confidence and uncertain-words", report.Warnings)
	}
	if report.Warnings[0] != "Low overall confidence score" {
		t.Errorf("first warning = %q", report.Warnings[0])
	}
	if report.Warnings[1] != "High number of uncertain words" {
		t.Errorf("second warning = %q", report.Warnings[1])
	}

	// High confidence everywhere: no warnings.
	clean := Score(transcriptOf(
		revai.Element{Type: "text", Value: "clear", Confidence: 0.97},
		revai.Element{Type: "text", Value: "speech", Confidence: 0.96},
	), media.QualityReport{})
	if len(clean.Warnings) != 0 {
		t.Errorf("unexpected warnings %v", clean.Warnings)
	}
}

func TestScoreEmptyTranscript(t *testing.T) {
	report := Score(&revai.Transcript{}, media.QualityReport{QualityLevel: types.TierUnknown})

	if report.TotalWords != 0 || report.OverallConfidence != 0 {
		t.Errorf("expected zero totals, got %+v", report)
	}
	if report.QualityRating != types.RatingPoor {
		t.Errorf("rating = %q, want poor", report.QualityRating)
	}
	// Zero confidence still warns, but the uncertain-words fraction must not
	// divide by zero.
	if len(report.Warnings) != 1 || report.Warnings[0] != "Low overall confidence score" {
		t.Errorf("warnings = %v", report.Warnings)
	}
}

func TestPendingReport(t *testing.T) {
	mq := media.QualityReport{QualityLevel: types.TierMedium, Format: "mp3"}

	report := Pending(types.StatusInProgress, mq)

	if report.Status != types.StatusInProgress {
		t.Errorf("status = %q", report.Status)
	}
	if report.Message != "Transcript not ready yet" {
		t.Errorf("message = %q", report.Message)
	}
	if report.MediaQuality.Format != "mp3" {
		t.Errorf("media quality not carried: %+v", report.MediaQuality)
	}
}
