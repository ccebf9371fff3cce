package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Cordycepsers/final-transcript/internal/logger"
	"github.com/Cordycepsers/final-transcript/internal/types"
)

func newTestEstimator() *QualityEstimator {
	return NewQualityEstimator(2*time.Second, logger.New())
}

func TestAnalyzeTiers(t *testing.T) {
	// Sizes chosen so size*8/(180*1000) lands in the intended band.
	tests := []struct {
		name        string
		filename    string
		size        int64
		tier        string
		mediaType   string
		wantWarning bool
	}{
		{"mp3 high", "clip.mp3", 4320000, types.TierHigh, types.MediaAudio, false},
		{"mp3 medium", "clip.mp3", 2880000, types.TierMedium, types.MediaAudio, false},
		{"mp3 low", "clip.mp3", 1000000, types.TierLow, types.MediaAudio, true},
		{"aac high", "clip.aac", 5760000, types.TierHigh, types.MediaAudio, false},
		{"mp4 high", "clip.mp4", 49320000, types.TierHigh, types.MediaVideo, false},
		{"mp4 low", "clip.mp4", 9000000, types.TierLow, types.MediaVideo, true},
		{"no band table", "clip.wav", 4320000, types.TierUnknown, types.MediaAudio, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodHead {
					t.Errorf("expected HEAD probe, got %s", r.Method)
				}
				w.Header().Set("Content-Length", strconv.FormatInt(tt.size, 10))
			}))
			defer server.Close()

			report := newTestEstimator().Analyze(context.Background(), server.URL+"/"+tt.filename)

			if report.QualityLevel != tt.tier {
				t.Errorf("quality level = %q, want %q", report.QualityLevel, tt.tier)
			}
			if report.MediaType != tt.mediaType {
				t.Errorf("media type = %q, want %q", report.MediaType, tt.mediaType)
			}
			if tt.wantWarning && len(report.Warnings) == 0 {
				t.Error("expected a low-quality warning")
			}
			if !tt.wantWarning && len(report.Warnings) != 0 {
				t.Errorf("unexpected warnings %v", report.Warnings)
			}
		})
	}
}

func TestAnalyzeBitrateEstimate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4320000")
	}))
	defer server.Close()

	report := newTestEstimator().Analyze(context.Background(), server.URL+"/clip.mp3")
	if report.BitrateKbps != 192.0 {
		t.Errorf("bitrate = %v kbps, want 192", report.BitrateKbps)
	}
	if report.Format != "mp3" {
		t.Errorf("format = %q, want mp3", report.Format)
	}
}

func TestAnalyzeLowWarningNamesRecommendedMinimum(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000000")
	}))
	defer server.Close()

	report := newTestEstimator().Analyze(context.Background(), server.URL+"/clip.mp3")
	if len(report.Warnings) != 2 {
		t.Fatalf("expected two warnings, got %v", report.Warnings)
	}
	if report.Warnings[0] != "Low quality audio file may result in poor transcription" {
		t.Errorf("first warning = %q", report.Warnings[0])
	}
	if report.Warnings[1] != "Recommended minimum bitrate: 128 kbps" {
		t.Errorf("second warning = %q", report.Warnings[1])
	}
}

func TestAnalyzeLowVideoWarningNamesBothTracks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "9000000")
	}))
	defer server.Close()

	report := newTestEstimator().Analyze(context.Background(), server.URL+"/clip.mp4")
	if len(report.Warnings) != 2 {
		t.Fatalf("expected two warnings, got %v", report.Warnings)
	}
	if !strings.Contains(report.Warnings[1], "Audio 128 kbps") || !strings.Contains(report.Warnings[1], "Video 1000 kbps") {
		t.Errorf("recommendation should name both track minimums, got %q", report.Warnings[1])
	}
}

func TestAnalyzeSoftFailures(t *testing.T) {
	t.Run("http error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		report := newTestEstimator().Analyze(context.Background(), server.URL+"/clip.mp3")
		assertUnknownWithWarning(t, report)
	})

	t.Run("unreachable host", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL + "/clip.mp3"
		server.Close()

		report := newTestEstimator().Analyze(context.Background(), url)
		assertUnknownWithWarning(t, report)
	})

	t.Run("missing content length", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		report := newTestEstimator().Analyze(context.Background(), server.URL+"/clip.mp3")
		assertUnknownWithWarning(t, report)
	})
}

func TestAnalyzeURLWithoutExtension(t *testing.T) {
	report := newTestEstimator().Analyze(context.Background(), "https://media.example.com/answers/raw")

	if report.QualityLevel != types.TierUnknown {
		t.Errorf("quality level = %q, want unknown", report.QualityLevel)
	}
	if len(report.Warnings) != 1 || report.Warnings[0] != unknownFormatWarning {
		t.Errorf("expected %q warning, got %v", unknownFormatWarning, report.Warnings)
	}
}

func assertUnknownWithWarning(t *testing.T, report QualityReport) {
	t.Helper()
	if report.QualityLevel != types.TierUnknown {
		t.Errorf("quality level = %q, want unknown", report.QualityLevel)
	}
	if len(report.Warnings) == 0 || report.Warnings[0] != analyzeFailedWarning {
		t.Errorf("expected %q warning, got %v", analyzeFailedWarning, report.Warnings)
	}
}
