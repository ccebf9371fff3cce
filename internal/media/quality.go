package media

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/Cordycepsers/final-transcript/internal/logger"
	"github.com/Cordycepsers/final-transcript/internal/types"
)

// Survey answers are short; bitrate is estimated against a fixed assumed
// duration rather than probing the container.
const assumedDurationSeconds = 180

const (
	analyzeFailedWarning  = "Could not analyze media quality"
	unknownFormatWarning  = "Could not determine media type"
	lowQualityWarningTmpl = "Low quality %s file may result in poor transcription"
	audioMinimumTmpl      = "Recommended minimum bitrate: %s kbps"
	videoMinimumTmpl      = "Recommended minimum bitrate: Audio %s kbps, Video %s kbps"
)

// QualityReport describes the estimated source-media quality for a URL.
type QualityReport struct {
	QualityLevel string   `json:"quality_level"`
	MediaType    string   `json:"media_type,omitempty"`
	Format       string   `json:"format,omitempty"`
	BitrateKbps  float64  `json:"bitrate_kbps,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Audio bands are flat bitrate thresholds in kbps.
type audioBand struct {
	high   float64
	medium float64
	low    float64
}

// Video bands pair audio and video track rates; tiers compare against the
// summed rate.
type rate struct {
	audio float64
	video float64
}

func (r rate) total() float64 { return r.audio + r.video }

type videoBand struct {
	high   rate
	medium rate
	low    rate
}

var audioBands = map[string]audioBand{
	"mp3": {high: 192, medium: 128, low: 64},
	"aac": {high: 256, medium: 192, low: 128},
}

var videoBands = map[string]videoBand{
	"mp4": {
		high:   rate{audio: 192, video: 2000},
		medium: rate{audio: 128, video: 1000},
		low:    rate{audio: 96, video: 500},
	},
}

// QualityEstimator infers a coarse quality tier from the size a media host
// reports for a URL. Failures never propagate; callers always get a report.
type QualityEstimator struct {
	client *http.Client
	log    *logger.Logger
}

// NewQualityEstimator creates an estimator with its own probe client.
func NewQualityEstimator(timeout time.Duration, log *logger.Logger) *QualityEstimator {
	return &QualityEstimator{
		client: &http.Client{Timeout: timeout},
		log:    log.WithComponent("media_quality"),
	}
}

// Analyze probes the URL with a HEAD request and maps the estimated bitrate
// against the per-format bands. Unknown formats and any probe failure yield
// the unknown tier with a warning, never an error.
func (e *QualityEstimator) Analyze(ctx context.Context, mediaURL string) QualityReport {
	report := QualityReport{QualityLevel: types.TierUnknown}

	format := FormatFromURL(mediaURL)
	if format == "" {
		report.Warnings = append(report.Warnings, unknownFormatWarning)
		return report
	}
	report.Format = format
	report.MediaType = mediaTypeFor(format)

	length, ok := e.probeLength(ctx, mediaURL)
	if !ok {
		report.Warnings = append(report.Warnings, analyzeFailedWarning)
		return report
	}

	bitrate := float64(length) * 8 / (assumedDurationSeconds * 1000)
	report.BitrateKbps = math.Round(bitrate*10) / 10

	switch report.MediaType {
	case types.MediaVideo:
		b, ok := videoBands[format]
		if !ok {
			// No band table for this format; tier stays unknown.
			return report
		}
		switch {
		case bitrate >= b.high.total():
			report.QualityLevel = types.TierHigh
		case bitrate >= b.medium.total():
			report.QualityLevel = types.TierMedium
		default:
			report.QualityLevel = types.TierLow
			report.Warnings = append(report.Warnings,
				fmt.Sprintf(lowQualityWarningTmpl, report.MediaType),
				fmt.Sprintf(videoMinimumTmpl, kbps(b.medium.audio), kbps(b.medium.video)))
		}
	default:
		b, ok := audioBands[format]
		if !ok {
			return report
		}
		switch {
		case bitrate >= b.high:
			report.QualityLevel = types.TierHigh
		case bitrate >= b.medium:
			report.QualityLevel = types.TierMedium
		default:
			report.QualityLevel = types.TierLow
			report.Warnings = append(report.Warnings,
				fmt.Sprintf(lowQualityWarningTmpl, report.MediaType),
				fmt.Sprintf(audioMinimumTmpl, kbps(b.medium)))
		}
	}
	return report
}

func (e *QualityEstimator) probeLength(ctx context.Context, mediaURL string) (int64, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, mediaURL, nil)
	if err != nil {
		e.log.WithError(err).WithField("media_url", mediaURL).Warn("media probe request failed")
		return 0, false
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.log.WithError(err).WithField("media_url", mediaURL).Warn("media probe failed")
		return 0, false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		e.log.WithField("media_url", mediaURL).
			WithField("status", resp.StatusCode).Warn("media probe rejected")
		return 0, false
	}
	if resp.ContentLength <= 0 {
		return 0, false
	}
	return resp.ContentLength, true
}

func mediaTypeFor(format string) string {
	switch format {
	case "mp4", "mov", "webm", "mkv", "avi":
		return types.MediaVideo
	default:
		return types.MediaAudio
	}
}

func kbps(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
