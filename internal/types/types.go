package types

// Job status constants (provider wire values)
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Quality rating constants
const (
	RatingGood = "good"
	RatingFair = "fair"
	RatingPoor = "poor"
)

// Media quality tier constants
const (
	TierHigh    = "high"
	TierMedium  = "medium"
	TierLow     = "low"
	TierUnknown = "unknown"
)

// Media type constants
const (
	MediaAudio = "audio"
	MediaVideo = "video"
)
