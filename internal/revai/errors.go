package revai

import (
	"fmt"
	"net/http"
	"time"
)

// ConfigurationError reports a missing credential or completion path.
// It is never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration: " + e.Reason
}

// ProviderError is a structured response indicating a failed provider call.
// Status 0 means the call never produced an HTTP response.
type ProviderError struct {
	Op     string
	Status int
	Detail string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("revai: %s: status=%d: %s", e.Op, e.Status, e.Detail)
}

// Transient reports whether retrying the call could plausibly succeed.
func (e *ProviderError) Transient() bool {
	return e.Status == 0 || e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// TimeoutError reports that a synchronous wait hit its ceiling before the
// job reached a terminal status.
type TimeoutError struct {
	JobID  string
	Waited time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("transcription job %s did not complete within %s", e.JobID, e.Waited)
}

// JobFailedError reports a terminal provider-side job failure.
type JobFailedError struct {
	JobID   string
	Failure string
	Detail  string
}

func (e *JobFailedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("transcription job %s failed: %s: %s", e.JobID, e.Failure, e.Detail)
	}
	return fmt.Sprintf("transcription job %s failed: %s", e.JobID, e.Failure)
}
