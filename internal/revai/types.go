package revai

import (
	"encoding/json"
	"strings"
)

// JobMetadata correlates a provider job back to the survey answer that
// produced it. The provider stores it verbatim and echoes it in job details
// and callbacks.
type JobMetadata struct {
	Email         string `json:"email,omitempty"`
	Question      string `json:"question,omitempty"`
	InteractionID string `json:"interaction_id,omitempty"`
	AnswerID      string `json:"answer_id,omitempty"`
	ShareID       string `json:"share_id,omitempty"`
	AnswerType    string `json:"answer_type,omitempty"`
	ContactName   string `json:"contact_name,omitempty"`
}

// NotificationConfig asks the provider to push a completion callback.
type NotificationConfig struct {
	URL    string `json:"url"`
	Method string `json:"method,omitempty"`
}

// SubmitRequest is the job submission payload.
type SubmitRequest struct {
	MediaURL           string              `json:"media_url"`
	Metadata           JobMetadata         `json:"metadata"`
	NotificationConfig *NotificationConfig `json:"notification_config,omitempty"`

	// AwaitCompletion marks that the caller will poll synchronously. It is
	// validation-only and never sent to the provider.
	AwaitCompletion bool `json:"-"`
}

// Job mirrors the provider's job resource.
type Job struct {
	ID            string      `json:"id"`
	Status        string      `json:"status"`
	CreatedOn     string      `json:"created_on,omitempty"`
	CompletedOn   string      `json:"completed_on,omitempty"`
	MediaURL      string      `json:"media_url,omitempty"`
	Metadata      JobMetadata `json:"metadata,omitempty"`
	Failure       string      `json:"failure,omitempty"`
	FailureDetail string      `json:"failure_detail,omitempty"`
}

// Element is one token of a transcript: a recognized word with confidence
// and timing, or a punctuation mark.
type Element struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Timestamp  float64 `json:"ts,omitempty"`
	EndTs      float64 `json:"end_ts,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Monologue is a contiguous run of elements from one speaker.
type Monologue struct {
	Speaker  int       `json:"speaker"`
	Elements []Element `json:"elements"`
}

// Transcript is the provider's completed transcript resource.
type Transcript struct {
	Monologues []Monologue `json:"monologues"`
}

// Text flattens the transcript into plain text, separating words with
// spaces and gluing punctuation to the preceding word.
func (t *Transcript) Text() string {
	var b strings.Builder
	for _, m := range t.Monologues {
		for _, el := range m.Elements {
			switch el.Type {
			case "text":
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(el.Value)
			case "punct":
				if strings.TrimSpace(el.Value) == "" {
					continue
				}
				b.WriteString(el.Value)
			}
		}
	}
	return b.String()
}

// Callback is the push notification the provider sends when a job reaches a
// terminal status. Some provider configurations embed the transcript.
type Callback struct {
	Job        Job         `json:"job"`
	Transcript *Transcript `json:"transcript,omitempty"`
}

// ParseCallback decodes a callback payload. The job identifier is the only
// required field.
func ParseCallback(payload []byte) (*Callback, error) {
	var cb Callback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, &ProviderError{Op: "parse_callback", Detail: "malformed callback payload: " + err.Error()}
	}
	if cb.Job.ID == "" {
		return nil, &ProviderError{Op: "parse_callback", Detail: "callback payload missing job id"}
	}
	return &cb, nil
}
