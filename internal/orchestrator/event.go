package orchestrator

import (
	"encoding/json"
	"fmt"
)

// WebhookEvent is the survey platform's form_response payload. Older
// deliveries carry answers at the top level; newer ones nest them under the
// contact. Both shapes are accepted.
type WebhookEvent struct {
	EventType     string   `json:"event_type"`
	EventID       string   `json:"event_id"`
	InteractionID string   `json:"interaction_id"`
	Contact       Contact  `json:"contact"`
	Answers       []Answer `json:"answers"`
	Form          Form     `json:"form"`
}

// Contact identifies the respondent.
type Contact struct {
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	Answers []Answer `json:"answers"`
}

// Answer is one response item; media answers carry a media URL.
type Answer struct {
	QuestionID        string `json:"question_id"`
	AnswerID          string `json:"answer_id"`
	ShareID           string `json:"share_id"`
	Type              string `json:"type"`
	MediaURL          string `json:"media_url"`
	PollOptionContent string `json:"poll_option_content"`
}

// Form describes the survey the response belongs to.
type Form struct {
	FormID    string         `json:"form_id"`
	Questions []FormQuestion `json:"questions"`
}

// FormQuestion carries the question text for label resolution.
type FormQuestion struct {
	QuestionID string           `json:"question_id"`
	Metadata   QuestionMetadata `json:"metadata"`
}

type QuestionMetadata struct {
	Text string `json:"text"`
}

// ParseWebhookEvent decodes a platform form-response payload.
func ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("malformed webhook payload: %w", err)
	}
	return &event, nil
}

// IsProviderCallback reports whether the payload is a provider job envelope
// rather than a platform form response.
func IsProviderCallback(payload []byte) bool {
	var probe struct {
		Job json.RawMessage `json:"job"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		return false
	}
	return len(probe.Job) > 0 && string(probe.Job) != "null"
}

// MediaAnswers returns the answers carrying a media URL, from whichever
// payload shape the platform used.
func (e *WebhookEvent) MediaAnswers() []Answer {
	answers := e.Answers
	if len(answers) == 0 {
		answers = e.Contact.Answers
	}

	media := make([]Answer, 0, len(answers))
	for _, a := range answers {
		if a.MediaURL != "" {
			media = append(media, a)
		}
	}
	return media
}

// QuestionLabel resolves the question text for an answer: the form question
// matched by id, then the answer's poll option, then a fixed fallback.
func (e *WebhookEvent) QuestionLabel(a Answer) string {
	if a.QuestionID != "" {
		for _, q := range e.Form.Questions {
			if q.QuestionID == a.QuestionID && q.Metadata.Text != "" {
				return q.Metadata.Text
			}
		}
	}
	if a.PollOptionContent != "" {
		return a.PollOptionContent
	}
	return "Unknown Question"
}
