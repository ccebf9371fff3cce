// Package orchestrator turns platform webhook events into tracked
// transcription jobs and reconciles their completion into stored, scored
// results. The poll and callback completion paths converge on one code path.
package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Cordycepsers/final-transcript/internal/events"
	"github.com/Cordycepsers/final-transcript/internal/logger"
	"github.com/Cordycepsers/final-transcript/internal/media"
	"github.com/Cordycepsers/final-transcript/internal/nlp"
	"github.com/Cordycepsers/final-transcript/internal/observability"
	"github.com/Cordycepsers/final-transcript/internal/quality"
	"github.com/Cordycepsers/final-transcript/internal/retry"
	"github.com/Cordycepsers/final-transcript/internal/revai"
	"github.com/Cordycepsers/final-transcript/internal/storage"
	"github.com/Cordycepsers/final-transcript/internal/types"
)

// TranscriptionClient is the narrow provider surface the orchestrator needs.
type TranscriptionClient interface {
	Submit(ctx context.Context, req revai.SubmitRequest) (*revai.Job, error)
	JobDetails(ctx context.Context, jobID string) (*revai.Job, error)
	Transcript(ctx context.Context, jobID string) (*revai.Transcript, error)
	WaitForCompletion(ctx context.Context, jobID string, maxWait time.Duration) (*revai.Job, error)
}

// Config carries the orchestrator's collaborators. Ledger and Publisher are
// optional; everything else is required.
type Config struct {
	Client      TranscriptionClient
	Store       storage.Store
	Ledger      *storage.Ledger
	Publisher   *events.Publisher
	Validator   *media.Validator
	Estimator   *media.QualityEstimator
	Analyzer    *nlp.Analyzer
	Retry       retry.Policy
	CallbackURL string
	MaxWait     time.Duration
	Metrics     *observability.Metrics
	Logger      *logger.Logger
}

// Orchestrator is the pipeline conductor: it accepts webhook events,
// callbacks, and manual requests, tracks jobs through the provider, merges
// quality signals, and dispatches final records to the result store.
type Orchestrator struct {
	client      TranscriptionClient
	store       storage.Store
	ledger      *storage.Ledger
	publisher   *events.Publisher
	validator   *media.Validator
	estimator   *media.QualityEstimator
	analyzer    *nlp.Analyzer
	retry       retry.Policy
	callbackURL string
	maxWait     time.Duration
	metrics     *observability.Metrics
	log         *logger.Logger
}

func New(cfg Config) *Orchestrator {
	if cfg.Metrics == nil {
		cfg.Metrics = observability.Default
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.New()
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = 300 * time.Second
	}
	return &Orchestrator{
		client:      cfg.Client,
		store:       cfg.Store,
		ledger:      cfg.Ledger,
		publisher:   cfg.Publisher,
		validator:   cfg.Validator,
		estimator:   cfg.Estimator,
		analyzer:    cfg.Analyzer,
		retry:       cfg.Retry,
		callbackURL: cfg.CallbackURL,
		maxWait:     cfg.MaxWait,
		metrics:     cfg.Metrics,
		log:         cfg.Logger.WithComponent("orchestrator"),
	}
}

// ItemError is one failed item in a webhook or batch response.
type ItemError struct {
	MediaURL string `json:"media_url"`
	Error    string `json:"error"`
}

// WebhookResult is the webhook response body. Errors is always present,
// empty when every answer was accepted.
type WebhookResult struct {
	Status string      `json:"status"`
	Errors []ItemError `json:"errors"`
}

// QualityMetrics merges the acoustic quality report with the linguistic
// signals into the one object that is stored and returned.
type QualityMetrics struct {
	quality.Report
	NLPQualityScore     float64      `json:"nlp_quality_score"`
	EnhancementWarnings []string     `json:"enhancement_warnings"`
	ContentAnalysis     nlp.Analysis `json:"content_analysis"`
}

// CompletedResult is the outcome of reconciling one finished job.
type CompletedResult struct {
	JobID          string
	Transcript     string
	QualityMetrics QualityMetrics
	Stored         bool
}

// ProcessWebhook submits a transcription job for every media answer in the
// event. Per-answer failures are collected, never aborting the batch.
func (o *Orchestrator) ProcessWebhook(ctx context.Context, event *WebhookEvent) WebhookResult {
	o.metrics.RecordWebhook()

	result := WebhookResult{Status: "processed", Errors: []ItemError{}}

	answers := event.MediaAnswers()
	if len(answers) == 0 {
		o.log.WithField("event_type", event.EventType).Debug("Webhook carried no media answers")
		return result
	}

	for _, answer := range answers {
		question := event.QuestionLabel(answer)
		if err := o.submitAnswer(ctx, event, answer, question); err != nil {
			o.log.WithError(err).WithField("media_url", answer.MediaURL).Warn("Failed to submit media answer")
			result.Errors = append(result.Errors, ItemError{MediaURL: answer.MediaURL, Error: err.Error()})
		}
	}
	return result
}

func (o *Orchestrator) submitAnswer(ctx context.Context, event *WebhookEvent, answer Answer, question string) error {
	if ok, reason := o.validator.Validate(answer.MediaURL); !ok {
		return &media.ValidationError{Reason: reason}
	}
	if event.Contact.Email == "" {
		return &media.ValidationError{Reason: "contact email is required"}
	}

	req := revai.SubmitRequest{
		MediaURL: answer.MediaURL,
		Metadata: revai.JobMetadata{
			Email:         event.Contact.Email,
			Question:      question,
			InteractionID: event.InteractionID,
			AnswerID:      answer.AnswerID,
			ShareID:       answer.ShareID,
			AnswerType:    answer.Type,
			ContactName:   event.Contact.Name,
		},
		NotificationConfig: o.notification(),
	}

	job, err := o.submitWithRetry(ctx, req)
	if err != nil {
		return err
	}
	o.metrics.RecordJobSubmitted()
	o.log.WithFields(map[string]interface{}{
		"job_id":   job.ID,
		"email":    event.Contact.Email,
		"question": question,
	}).Info("Submitted transcription job")
	return nil
}

// HandleCallback reconciles a provider push notification. Completed jobs are
// scored, enhanced, and stored; failed jobs surface their failure detail
// without storing anything.
func (o *Orchestrator) HandleCallback(ctx context.Context, cb *revai.Callback) error {
	o.metrics.RecordCallback()
	log := o.log.WithField("job_id", cb.Job.ID)

	switch cb.Job.Status {
	case types.StatusFailed:
		o.metrics.RecordJobFailed()
		log.WithField("failure", cb.Job.Failure).Warn("Transcription job failed")
		return &revai.JobFailedError{JobID: cb.Job.ID, Failure: cb.Job.Failure, Detail: cb.Job.FailureDetail}
	case types.StatusCompleted:
	default:
		log.WithField("status", cb.Job.Status).Debug("Ignoring non-terminal callback")
		return nil
	}

	o.metrics.RecordJobCompleted()

	// The transcript is re-fetched so callback and poll paths see the same
	// provider state; an embedded copy is only a fallback when the fetch
	// fails.
	tr, err := o.client.Transcript(ctx, cb.Job.ID)
	if err != nil {
		if cb.Transcript == nil {
			return err
		}
		log.WithError(err).Warn("Transcript fetch failed, using callback copy")
		tr = cb.Transcript
	}

	_, err = o.finishJob(ctx, &cb.Job, tr)
	return err
}

// TranscribeRequest is one manual submission.
type TranscribeRequest struct {
	MediaURL          string `json:"media_url"`
	Email             string `json:"email"`
	Question          string `json:"question"`
	WaitForCompletion bool   `json:"wait_for_completion"`
	MaxWaitTime       int    `json:"max_wait_time"`
}

// TranscribeResponse reports a manual submission outcome. Transcript,
// QualityMetrics, and Stored are set only when the job was awaited to
// completion.
type TranscribeResponse struct {
	Status         string          `json:"status"`
	JobID          string          `json:"job_id"`
	Message        string          `json:"message,omitempty"`
	Transcript     string          `json:"transcript,omitempty"`
	QualityMetrics *QualityMetrics `json:"quality_metrics,omitempty"`
	Stored         *bool           `json:"stored,omitempty"`
}

// Transcribe submits one manual request, optionally waiting for completion
// and storing the result inline before returning.
func (o *Orchestrator) Transcribe(ctx context.Context, req TranscribeRequest) (*TranscribeResponse, error) {
	question := req.Question
	if question == "" {
		question = "Manual request"
	}
	maxWait := o.maxWait
	if req.MaxWaitTime > 0 {
		maxWait = time.Duration(req.MaxWaitTime) * time.Second
	}

	submit := revai.SubmitRequest{
		MediaURL:           req.MediaURL,
		Metadata:           revai.JobMetadata{Email: req.Email, Question: question},
		NotificationConfig: o.notification(),
		AwaitCompletion:    req.WaitForCompletion,
	}

	job, err := o.submitWithRetry(ctx, submit)
	if err != nil {
		return nil, err
	}
	o.metrics.RecordJobSubmitted()

	if !req.WaitForCompletion {
		return &TranscribeResponse{
			Status:  job.Status,
			JobID:   job.ID,
			Message: "Transcription job submitted successfully",
		}, nil
	}

	done, err := o.client.WaitForCompletion(ctx, job.ID, maxWait)
	if err != nil {
		var failed *revai.JobFailedError
		if errors.As(err, &failed) {
			o.metrics.RecordJobFailed()
		}
		return nil, err
	}
	o.metrics.RecordJobCompleted()
	fillJobContext(done, req.MediaURL, req.Email, question)

	tr, err := o.client.Transcript(ctx, done.ID)
	if err != nil {
		return nil, err
	}

	result, err := o.finishJob(ctx, done, tr)
	if err != nil {
		return nil, err
	}
	return &TranscribeResponse{
		Status:         types.StatusCompleted,
		JobID:          done.ID,
		Transcript:     result.Transcript,
		QualityMetrics: &result.QualityMetrics,
		Stored:         &result.Stored,
	}, nil
}

// BatchItem is one entry of a batch submission.
type BatchItem struct {
	MediaURL string `json:"media_url"`
	Email    string `json:"email"`
	Question string `json:"question"`
}

// BatchItemResult reports one batch entry outcome.
type BatchItemResult struct {
	MediaURL string `json:"media_url"`
	JobID    string `json:"job_id,omitempty"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// BatchResult summarizes a batch submission.
type BatchResult struct {
	Results []BatchItemResult `json:"results"`
	Total   int               `json:"total"`
	Failed  int               `json:"failed"`
}

// TranscribeBatch validates and submits every request without waiting.
// Per-item failures never abort the batch.
func (o *Orchestrator) TranscribeBatch(ctx context.Context, items []BatchItem) BatchResult {
	results := make([]BatchItemResult, 0, len(items))
	failed := 0

	for _, item := range items {
		if msg := o.ValidateRequest(item.MediaURL, item.Email); msg != "" {
			results = append(results, BatchItemResult{MediaURL: item.MediaURL, Error: msg, Status: "error"})
			failed++
			continue
		}

		question := item.Question
		if question == "" {
			question = "Batch request"
		}

		job, err := o.submitWithRetry(ctx, revai.SubmitRequest{
			MediaURL:           item.MediaURL,
			Metadata:           revai.JobMetadata{Email: item.Email, Question: question},
			NotificationConfig: o.notification(),
		})
		if err != nil {
			o.log.WithError(err).WithField("media_url", item.MediaURL).Warn("Batch submission failed")
			results = append(results, BatchItemResult{MediaURL: item.MediaURL, Error: err.Error(), Status: "error"})
			failed++
			continue
		}
		o.metrics.RecordJobSubmitted()
		results = append(results, BatchItemResult{MediaURL: item.MediaURL, JobID: job.ID, Status: job.Status})
	}

	return BatchResult{Results: results, Total: len(results), Failed: failed}
}

// ValidateRequest checks a manual submission. The field order of the checks
// is part of the API contract: media_url presence, then format, then email.
func (o *Orchestrator) ValidateRequest(mediaURL, email string) string {
	if mediaURL == "" {
		return "media_url is required"
	}
	if ok, reason := o.validator.Validate(mediaURL); !ok {
		return reason
	}
	if email == "" {
		return "email is required"
	}
	return ""
}

// StatusResult carries the provider job state plus, for completed jobs, the
// analyzed transcript. Nothing is stored on this path.
type StatusResult struct {
	Job        *revai.Job
	Transcript string
	Metrics    *QualityMetrics
}

// JobStatus reports a job's state, analyzing the transcript when completed.
func (o *Orchestrator) JobStatus(ctx context.Context, jobID string) (*StatusResult, error) {
	job, err := o.client.JobDetails(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != types.StatusCompleted {
		return &StatusResult{Job: job}, nil
	}

	tr, err := o.client.Transcript(ctx, jobID)
	if err != nil {
		return nil, err
	}
	enhancedText, metrics, err := o.evaluate(ctx, job, tr)
	if err != nil {
		return nil, err
	}
	return &StatusResult{Job: job, Transcript: enhancedText, Metrics: &metrics}, nil
}

// TranscriptQuality recomputes the quality report for a job on demand.
// Incomplete jobs yield a status-only report with the media quality attached.
func (o *Orchestrator) TranscriptQuality(ctx context.Context, jobID string) (interface{}, error) {
	job, err := o.client.JobDetails(ctx, jobID)
	if err != nil {
		return nil, err
	}

	mediaQuality := o.estimator.Analyze(ctx, job.MediaURL)
	if job.Status != types.StatusCompleted {
		return quality.Pending(job.Status, mediaQuality), nil
	}

	tr, err := o.client.Transcript(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return quality.Score(tr, mediaQuality), nil
}

// finishJob is the single convergence point for the callback and poll
// completion paths: score, enhance, store, then record and announce.
func (o *Orchestrator) finishJob(ctx context.Context, job *revai.Job, tr *revai.Transcript) (*CompletedResult, error) {
	enhancedText, metrics, err := o.evaluate(ctx, job, tr)
	if err != nil {
		return nil, err
	}
	o.metrics.RecordQualityRating(metrics.QualityRating)

	stored := o.store.Upsert(ctx, storage.ResultRecord{
		Email:             job.Metadata.Email,
		Question:          job.Metadata.Question,
		MediaURL:          job.MediaURL,
		Transcript:        enhancedText,
		OverallConfidence: metrics.OverallConfidence,
		Warnings:          metrics.Report.Warnings,
	})
	o.metrics.RecordStoreUpsert(stored)
	if !stored {
		o.log.WithField("job_id", job.ID).Warn("Result not stored")
	} else {
		o.recordLedger(job, metrics)
		o.publishCompleted(ctx, job, metrics)
	}

	return &CompletedResult{
		JobID:          job.ID,
		Transcript:     enhancedText,
		QualityMetrics: metrics,
		Stored:         stored,
	}, nil
}

// evaluate derives the merged quality metrics and the enhanced transcript
// text for a completed job.
func (o *Orchestrator) evaluate(ctx context.Context, job *revai.Job, tr *revai.Transcript) (string, QualityMetrics, error) {
	mediaQuality := o.estimator.Analyze(ctx, job.MediaURL)
	acoustic := quality.Score(tr, mediaQuality)

	enhanced, err := o.analyzer.AnalyzeAndEnhance(tr.Text())
	if err != nil {
		return "", QualityMetrics{}, err
	}

	return enhanced.EnhancedText, QualityMetrics{
		Report:              acoustic,
		NLPQualityScore:     enhanced.QualityScore,
		EnhancementWarnings: enhanced.EnhancementWarnings,
		ContentAnalysis:     enhanced.ContentAnalysis,
	}, nil
}

func (o *Orchestrator) recordLedger(job *revai.Job, metrics QualityMetrics) {
	if o.ledger == nil {
		return
	}
	err := o.ledger.Record(storage.LedgerEntry{
		JobID:             job.ID,
		Email:             job.Metadata.Email,
		Question:          job.Metadata.Question,
		MediaURL:          job.MediaURL,
		QualityRating:     metrics.QualityRating,
		OverallConfidence: metrics.OverallConfidence,
		WordCount:         metrics.TotalWords,
		StoredAt:          time.Now().UTC(),
	})
	if err != nil {
		o.log.WithError(err).WithField("job_id", job.ID).Warn("Failed to record ledger row")
	}
}

func (o *Orchestrator) publishCompleted(ctx context.Context, job *revai.Job, metrics QualityMetrics) {
	if o.publisher == nil {
		return
	}
	// Publisher logs its own failures; a dead broker never fails the pipeline.
	_ = o.publisher.PublishCompleted(ctx, events.CompletedEvent{
		JobID:             job.ID,
		Email:             job.Metadata.Email,
		Question:          job.Metadata.Question,
		MediaURL:          job.MediaURL,
		QualityRating:     metrics.QualityRating,
		OverallConfidence: metrics.OverallConfidence,
		NLPQualityScore:   metrics.NLPQualityScore,
		StoredAt:          time.Now().UTC(),
	})
}

func (o *Orchestrator) submitWithRetry(ctx context.Context, req revai.SubmitRequest) (*revai.Job, error) {
	var job *revai.Job
	err := o.retry.Do(func() error {
		j, err := o.client.Submit(ctx, req)
		if err != nil {
			return err
		}
		job = j
		return nil
	}, func(err error) bool {
		var pe *revai.ProviderError
		return errors.As(err, &pe) && pe.Transient()
	})
	return job, err
}

func (o *Orchestrator) notification() *revai.NotificationConfig {
	if o.callbackURL == "" {
		return nil
	}
	return &revai.NotificationConfig{URL: o.callbackURL, Method: http.MethodPost}
}

// fillJobContext restores request context on provider responses that omit
// echoed fields, so storage always sees the original email and question.
func fillJobContext(job *revai.Job, mediaURL, email, question string) {
	if job.MediaURL == "" {
		job.MediaURL = mediaURL
	}
	if job.Metadata.Email == "" {
		job.Metadata.Email = email
	}
	if job.Metadata.Question == "" {
		job.Metadata.Question = question
	}
}
