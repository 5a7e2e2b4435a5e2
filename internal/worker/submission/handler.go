// Package submission hosts the job worker that feeds intake-form
// submissions from the workflow engine into the reconciliation engine.
package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"intake-reconciler/internal/common/camunda"
	"intake-reconciler/internal/common/config"
	"intake-reconciler/internal/common/errors"
	"intake-reconciler/internal/common/logger"
	"intake-reconciler/internal/common/metrics"
	"intake-reconciler/internal/common/observability"
	"intake-reconciler/internal/engine"
	"intake-reconciler/internal/models"
	"intake-reconciler/internal/notify"
	"intake-reconciler/internal/search"
	"intake-reconciler/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "intake.submission.process"

type Handler struct {
	config    *Config
	logger    logger.Logger
	camunda   *camunda.Client
	engine    *engine.Engine
	records   store.RecordStore
	notifier  *notify.Notifier
	indexer   *search.Indexer
	obs       *observability.Observability
	jobWorker worker.JobWorker
}

type HandlerOptions struct {
	AppConfig     *config.Config
	Camunda       *camunda.Client
	CustomConfig  *Config
	Engine        *engine.Engine
	Records       store.RecordStore
	Notifier      *notify.Notifier
	Indexer       *search.Indexer
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for submission worker: %w", err)
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("submission worker requires a reconciliation engine")
	}
	if opts.Records == nil {
		return nil, fmt.Errorf("submission worker requires a record store")
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}

	return &Handler{
		config:   workerConfig,
		logger:   loggerInstance,
		camunda:  opts.Camunda,
		engine:   opts.Engine,
		records:  opts.Records,
		notifier: opts.Notifier,
		indexer:  opts.Indexer,
		obs:      opts.Observability,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing submission job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"worker":             TaskType,
	})

	input, err := h.parseInput(job)
	if err != nil {
		errorCode := extractErrorCode(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		errorCode := extractErrorCode(err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

// Execute runs the reconciliation for one parsed submission and fires the
// best-effort side effects. Exposed for direct use in tests.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	startTime := time.Now()

	sub := &models.Submission{
		KindID:     input.KindID,
		Fields:     input.Fields,
		ReceivedAt: time.Now().UTC(),
	}

	outcome, err := h.engine.Reconcile(ctx, sub)
	if err != nil {
		return nil, err
	}

	if !outcome.Rejected() {
		h.afterReconcile(ctx, outcome)
	}

	if h.obs != nil {
		h.obs.RecordSubmission(ctx, string(outcome.Action))
		h.obs.RecordSubmissionDuration(ctx, time.Since(startTime), string(outcome.Action))
	}

	return &Output{
		Action:         string(outcome.Action),
		Key:            outcome.Key,
		RecordID:       outcome.RecordID,
		Status:         outcome.NewStatus,
		PreviousStatus: outcome.PreviousStatus,
		Rejected:       outcome.Rejected(),
		Errors:         outcome.Errors,
	}, nil
}

// afterReconcile runs the notification and index side effects. Both are
// best effort: the record mutation already committed.
func (h *Handler) afterReconcile(ctx context.Context, outcome *models.Outcome) {
	rec, err := h.records.FindByKey(ctx, outcome.Key)
	if err != nil {
		h.logger.Warn("post-reconcile record fetch failed", map[string]interface{}{
			"key":    outcome.Key,
			"error":  err.Error(),
			"worker": TaskType,
		})
		return
	}

	if h.notifier != nil {
		h.notifier.NotifyOutcome(ctx, outcome, rec)
	}

	if h.indexer != nil {
		if err := h.indexer.IndexRecord(ctx, rec); err != nil {
			h.logger.Warn("record indexing failed", map[string]interface{}{
				"recordId": rec.ID,
				"error":    err.Error(),
				"worker":   TaskType,
			})
		}
	}
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInputParsingFailedError(err)
	}
	if input.KindID == "" {
		return nil, errors.NewInputParsingFailedError(fmt.Errorf("kindId is required"))
	}
	return &input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": TaskType,
		})
		return
	}

	_, err = request.Send(ctx)
	if err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": TaskType,
		})
	} else {
		h.logger.Info("Submission job completed", map[string]interface{}{
			"jobKey":   job.GetKey(),
			"action":   output.Action,
			"recordId": output.RecordID,
			"rejected": output.Rejected,
			"worker":   TaskType,
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := convertToStandardError(err)
	bpmnErr := errors.ConvertToBPMNError(stdErr)

	h.logger.Error("Submission job failed", map[string]interface{}{
		"jobKey":       job.GetKey(),
		"errorCode":    bpmnErr.Code,
		"errorMessage": bpmnErr.Message,
		"retryable":    bpmnErr.Retryable,
		"retries":      bpmnErr.Retries,
		"worker":       TaskType,
	})

	failCmd := client.NewFailJobCommand().
		JobKey(job.GetKey()).
		Retries(int32(bpmnErr.Retries)).
		ErrorMessage(fmt.Sprintf("[%s] %s", bpmnErr.Code, bpmnErr.Message))

	var finalCmd interface {
		Send(context.Context) (*pb.FailJobResponse, error)
	}
	if len(bpmnErr.ErrorVariables) > 0 {
		varCmd, varErr := failCmd.VariablesFromMap(bpmnErr.ToErrorVariables())
		if varErr != nil {
			h.logger.Error("Failed to set error variables, sending without them", map[string]interface{}{
				"jobKey": job.GetKey(),
				"error":  varErr.Error(),
				"worker": TaskType,
			})
			finalCmd = failCmd
		} else {
			finalCmd = varCmd
		}
	} else {
		finalCmd = failCmd
	}

	_, failErr := finalCmd.Send(ctx)
	if failErr != nil {
		h.logger.Error("Failed to report job failure to Camunda", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  failErr.Error(),
			"worker": TaskType,
		})
	}
}

func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", map[string]interface{}{
			"worker": TaskType,
		})
		return nil
	}

	zeebeClient := h.camunda.GetClient()

	h.jobWorker = zeebeClient.NewJobWorker().
		JobType(TaskType).
		Handler(h.Handle).
		MaxJobsActive(h.config.MaxJobsActive).
		Timeout(h.config.Timeout).
		Name(fmt.Sprintf("%s-worker", TaskType)).
		Open()

	h.logger.Info("Submission worker registered with Camunda", map[string]interface{}{
		"taskType":      TaskType,
		"maxJobsActive": h.config.MaxJobsActive,
		"timeout":       h.config.Timeout.String(),
		"enabled":       h.config.Enabled,
	})

	return nil
}

func (h *Handler) Close() {
	if h.jobWorker != nil {
		h.logger.Info("Shutting down worker gracefully", map[string]interface{}{
			"worker": TaskType,
		})
		h.jobWorker.Close()
		h.jobWorker = nil
	}
}

func (h *Handler) HealthCheck(ctx context.Context) error {
	if h.camunda == nil {
		return fmt.Errorf("camunda client not configured")
	}
	if err := h.camunda.HealthCheck(ctx); err != nil {
		return fmt.Errorf("camunda health check failed: %w", err)
	}
	return nil
}

func convertToStandardError(err error) *errors.StandardError {
	if stdErr, ok := err.(*errors.StandardError); ok {
		return stdErr
	}
	return &errors.StandardError{
		Code:      "INTERNAL_ERROR",
		Message:   "Unexpected error during submission processing",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func extractErrorCode(err error) string {
	if stdErr, ok := err.(*errors.StandardError); ok {
		return string(stdErr.Code)
	}
	return "INTERNAL_ERROR"
}
