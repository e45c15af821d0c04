package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/pawshaus/pawshaus/internal/crm"
	jobmetrics "github.com/pawshaus/pawshaus/internal/jobs"
)

// ContactUpserter syncs one owner contact. Satisfied by *crm.Client.
type ContactUpserter interface {
	UpsertContact(ctx context.Context, contact crm.Contact) error
}

// CRMSyncJob mirrors owner contact details into the CRM after booking changes.
type CRMSyncJob struct {
	CRM     ContactUpserter
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCRMSyncJob wires dependencies for the contact-sync handler.
func NewCRMSyncJob(client ContactUpserter, logger *slog.Logger, metrics *jobmetrics.Metrics) *CRMSyncJob {
	return &CRMSyncJob{CRM: client, Logger: logger, Metrics: metrics}
}

func (j *CRMSyncJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *CRMSyncJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

// Handle processes TaskTypeCRMSync tasks.
func (j *CRMSyncJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.CRM == nil {
		return errors.New("crm sync: handler not configured")
	}
	var payload CRMSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Email == "" {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskTypeCRMSync)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	contact := crm.Contact{
		Email:       payload.Email,
		Name:        payload.Name,
		Phone:       payload.Phone,
		DogName:     payload.DogName,
		LastBooking: payload.LastBooking,
	}
	if err := j.CRM.UpsertContact(ctx, contact); err != nil {
		resultErr = err
		j.logger().Error("sync crm contact", slog.String("email", payload.Email), slog.Any("error", err))
		return resultErr
	}

	j.logger().Info("synced crm contact", slog.String("email", payload.Email))
	return nil
}
