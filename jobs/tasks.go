package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeLedgerPost posts a booking revenue event to the accounting ledger.
	TaskTypeLedgerPost = "ledger:post"
	// TaskTypeCRMSync upserts an owner contact in the CRM.
	TaskTypeCRMSync = "crm:sync"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// HandleSendEmailTask processes TaskTypeSendEmail tasks.
func HandleSendEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: SMTP delivery lands with the notifications phase.
	fmt.Printf("[jobs] send email to %s subject=%s\n", payload.To, payload.Subject)
	return nil
}

// LedgerPostPayload carries one accounting event derived from a booking
// change. Amount is the absolute value; EntryType says which direction.
type LedgerPostPayload struct {
	BookingID        int64           `json:"booking_id"`
	BookingReference string          `json:"booking_reference"`
	EntryType        string          `json:"entry_type"`
	Amount           decimal.Decimal `json:"amount"`
	OccurredAt       time.Time       `json:"occurred_at"`
	Memo             string          `json:"memo,omitempty"`
}

// NewLedgerPostTask constructs a ledger-post task.
func NewLedgerPostTask(payload LedgerPostPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLedgerPost, data, asynq.MaxRetry(10)), nil
}

// CRMSyncPayload carries the owner contact details to upsert.
type CRMSyncPayload struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	DogName     string `json:"dog_name,omitempty"`
	LastBooking string `json:"last_booking,omitempty"`
}

// NewCRMSyncTask constructs a CRM contact-sync task.
func NewCRMSyncTask(payload CRMSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeCRMSync, data, asynq.MaxRetry(5)), nil
}
