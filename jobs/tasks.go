package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRatesVerify checks that a day's rate snapshot has been recorded.
	TaskRatesVerify = "rates:verify"
)

// RatesVerifyPayload names the day to verify. An empty date means today.
type RatesVerifyPayload struct {
	Date string `json:"date,omitempty"`
}

// NewRatesVerifyTask constructs a rates:verify task. A zero date verifies the day the task runs.
func NewRatesVerifyTask(date time.Time) (*asynq.Task, error) {
	payload := RatesVerifyPayload{}
	if !date.IsZero() {
		payload.Date = date.Format(time.DateOnly)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobs: encode rates verify payload: %w", err)
	}
	return asynq.NewTask(TaskRatesVerify, data), nil
}
