package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Terminal job statuses. Exactly these three strings, case-sensitive; any
// other status keeps the poll loop running.
const (
	StatusFailed    = "failed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// DefaultRegister is the classical register results are reported under.
const DefaultRegister = "c"

// ErrJobFailed marks a job that reached the failed terminal status.
var ErrJobFailed = errors.New("api: job failed in remote backend")

// ErrJobCancelledNoResults marks a cancelled job that returned no usable results.
var ErrJobCancelledNoResults = errors.New("api: job was cancelled without returning any results")

// JobRequest is the submission payload. Immutable once submitted.
type JobRequest struct {
	Machine  string         `json:"machine"`
	Language string         `json:"language"`
	Count    int            `json:"count"`
	Options  map[string]any `json:"options"`
	Program  string         `json:"program"`
}

// JobRecord mirrors the provider's job document. It is created by the
// submission response and refreshed wholesale by each poll.
type JobRecord struct {
	ID      string              `json:"job"`
	Status  string              `json:"status"`
	Results map[string][]string `json:"results"`
}

// Terminal reports whether the job reached a state with no further transitions.
func (r *JobRecord) Terminal() bool {
	switch r.Status {
	case StatusFailed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Bitstrings returns the ordered per-shot outcomes for the default register.
func (r *JobRecord) Bitstrings() []string {
	if r.Results == nil {
		return nil
	}
	return r.Results[DefaultRegister]
}

// Submit posts the job request and returns the parsed job record.
func (c *Client) Submit(ctx context.Context, req JobRequest) (*JobRecord, error) {
	resp, raw, err := c.doJSONRequest(ctx, http.MethodPost, c.jobURL(""), req)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, raw); err != nil {
		return nil, err
	}
	var record JobRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, errors.Wrap(err, "decode job submission response failed")
	}
	if record.ID == "" {
		return nil, errors.New("api: submission response carries no job id")
	}
	log.Info().Str("job", record.ID).Str("machine", req.Machine).Int("count", req.Count).Msg("job submitted")
	return &record, nil
}

// Get retrieves the current job document.
func (c *Client) Get(ctx context.Context, jobID string) (*JobRecord, error) {
	if jobID == "" {
		return nil, errors.New("api: job id is required")
	}
	resp, raw, err := c.doJSONRequest(ctx, http.MethodGet, c.jobURL(jobID), nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, raw); err != nil {
		return nil, err
	}
	var record JobRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, errors.Wrap(err, "decode job retrieval response failed")
	}
	return &record, nil
}

// PollUntilTerminal re-fetches the job record every delay until it reaches a
// terminal status. There is no iteration bound; callers wanting a hard
// timeout cancel ctx, which is honoured between polls.
func (c *Client) PollUntilTerminal(ctx context.Context, record *JobRecord, delay time.Duration) (*JobRecord, error) {
	if record == nil {
		return nil, errors.New("api: job record is required")
	}
	if delay <= 0 {
		return nil, errors.Errorf("api: poll delay must be positive, got %v", delay)
	}
	for !record.Terminal() {
		select {
		case <-ctx.Done():
			return record, ctx.Err()
		case <-time.After(delay):
		}
		next, err := c.Get(ctx, record.ID)
		if err != nil {
			return record, err
		}
		record = next
		log.Debug().Str("job", record.ID).Str("status", record.Status).Msg("polled job")
	}
	return record, nil
}

// Extraction is the outcome of reading results off a terminal job record.
// Partial is set when a cancelled job returned fewer shots than requested;
// it is informational, not an error.
type Extraction struct {
	Bitstrings []string
	Partial    bool
}

// ExtractResults validates a terminal job record and returns its raw per-shot
// bitstrings. Failed jobs report ErrJobFailed regardless of payload;
// cancelled jobs with no results report ErrJobCancelledNoResults, while
// cancelled jobs with a short payload succeed with Partial set.
func ExtractResults(record *JobRecord, expectedShots int) (Extraction, error) {
	if record == nil {
		return Extraction{}, errors.New("api: job record is required")
	}
	switch record.Status {
	case StatusFailed:
		return Extraction{}, errors.Wrapf(ErrJobFailed, "job %s", record.ID)
	case StatusCancelled:
		bitstrings := record.Bitstrings()
		if len(bitstrings) == 0 {
			return Extraction{}, errors.Wrapf(ErrJobCancelledNoResults, "job %s", record.ID)
		}
		return Extraction{
			Bitstrings: bitstrings,
			Partial:    len(bitstrings) < expectedShots,
		}, nil
	case StatusCompleted:
		return Extraction{Bitstrings: record.Bitstrings()}, nil
	}
	return Extraction{}, errors.Errorf("api: job %s is not terminal (status %q)", record.ID, record.Status)
}
