package hqsagent

import (
	"github.com/pkg/errors"

	"github.com/quantrunner/HQSAgent/internal/api"
	"github.com/quantrunner/HQSAgent/internal/auth"
)

// Device validation errors.
var (
	// ErrAnalyticNotSupported is reported when no shot count is given:
	// remote hardware only returns sampled measurement outcomes.
	ErrAnalyticNotSupported = errors.New("hqsagent: analytic mode is not supported; a finite shot count is required")

	// ErrShotsOutOfRange is reported for shot counts outside [MinShots, MaxShots].
	ErrShotsOutOfRange = errors.Errorf("hqsagent: shots must be between %d and %d", MinShots, MaxShots)

	// ErrRetryDelayNotPositive is reported for zero or negative poll delays.
	ErrRetryDelayNotPositive = errors.New("hqsagent: retry delay must be positive")
)

// Errors re-exported from internal packages so callers can branch with
// errors.Is against the root package only.
var (
	ErrInvalidToken          = auth.ErrInvalidToken
	ErrMissingIdentity       = auth.ErrMissingIdentity
	ErrJobFailed             = api.ErrJobFailed
	ErrJobCancelledNoResults = api.ErrJobCancelledNoResults
)
