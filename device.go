// Package hqsagent is a client-side adapter for Honeywell Quantum
// Services-style remote job APIs: it submits OpenQASM programs, polls jobs
// until a terminal status and hands raw per-shot bitstrings (or a
// framework-shaped sample matrix) back to the host framework. Circuit
// construction and statistical post-processing stay with the host.
package hqsagent

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/quantrunner/HQSAgent/internal/api"
	"github.com/quantrunner/HQSAgent/internal/auth"
	"github.com/quantrunner/HQSAgent/internal/config"
	"github.com/quantrunner/HQSAgent/internal/env"
	"github.com/quantrunner/HQSAgent/internal/storage"
)

// CircuitRunner is the capability surface the host framework consumes.
// Device implements it; hosts should depend on this interface rather than
// the concrete type.
type CircuitRunner interface {
	Submit(ctx context.Context, program string) (*api.JobRecord, error)
	Poll(ctx context.Context, record *api.JobRecord) (*api.JobRecord, error)
	Extract(record *api.JobRecord) (api.Extraction, error)
	Samples(bitstrings []string) ([][]int, error)
}

// DeviceConfig describes one remote device binding. Machine and Wires are
// required; everything else has defaults.
type DeviceConfig struct {
	// Machine is the remote backend to execute on.
	Machine string
	// Wires is the number of qubit/classical-bit channels in submitted circuits.
	Wires int
	// Shots is the number of circuit repetitions per execution. Zero requests
	// analytic mode, which remote hardware does not support.
	Shots int
	// RetryDelay is the constant sleep between status polls (default 2s).
	RetryDelay time.Duration
	// User is the account identity; falls back to $HQS_USER, then the config
	// document.
	User string
	// BaseURL overrides the API endpoint; falls back to $HQS_BASE_URL, then
	// the production default.
	BaseURL string
	// Options is forwarded verbatim in the submission payload.
	Options map[string]any

	// Store overrides the credential config document (default: TOML file in
	// the user config dir).
	Store config.Store
	// Secrets overrides the interactive password prompt.
	Secrets auth.SecretProvider
	// DisableMirror skips the local SQLite job mirror.
	DisableMirror bool
}

// Device submits circuits for one remote machine and holds the most recent
// execution's results. Not safe for concurrent use; one Device serves one
// circuit execution at a time.
type Device struct {
	machine    string
	wires      int
	shots      int
	retryDelay time.Duration
	options    map[string]any

	creds  *auth.Manager
	client *api.Client
	mirror *storage.JobMirror

	results []string
	partial bool
	samples [][]int
}

var _ CircuitRunner = (*Device)(nil)

// NewDevice validates the configuration and wires up the credential manager,
// job client and local mirror.
func NewDevice(cfg DeviceConfig) (*Device, error) {
	if cfg.Machine == "" {
		return nil, errors.New("hqsagent: machine name is required")
	}
	if cfg.Wires <= 0 {
		return nil, errors.Errorf("hqsagent: wire count must be positive, got %d", cfg.Wires)
	}
	if cfg.Shots == 0 {
		return nil, ErrAnalyticNotSupported
	}
	if err := validateShots(cfg.Shots); err != nil {
		return nil, err
	}
	retryDelay := cfg.RetryDelay
	if retryDelay == 0 {
		retryDelay = DefaultRetryDelay
	}
	if retryDelay < 0 {
		return nil, errors.Wrapf(ErrRetryDelayNotPositive, "got %v", retryDelay)
	}

	store := cfg.Store
	if store == nil {
		fileStore, err := config.NewDefaultFileStore()
		if err != nil {
			return nil, err
		}
		store = fileStore
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = env.String(EnvBaseURL, api.DefaultBaseURL)
	}

	authOpts := []auth.Option{auth.WithUser(cfg.User)}
	if cfg.Secrets != nil {
		authOpts = append(authOpts, auth.WithSecretProvider(cfg.Secrets))
	}
	creds, err := auth.NewManager(baseURL, store, authOpts...)
	if err != nil {
		return nil, err
	}
	client, err := api.NewClient(baseURL, creds)
	if err != nil {
		return nil, err
	}

	dev := &Device{
		machine:    cfg.Machine,
		wires:      cfg.Wires,
		shots:      cfg.Shots,
		retryDelay: retryDelay,
		options:    cfg.Options,
		creds:      creds,
		client:     client,
	}
	if !cfg.DisableMirror {
		mirror, err := storage.Default()
		if err != nil {
			log.Warn().Err(err).Msg("job mirror unavailable; continuing without it")
		} else {
			dev.mirror = mirror
		}
	}
	return dev, nil
}

func validateShots(shots int) error {
	if shots < MinShots || shots > MaxShots {
		return errors.Wrapf(ErrShotsOutOfRange, "got %d", shots)
	}
	return nil
}

// Machine returns the remote backend name.
func (d *Device) Machine() string { return d.machine }

// Wires returns the configured wire count.
func (d *Device) Wires() int { return d.wires }

// Shots returns the configured shot count.
func (d *Device) Shots() int { return d.shots }

// SetShots changes the shot count for subsequent executions.
func (d *Device) SetShots(shots int) error {
	if shots == 0 {
		return ErrAnalyticNotSupported
	}
	if err := validateShots(shots); err != nil {
		return err
	}
	d.shots = shots
	return nil
}

// RetryDelay returns the poll interval.
func (d *Device) RetryDelay() time.Duration { return d.retryDelay }

// SetRetryDelay changes the poll interval; it must stay positive.
func (d *Device) SetRetryDelay(delay time.Duration) error {
	if delay <= 0 {
		return errors.Wrapf(ErrRetryDelayNotPositive, "got %v", delay)
	}
	d.retryDelay = delay
	return nil
}

// Credentials exposes the credential manager, e.g. for a forced login.
func (d *Device) Credentials() *auth.Manager { return d.creds }

// SupportedOperations returns the framework operation names this device can
// translate, sorted for stable output.
func (d *Device) SupportedOperations() []string {
	ops := make([]string, 0, len(openQASMGates))
	for name := range openQASMGates {
		ops = append(ops, name)
	}
	sort.Strings(ops)
	return ops
}

// SupportsOperation reports whether the named framework operation maps onto
// an OpenQASM gate.
func (d *Device) SupportsOperation(name string) bool {
	_, ok := openQASMGates[name]
	return ok
}

// Reset clears results from the previous execution. Shot count and retry
// delay are deliberately untouched.
func (d *Device) Reset() {
	d.results = nil
	d.partial = false
	d.samples = nil
}

// Results returns the raw bitstrings from the last execution.
func (d *Device) Results() []string { return d.results }

// Partial reports whether the last execution returned fewer shots than
// requested (cancelled job with partial results).
func (d *Device) Partial() bool { return d.partial }

// Submit sends the serialized program to the job endpoint and returns the
// created job record.
func (d *Device) Submit(ctx context.Context, program string) (*api.JobRecord, error) {
	return d.client.Submit(ctx, api.JobRequest{
		Machine:  d.machine,
		Language: Language,
		Count:    d.shots,
		Options:  d.options,
		Program:  program,
	})
}

// Poll blocks until the job reaches a terminal status, sleeping the retry
// delay between checks.
func (d *Device) Poll(ctx context.Context, record *api.JobRecord) (*api.JobRecord, error) {
	return d.client.PollUntilTerminal(ctx, record, d.retryDelay)
}

// Extract validates the terminal record against the configured shot count.
func (d *Device) Extract(record *api.JobRecord) (api.Extraction, error) {
	return api.ExtractResults(record, d.shots)
}

// Samples converts bitstrings into the (shots, wires) 0/1 matrix the host
// framework expects.
func (d *Device) Samples(bitstrings []string) ([][]int, error) {
	return BitstringsToSamples(bitstrings, d.wires)
}

// Execute runs one circuit end to end: submit, poll until terminal, extract
// and convert. The raw bitstrings are returned and also retained on the
// device until the next Reset or Execute.
func (d *Device) Execute(ctx context.Context, program string) ([]string, error) {
	d.Reset()

	refID := uuid.NewString()
	record, err := d.Submit(ctx, program)
	if err != nil {
		return nil, err
	}
	d.recordMirror(refID, record, 0)

	record, err = d.Poll(ctx, record)
	if err != nil {
		d.recordMirror(refID, record, 0)
		return nil, err
	}

	extraction, err := d.Extract(record)
	d.recordMirror(refID, record, len(extraction.Bitstrings))
	if err != nil {
		return nil, err
	}
	if extraction.Partial {
		log.Warn().
			Str("job", record.ID).
			Int("returned", len(extraction.Bitstrings)).
			Int("requested", d.shots).
			Msg("partial results returned from cancelled remote job")
	}

	samples, err := d.Samples(extraction.Bitstrings)
	if err != nil {
		return nil, err
	}
	d.results = extraction.Bitstrings
	d.partial = extraction.Partial
	d.samples = samples
	return d.results, nil
}

// LastSamples returns the sample matrix computed by the last Execute.
func (d *Device) LastSamples() [][]int { return d.samples }

func (d *Device) recordMirror(refID string, record *api.JobRecord, resultCount int) {
	if d.mirror == nil || record == nil {
		return
	}
	err := d.mirror.Upsert(storage.JobEntry{
		RefID:       refID,
		JobID:       record.ID,
		Machine:     d.machine,
		Shots:       d.shots,
		Status:      record.Status,
		ResultCount: resultCount,
	})
	if err != nil {
		log.Warn().Err(err).Str("job", record.ID).Msg("mirror job entry failed")
	}
}
