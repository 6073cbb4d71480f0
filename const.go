package hqsagent

import (
	"time"

	"github.com/quantrunner/HQSAgent/internal/api"
	"github.com/quantrunner/HQSAgent/internal/auth"
	"github.com/quantrunner/HQSAgent/internal/config"
	"github.com/quantrunner/HQSAgent/internal/storage"
)

// Shared environment variable names. Downstream code should prefer these
// root-level constants over importing internal packages directly.
const (
	// EnvUser supplies the account identity used for interactive login.
	EnvUser = auth.EnvUser
	// EnvBaseURL overrides the job API base endpoint.
	EnvBaseURL = "HQS_BASE_URL"
	// EnvConfigPath overrides the credential config document location.
	EnvConfigPath = config.EnvConfigPath
	// EnvMirrorPath overrides the local job mirror location.
	EnvMirrorPath = storage.EnvMirrorPath
)

// Job statuses, re-exported from the API client. Exactly these three are
// terminal; every other status keeps the poll loop running.
const (
	StatusFailed    = api.StatusFailed
	StatusCompleted = api.StatusCompleted
	StatusCancelled = api.StatusCancelled
)

// Device defaults and bounds.
const (
	// Language is the wire-format tag attached to every submission.
	Language = "OPENQASM 2.0"

	MinShots     = 1
	MaxShots     = 10000
	DefaultShots = 1000

	DefaultRetryDelay = 2 * time.Second
)

// openQASMGates maps framework operation names onto their OpenQASM 2.0
// equivalents. Operations absent from this table cannot be submitted.
var openQASMGates = map[string]string{
	"CNOT":       "cx",
	"CZ":         "cz",
	"U3":         "u3",
	"U2":         "u2",
	"U1":         "u1",
	"Identity":   "id",
	"PauliX":     "x",
	"PauliY":     "y",
	"PauliZ":     "z",
	"Hadamard":   "h",
	"S":          "s",
	"S.inv":      "sdg",
	"T":          "t",
	"T.inv":      "tdg",
	"RX":         "rx",
	"RY":         "ry",
	"RZ":         "rz",
	"CRX":        "crx",
	"CRY":        "cry",
	"CRZ":        "crz",
	"SWAP":       "swap",
	"Toffoli":    "ccx",
	"CSWAP":      "cswap",
	"PhaseShift": "u1",
}
