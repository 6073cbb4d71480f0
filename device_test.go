package hqsagent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantrunner/HQSAgent/internal/config"
)

type memStore map[string]string

func (s memStore) Read(keyPath string) (string, bool, error) {
	v, ok := s[keyPath]
	return v, ok, nil
}

func (s memStore) Write(keyPath, value string) error {
	s[keyPath] = value
	return nil
}

var _ config.Store = memStore{}

func newTestDevice(t *testing.T, shots int) *Device {
	t.Helper()
	dev, err := NewDevice(DeviceConfig{
		Machine:       "SOME_MACHINE_NAME",
		Wires:         3,
		Shots:         shots,
		User:          "user@example.com",
		BaseURL:       "https://server.example.com/v1",
		Store:         memStore{},
		DisableMirror: true,
	})
	require.NoError(t, err)
	return dev
}

func TestNewDeviceDefaults(t *testing.T) {
	dev := newTestDevice(t, 10)
	require.Equal(t, "SOME_MACHINE_NAME", dev.Machine())
	require.Equal(t, 3, dev.Wires())
	require.Equal(t, 10, dev.Shots())
	require.Equal(t, DefaultRetryDelay, dev.RetryDelay())
	require.Nil(t, dev.Results())
	require.False(t, dev.Partial())
}

func TestNewDeviceShotsValidation(t *testing.T) {
	cfg := DeviceConfig{
		Machine:       "m",
		Wires:         2,
		User:          "user@example.com",
		BaseURL:       "https://server.example.com/v1",
		Store:         memStore{},
		DisableMirror: true,
	}

	cfg.Shots = 0
	_, err := NewDevice(cfg)
	require.ErrorIs(t, err, ErrAnalyticNotSupported)

	cfg.Shots = -1
	_, err = NewDevice(cfg)
	require.ErrorIs(t, err, ErrShotsOutOfRange)

	cfg.Shots = 100000
	_, err = NewDevice(cfg)
	require.ErrorIs(t, err, ErrShotsOutOfRange)

	cfg.Shots = MaxShots
	_, err = NewDevice(cfg)
	require.NoError(t, err)

	cfg.Shots = MinShots
	_, err = NewDevice(cfg)
	require.NoError(t, err)
}

func TestSetShots(t *testing.T) {
	dev := newTestDevice(t, 10)

	require.NoError(t, dev.SetShots(99))
	require.Equal(t, 99, dev.Shots())

	require.ErrorIs(t, dev.SetShots(0), ErrAnalyticNotSupported)
	require.ErrorIs(t, dev.SetShots(-5), ErrShotsOutOfRange)
	require.ErrorIs(t, dev.SetShots(MaxShots+1), ErrShotsOutOfRange)
	require.Equal(t, 99, dev.Shots())
}

func TestSetRetryDelay(t *testing.T) {
	dev := newTestDevice(t, 10)

	require.NoError(t, dev.SetRetryDelay(2500*time.Millisecond))
	require.Equal(t, 2500*time.Millisecond, dev.RetryDelay())

	require.ErrorIs(t, dev.SetRetryDelay(0), ErrRetryDelayNotPositive)
	require.ErrorIs(t, dev.SetRetryDelay(-5*time.Second), ErrRetryDelayNotPositive)
	require.Equal(t, 2500*time.Millisecond, dev.RetryDelay())
}

func TestNewDeviceNegativeRetryDelay(t *testing.T) {
	_, err := NewDevice(DeviceConfig{
		Machine:       "m",
		Wires:         2,
		Shots:         10,
		RetryDelay:    -time.Second,
		User:          "user@example.com",
		BaseURL:       "https://server.example.com/v1",
		Store:         memStore{},
		DisableMirror: true,
	})
	require.ErrorIs(t, err, ErrRetryDelayNotPositive)
}

func TestNewDeviceRequiredFields(t *testing.T) {
	_, err := NewDevice(DeviceConfig{Wires: 2, Shots: 10, Store: memStore{}, DisableMirror: true})
	require.Error(t, err)

	_, err = NewDevice(DeviceConfig{Machine: "m", Shots: 10, Store: memStore{}, DisableMirror: true})
	require.Error(t, err)
}

func TestReset(t *testing.T) {
	dev := newTestDevice(t, 10)
	dev.results = repeat("00", 10)
	dev.samples = [][]int{{0, 0}}
	dev.partial = true
	require.NoError(t, dev.SetShots(11))

	dev.Reset()

	require.Nil(t, dev.Results())
	require.Nil(t, dev.LastSamples())
	require.False(t, dev.Partial())
	// shot count survives a reset
	require.Equal(t, 11, dev.Shots())
}

func TestSupportedOperations(t *testing.T) {
	dev := newTestDevice(t, 10)
	ops := dev.SupportedOperations()
	require.Contains(t, ops, "CNOT")
	require.Contains(t, ops, "Hadamard")
	require.Contains(t, ops, "PhaseShift")
	require.True(t, dev.SupportsOperation("RX"))
	require.False(t, dev.SupportsOperation("DummyOp"))
}
