// Package config provides the durable key/value document the credential
// manager persists tokens into. The document is a TOML file shared with
// other tools, so writes always round-trip the full document and keep
// unrelated tables intact.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/quantrunner/HQSAgent/internal/env"
)

const (
	// EnvConfigPath overrides the config document location.
	EnvConfigPath = "HQS_CONFIG_PATH"

	defaultConfigDirName  = "hqsagent"
	defaultConfigFileName = "config.toml"
)

// Store is the key/value document interface injected into the credential
// manager. Keys are dotted paths into nested tables, e.g.
// "honeywell.global.access_token".
type Store interface {
	// Read returns the string value at the key path and whether it was present.
	Read(keyPath string) (string, bool, error)
	// Write sets the value at the key path and persists the full document.
	Write(keyPath, value string) error
}

// FileStore is a TOML-file-backed Store.
type FileStore struct {
	path string
}

// DefaultPath resolves the config document location: $HQS_CONFIG_PATH if set,
// otherwise <user-config-dir>/hqsagent/config.toml.
func DefaultPath() (string, error) {
	if override := env.String(EnvConfigPath, ""); override != "" {
		return override, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve user config dir failed")
	}
	return filepath.Join(base, defaultConfigDirName, defaultConfigFileName), nil
}

// NewFileStore opens a Store backed by the TOML document at path. The file
// does not need to exist yet; the first Write creates it along with its
// containing directory.
func NewFileStore(path string) (*FileStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("config store path is empty")
	}
	return &FileStore{path: path}, nil
}

// NewDefaultFileStore opens a Store at DefaultPath.
func NewDefaultFileStore() (*FileStore, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return NewFileStore(path)
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() (map[string]any, error) {
	doc := map[string]any{}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return doc, nil
		}
		return nil, errors.Wrapf(err, "read config document %s failed", s.path)
	}
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, "parse config document %s failed", s.path)
	}
	return doc, nil
}

// Read returns the string value at the dotted key path.
func (s *FileStore) Read(keyPath string) (string, bool, error) {
	doc, err := s.load()
	if err != nil {
		return "", false, err
	}
	keys := splitKeyPath(keyPath)
	if len(keys) == 0 {
		return "", false, errors.New("config key path is empty")
	}
	node := doc
	for _, key := range keys[:len(keys)-1] {
		child, ok := node[key].(map[string]any)
		if !ok {
			return "", false, nil
		}
		node = child
	}
	val, ok := node[keys[len(keys)-1]]
	if !ok {
		return "", false, nil
	}
	str, ok := val.(string)
	if !ok {
		return "", false, errors.Errorf("config key %s is not a string", keyPath)
	}
	return str, true, nil
}

// Write sets the value at the dotted key path and writes the whole document
// back, preserving unrelated keys. The containing directory is created when
// missing.
func (s *FileStore) Write(keyPath, value string) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	keys := splitKeyPath(keyPath)
	if len(keys) == 0 {
		return errors.New("config key path is empty")
	}
	node := doc
	for _, key := range keys[:len(keys)-1] {
		child, ok := node[key].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[key] = child
		}
		node = child
	}
	node[keys[len(keys)-1]] = value

	out, err := toml.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encode config document failed")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrapf(err, "create config dir for %s failed", s.path)
	}
	if err := os.WriteFile(s.path, out, 0o600); err != nil {
		return errors.Wrapf(err, "write config document %s failed", s.path)
	}
	return nil
}

func splitKeyPath(keyPath string) []string {
	parts := strings.Split(strings.TrimSpace(keyPath), ".")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			keys = append(keys, p)
		}
	}
	return keys
}
