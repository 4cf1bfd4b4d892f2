// Package settings is the persisted key-value store for runtime settings:
// the active model provider, provider credentials and models, the search
// endpoint and the workflow toggle. Values live in memory and are written
// through to a TOML file on every change.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
)

// Keys
const (
	KeyActiveProvider  = "active_provider"
	KeySearchEndpoint  = "search_endpoint"
	KeyWorkflowEnabled = "workflow_enabled"
	PrefixProviderKey  = "provider_keys."
	PrefixModel        = "provider_models."
)

var (
	ErrUnknownKey   = errors.New("unknown setting")
	ErrInvalidValue = errors.New("invalid setting value")
)

// Values is the persisted document.
type Values struct {
	ActiveProvider  string            `toml:"active_provider" json:"active_provider"`
	SearchEndpoint  string            `toml:"search_endpoint" json:"search_endpoint"`
	WorkflowEnabled bool              `toml:"workflow_enabled" json:"workflow_enabled"`
	ProviderKeys    map[string]string `toml:"provider_keys,omitempty" json:"provider_keys,omitempty"`
	ProviderModels  map[string]string `toml:"provider_models,omitempty" json:"provider_models,omitempty"`
}

// Defaults returns the values of a fresh install.
func Defaults() Values {
	return Values{
		SearchEndpoint:  action.DefaultSearchEndpoint,
		WorkflowEnabled: true,
		ProviderKeys:    map[string]string{},
		ProviderModels:  map[string]string{},
	}
}

// Setting describes one key for listing.
type Setting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"` // "string", "boolean", "secret"
	Description string `json:"description"`
	Default     string `json:"default"`
}

// Store holds the settings and persists them to path. An empty path keeps
// everything in memory.
type Store struct {
	mu     sync.RWMutex
	path   string
	values Values
	logger *zap.Logger
}

// Open loads path if it exists, otherwise starts from Defaults.
func Open(path string, logger *zap.Logger) (*Store, error) {
	s := &Store{path: path, values: Defaults(), logger: logging.OrNop(logger)}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := toml.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if s.values.ProviderKeys == nil {
		s.values.ProviderKeys = map[string]string{}
	}
	if s.values.ProviderModels == nil {
		s.values.ProviderModels = map[string]string{}
	}
	return s, nil
}

// NewMemory creates a store that is never written to disk.
func NewMemory() *Store {
	s, _ := Open("", nil)
	return s
}

// Get returns the raw value of key.
func (s *Store) Get(key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return get(&s.values, key)
}

func get(v *Values, key string) (string, error) {
	switch {
	case key == KeyActiveProvider:
		return v.ActiveProvider, nil
	case key == KeySearchEndpoint:
		return v.SearchEndpoint, nil
	case key == KeyWorkflowEnabled:
		return strconv.FormatBool(v.WorkflowEnabled), nil
	case strings.HasPrefix(key, PrefixProviderKey) && len(key) > len(PrefixProviderKey):
		return v.ProviderKeys[strings.TrimPrefix(key, PrefixProviderKey)], nil
	case strings.HasPrefix(key, PrefixModel) && len(key) > len(PrefixModel):
		return v.ProviderModels[strings.TrimPrefix(key, PrefixModel)], nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Set validates and stores value under key, then persists.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.values.clone()
	value = strings.TrimSpace(value)
	switch {
	case key == KeyActiveProvider:
		next.ActiveProvider = value
	case key == KeySearchEndpoint:
		if !action.IsHTTPURL(value) {
			return fmt.Errorf("%w: %s must be an http(s) URL", ErrInvalidValue, key)
		}
		next.SearchEndpoint = value
	case key == KeyWorkflowEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", ErrInvalidValue, key)
		}
		next.WorkflowEnabled = b
	case strings.HasPrefix(key, PrefixProviderKey) && len(key) > len(PrefixProviderKey):
		setOrDelete(next.ProviderKeys, strings.TrimPrefix(key, PrefixProviderKey), value)
	case strings.HasPrefix(key, PrefixModel) && len(key) > len(PrefixModel):
		setOrDelete(next.ProviderModels, strings.TrimPrefix(key, PrefixModel), value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	if err := s.save(next); err != nil {
		return err
	}
	s.values = next
	s.logger.Info("setting updated", zap.String("key", key))
	return nil
}

// Reset restores key to its default.
func (s *Store) Reset(key string) error {
	def, err := get(ptr(Defaults()), key)
	if err != nil {
		return err
	}
	return s.Set(key, def)
}

// List describes every set key. Credentials are masked.
func (s *Store) List() []Setting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := Defaults()

	out := []Setting{
		{Key: KeyActiveProvider, Value: s.values.ActiveProvider, Type: "string", Description: "Language model provider in use"},
		{Key: KeySearchEndpoint, Value: s.values.SearchEndpoint, Type: "string", Description: "Search URL prefix; the query is appended", Default: d.SearchEndpoint},
		{Key: KeyWorkflowEnabled, Value: strconv.FormatBool(s.values.WorkflowEnabled), Type: "boolean", Description: "Allow multi-step browser control", Default: "true"},
	}
	for _, id := range sortedKeys(s.values.ProviderKeys) {
		out = append(out, Setting{Key: PrefixProviderKey + id, Value: Mask(s.values.ProviderKeys[id]), Type: "secret", Description: "API key for " + id})
	}
	for _, id := range sortedKeys(s.values.ProviderModels) {
		out = append(out, Setting{Key: PrefixModel + id, Value: s.values.ProviderModels[id], Type: "string", Description: "Model for " + id})
	}
	return out
}

// Export returns a copy of every value, credentials included.
func (s *Store) Export() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.clone()
}

func (s *Store) ActiveProvider() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.ActiveProvider
}

func (s *Store) APIKey(provider string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.ProviderKeys[provider]
}

func (s *Store) Model(provider string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.ProviderModels[provider]
}

func (s *Store) SearchEndpoint() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.SearchEndpoint
}

func (s *Store) WorkflowEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.WorkflowEnabled
}

// Deactivate clears the active provider if it is id. The key is kept so the
// user can see what was rejected.
func (s *Store) Deactivate(id string) error {
	if s.ActiveProvider() != id {
		return nil
	}
	s.logger.Warn("deactivating provider", zap.String("provider", id))
	return s.Set(KeyActiveProvider, "")
}

// save writes v next to the target and renames it into place.
func (s *Store) save(v Values) error {
	if s.path == "" {
		return nil
	}
	data, err := toml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Mask hides all but the last four characters of a secret.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

func (v Values) clone() Values {
	c := v
	c.ProviderKeys = make(map[string]string, len(v.ProviderKeys))
	for k, val := range v.ProviderKeys {
		c.ProviderKeys[k] = val
	}
	c.ProviderModels = make(map[string]string, len(v.ProviderModels))
	for k, val := range v.ProviderModels {
		c.ProviderModels[k] = val
	}
	return c
}

func setOrDelete(m map[string]string, k, v string) {
	if v == "" {
		delete(m, k)
		return
	}
	m[k] = v
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func ptr[T any](v T) *T { return &v }
