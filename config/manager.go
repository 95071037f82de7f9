package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Manager manages application configuration as flat dotted keys
type Manager struct {
	values map[string]any
	mu     sync.RWMutex

	// Watchers for configuration changes
	watchers map[string][]func(string, any)

	logger *slog.Logger
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		values:   make(map[string]any),
		watchers: make(map[string][]func(string, any)),
		logger:   slog.Default(),
	}
}

// SetLogger sets the logger used for reload events
func (m *Manager) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	m.mu.Lock()
	m.logger = l
	m.mu.Unlock()
}

// Set sets a configuration value. Watchers of key run synchronously, after
// the lock is released, and only when the value changed.
func (m *Manager) Set(key string, value any) {
	m.mu.Lock()
	old, existed := m.values[key]
	m.values[key] = value
	var watchers []func(string, any)
	if !existed || !reflect.DeepEqual(old, value) {
		watchers = append(watchers, m.watchers[key]...)
	}
	m.mu.Unlock()

	for _, watcher := range watchers {
		watcher(key, value)
	}
}

// Get gets a configuration value
func (m *Manager) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.values[key]
	return value, exists
}

// GetString gets a string configuration value
func (m *Manager) GetString(key string, defaultValue ...string) string {
	return lookup(m, key, toString, defaultValue)
}

// GetInt gets an integer configuration value
func (m *Manager) GetInt(key string, defaultValue ...int) int {
	return int(lookup(m, key, toInt64, int64Defaults(defaultValue)))
}

// GetBool gets a boolean configuration value
func (m *Manager) GetBool(key string, defaultValue ...bool) bool {
	return lookup(m, key, toBool, defaultValue)
}

// GetFloat gets a float configuration value
func (m *Manager) GetFloat(key string, defaultValue ...float64) float64 {
	return lookup(m, key, toFloat, defaultValue)
}

// GetDuration gets a duration configuration value. Bare numbers are seconds.
func (m *Manager) GetDuration(key string, defaultValue ...time.Duration) time.Duration {
	return lookup(m, key, toDuration, defaultValue)
}

// GetStringSlice gets a string slice configuration value. A string is
// split on commas.
func (m *Manager) GetStringSlice(key string, defaultValue ...[]string) []string {
	if len(defaultValue) == 0 {
		defaultValue = [][]string{{}}
	}
	return lookup(m, key, toStringSlice, defaultValue)
}

// lookup converts the value at key, falling back to the first default (or
// the zero value) when it is missing or does not convert
func lookup[T any](m *Manager, key string, convert func(any) (T, bool), defaults []T) T {
	if value, exists := m.Get(key); exists {
		if v, ok := convert(value); ok {
			return v
		}
	}
	if len(defaults) > 0 {
		return defaults[0]
	}
	var zero T
	return zero
}

func int64Defaults(in []int) []int64 {
	if len(in) == 0 {
		return nil
	}
	return []int64{int64(in[0])}
}

// Watch registers callback for changes of key
func (m *Manager) Watch(key string, callback func(string, any)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.watchers[key] = append(m.watchers[key], callback)
}

// LoadFromEnv loads PREFIX_A_B=value variables as key a.b
func (m *Manager) LoadFromEnv(prefix string) {
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}

		if prefix != "" {
			if !strings.HasPrefix(key, prefix+"_") {
				continue
			}
			key = strings.TrimPrefix(key, prefix+"_")
		}
		if key == "" {
			continue
		}

		// Convert key to lowercase and replace underscores with dots
		key = strings.ToLower(key)
		key = strings.ReplaceAll(key, "_", ".")

		m.Set(key, value)
	}
}

// LoadFromJSON loads configuration from JSON file. Nested objects become
// dotted keys.
func (m *Manager) LoadFromJSON(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to parse JSON config: %w", err)
	}

	m.loadFromMap("", values)
	return nil
}

// loadFromMap recursively loads configuration from a map
func (m *Manager) loadFromMap(prefix string, values map[string]any) {
	for key, value := range values {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		// If value is a map, recurse
		if nested, ok := value.(map[string]any); ok {
			m.loadFromMap(fullKey, nested)
		} else {
			m.Set(fullKey, value)
		}
	}
}

// WatchFile reloads filename whenever it is written, replaced or created,
// firing the watchers of the keys that changed. It blocks until ctx is
// done. The parent directory is watched so editors that replace the file
// by rename are seen.
func (m *Manager) WatchFile(ctx context.Context, filename string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(filename)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", filename, err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	m.mu.RLock()
	logger := m.logger
	m.mu.RUnlock()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := m.LoadFromJSON(abs); err != nil {
				logger.Warn("config reload failed", "file", abs, "error", err)
				continue
			}
			logger.Info("config reloaded", "file", abs)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watcher error", "error", err)
		}
	}
}

// SaveToJSON saves configuration to JSON file
func (m *Manager) SaveToJSON(filename string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := json.MarshalIndent(m.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Apply copies every present key into the tagged fields of cfg
func (m *Manager) Apply(cfg *Config) error {
	return m.Unmarshal("", cfg)
}

// Unmarshal copies values into the exported fields of the struct target
// points to. A field's key is its config tag, or its lowercased name, below
// prefix. Missing keys leave fields untouched.
func (m *Manager) Unmarshal(prefix string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return errors.New("target must be a pointer to struct")
	}
	rv = rv.Elem()
	rt := rv.Type()

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range rt.NumField() {
		field := rt.Field(i)
		fv := rv.Field(i)
		if !fv.CanSet() {
			continue
		}

		key := field.Tag.Get("config")
		if key == "" {
			key = strings.ToLower(field.Name)
		}
		if prefix != "" {
			key = prefix + "." + key
		}

		value, ok := m.values[key]
		if !ok {
			continue
		}
		if err := setFieldValue(fv, value); err != nil {
			return fmt.Errorf("config %s (%s): %w", key, field.Name, err)
		}
	}

	return nil
}

// GetAll returns all configuration values
func (m *Manager) GetAll() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]any, len(m.values))
	for k, v := range m.values {
		result[k] = v
	}

	return result
}

// Delete deletes a configuration value
func (m *Manager) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.values, key)
}

// Clear clears all configuration values
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = make(map[string]any)
}
