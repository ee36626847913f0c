package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/wricardo/picture-puzzle/game/engine"
	"github.com/wricardo/picture-puzzle/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = engine.ErrInvalidConfig
	ErrInvalidName    = errors.New("invalid configuration name")
)

// DefaultConfigName is the preset used when no default has been set
const DefaultConfigName = "classic"

// extensions lists the preset file formats in lookup order
var extensions = []string{".json", ".yaml", ".yml"}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger used by the manager
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Manager) { m.log = log }
}

// WithReloadHandler registers a callback run after Watch drops a changed
// preset from the cache
func WithReloadHandler(f func(name string)) Option {
	return func(m *Manager) { m.onReload = f }
}

// Manager handles puzzle preset loading and caching
type Manager struct {
	configDir   string
	defaultName string
	configs     map[string]*engine.PuzzleConfig
	log         logrus.FieldLogger
	onReload    func(name string)
	mu          sync.RWMutex
}

// NewManager creates a new preset manager reading from configDir
func NewManager(configDir string, opts ...Option) (*Manager, error) {
	info, err := os.Stat(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config directory does not exist: %s", configDir)
		}
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config path is not a directory: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.PuzzleConfig),
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Dir returns the preset directory
func (m *Manager) Dir() string {
	return m.configDir
}

// LoadConfig loads a preset by name. The name may carry its file extension;
// without one, .json, .yaml and .yml are tried in that order.
func (m *Manager) LoadConfig(name string) (*engine.PuzzleConfig, error) {
	name, ext, err := splitName(name)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	if config, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if config, exists := m.configs[name]; exists {
		return config, nil
	}

	path, err := m.findFile(name, ext)
	if err != nil {
		return nil, err
	}
	config, err := DecodeFile(path)
	if err != nil {
		return nil, err
	}

	m.configs[name] = config
	m.log.WithFields(logrus.Fields{"config": name, "path": path}).Debug("preset loaded")
	return config, nil
}

// ReloadConfig drops a preset from the cache and loads it again from disk
func (m *Manager) ReloadConfig(name string) (*engine.PuzzleConfig, error) {
	base, _, err := splitName(name)
	if err != nil {
		return nil, err
	}
	m.invalidate(base)
	return m.LoadConfig(name)
}

// ListConfigs returns information about all valid presets, sorted by ID.
// Files that fail to load are skipped.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	seen := make(map[string]bool)
	var configs []*service.ConfigInfo
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || !isPresetExt(ext) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ext)
		if seen[name] {
			continue
		}

		config, err := m.LoadConfig(name)
		if err != nil {
			m.log.WithError(err).WithField("file", entry.Name()).Warn("skipping invalid preset")
			continue
		}
		seen[name] = true

		configs = append(configs, &service.ConfigInfo{
			Filename:    entry.Name(),
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			GridSize:    config.GridSize,
			TimeLimit:   config.TimeLimit,
		})
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	return configs, nil
}

// GetDefault returns the default preset: the one chosen with SetDefault,
// else "classic", else the first valid preset, else a minimal built-in one
func (m *Manager) GetDefault() (*engine.PuzzleConfig, error) {
	m.mu.RLock()
	name := m.defaultName
	m.mu.RUnlock()

	if name != "" {
		return m.LoadConfig(name)
	}

	config, err := m.LoadConfig(DefaultConfigName)
	if err == nil {
		return config, nil
	}

	configs, listErr := m.ListConfigs()
	if listErr != nil || len(configs) == 0 {
		return createMinimalConfig(), nil
	}
	config, err = m.LoadConfig(configs[0].ConfigID)
	if err != nil {
		return createMinimalConfig(), nil
	}
	return config, nil
}

// SetDefault sets the default preset by name
func (m *Manager) SetDefault(name string) error {
	if _, err := m.LoadConfig(name); err != nil {
		return err
	}
	base, _, _ := splitName(name)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = base
	return nil
}

// RefreshCache drops every cached preset so the next load reads from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs = make(map[string]*engine.PuzzleConfig)
}

// SaveConfig validates a preset and writes it to disk. A ".yaml" or ".yml"
// suffix on name selects YAML; anything else is written as JSON.
func (m *Manager) SaveConfig(name string, config *engine.PuzzleConfig) error {
	if err := engine.ValidatePuzzleConfig(config); err != nil {
		return err
	}
	base, ext, err := splitName(name)
	if err != nil {
		return err
	}
	if ext == "" {
		ext = ".json"
	}

	data, err := encode(config, ext)
	if err != nil {
		return err
	}

	path := filepath.Join(m.configDir, base+ext)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	m.mu.Lock()
	m.configs[base] = config
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{"config": base, "path": path}).Info("preset saved")
	return nil
}

// Watch keeps the cache in sync with the preset directory until ctx is
// done. Changed or removed presets are dropped from the cache.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(m.configDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", m.configDir, err)
	}
	m.log.WithField("dir", m.configDir).Info("watching presets")

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			ext := filepath.Ext(event.Name)
			if !isPresetExt(ext) || event.Op == fsnotify.Chmod {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(event.Name), ext)
			m.invalidate(name)
			m.log.WithFields(logrus.Fields{"config": name, "op": event.Op.String()}).Info("preset changed")
			if m.onReload != nil {
				m.onReload(name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.log.WithError(err).Warn("preset watcher error")
		}
	}
}

func (m *Manager) invalidate(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.configs, name)
}

// findFile resolves a preset name to a path; the caller holds the lock
func (m *Manager) findFile(name, ext string) (string, error) {
	candidates := extensions
	if ext != "" {
		candidates = []string{ext}
	}
	for _, candidate := range candidates {
		path := filepath.Join(m.configDir, name+candidate)
		info, err := os.Stat(path)
		if err == nil && !info.IsDir() {
			return path, nil
		}
		if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrConfigNotFound, name)
}

// DecodeFile reads and validates a single preset file. The format follows
// the file extension.
func DecodeFile(path string) (*engine.PuzzleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Decode(data, filepath.Ext(path))
}

// Decode parses and validates a preset in the format named by ext
func Decode(data []byte, ext string) (*engine.PuzzleConfig, error) {
	var config engine.PuzzleConfig
	switch strings.ToLower(ext) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&config); err != nil {
			return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&config); err != nil {
			return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, ext)
	}

	if err := engine.ValidatePuzzleConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func encode(config *engine.PuzzleConfig, ext string) ([]byte, error) {
	switch ext {
	case ".yaml", ".yml":
		data, err := yaml.Marshal(config)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config: %w", err)
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(config, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config: %w", err)
		}
		return append(data, '\n'), nil
	}
}

// splitName separates an optional preset extension from a name
func splitName(name string) (string, string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	ext := filepath.Ext(name)
	if !isPresetExt(ext) {
		return name, "", nil
	}
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return base, ext, nil
}

func isPresetExt(ext string) bool {
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// createMinimalConfig creates a minimal valid preset
func createMinimalConfig() *engine.PuzzleConfig {
	return &engine.PuzzleConfig{
		Name:            "default",
		Description:     "Default minimal configuration",
		GridSize:        engine.DefaultGridSize,
		ImageURL:        engine.DefaultImageURL,
		InstructionText: engine.DefaultInstructionText,
	}
}
