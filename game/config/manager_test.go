package config

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/picture-puzzle/game/engine"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
}

func newTestManager(t *testing.T, dir string, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(dir, append([]Option{WithLogger(quietLogger())}, opts...)...)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	return m
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		m := newTestManager(t, t.TempDir())
		if m.Dir() == "" {
			t.Error("Expected config dir to be recorded")
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := NewManager(filepath.Join(t.TempDir(), "missing"))
		if err == nil {
			t.Error("Expected error for missing directory")
		}
	})

	t.Run("file instead of directory", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "plain.txt", "hello")
		_, err := NewManager(filepath.Join(dir, "plain.txt"))
		if err == nil {
			t.Error("Expected error when config path is a file")
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "classic.json", `{"name": "Classic", "grid_size": 3, "time_limit": 120}`)
	writeFile(t, dir, "relaxed.yaml", "name: Relaxed\ngrid_size: 4\n")
	writeFile(t, dir, "short.yml", "grid_size: 2\ntime_limit: 30\n")
	writeFile(t, dir, "huge.json", `{"grid_size": 40}`)
	writeFile(t, dir, "broken.json", `{"grid_size": 3`)
	writeFile(t, dir, "typo.json", `{"gridsize": 3}`)
	m := newTestManager(t, dir)

	t.Run("json preset", func(t *testing.T) {
		config, err := m.LoadConfig("classic")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if config.Name != "Classic" || config.GridSize != 3 {
			t.Errorf("Unexpected config %+v", config)
		}
		if config.TimeLimit == nil || *config.TimeLimit != 120 {
			t.Errorf("Expected time limit 120, got %v", config.TimeLimit)
		}
	})

	t.Run("with .json extension", func(t *testing.T) {
		config, err := m.LoadConfig("classic.json")
		if err != nil {
			t.Fatalf("Failed to load config with extension: %v", err)
		}
		if config.Name != "Classic" {
			t.Errorf("Expected name 'Classic', got %q", config.Name)
		}
	})

	t.Run("yaml preset", func(t *testing.T) {
		config, err := m.LoadConfig("relaxed")
		if err != nil {
			t.Fatalf("Failed to load YAML config: %v", err)
		}
		if config.GridSize != 4 || config.Timed() {
			t.Errorf("Expected untimed 4x4 preset, got %+v", config)
		}
	})

	t.Run("yml preset", func(t *testing.T) {
		config, err := m.LoadConfig("short")
		if err != nil {
			t.Fatalf("Failed to load YML config: %v", err)
		}
		if config.TimeLimit == nil || *config.TimeLimit != 30 {
			t.Errorf("Expected time limit 30, got %v", config.TimeLimit)
		}
	})

	t.Run("cached", func(t *testing.T) {
		first, _ := m.LoadConfig("classic")
		second, _ := m.LoadConfig("classic")
		if first != second {
			t.Error("Expected cached config to be returned")
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := m.LoadConfig("nope")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	invalid := map[string]string{
		"grid out of range": "huge",
		"malformed":         "broken",
		"unknown field":     "typo",
	}
	for name, preset := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := m.LoadConfig(preset)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	for _, name := range []string{"", "../classic", "sub/classic", ".json"} {
		t.Run("bad name "+name, func(t *testing.T) {
			_, err := m.LoadConfig(name)
			if !errors.Is(err, ErrInvalidName) {
				t.Errorf("Expected ErrInvalidName for %q, got %v", name, err)
			}
		})
	}
}

func TestManager_GetDefault(t *testing.T) {
	t.Run("classic preset", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "alpha.json", `{"name": "Alpha", "grid_size": 2}`)
		writeFile(t, dir, "classic.json", `{"name": "Classic", "grid_size": 3}`)
		m := newTestManager(t, dir)

		config, err := m.GetDefault()
		if err != nil {
			t.Fatalf("Failed to get default: %v", err)
		}
		if config.Name != "Classic" {
			t.Errorf("Expected classic default, got %q", config.Name)
		}
	})

	t.Run("first valid preset", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "beta.json", `{"name": "Beta", "grid_size": 2}`)
		writeFile(t, dir, "aardvark.json", `{"grid_size": 99}`)
		m := newTestManager(t, dir)

		config, err := m.GetDefault()
		if err != nil {
			t.Fatalf("Failed to get default: %v", err)
		}
		if config.Name != "Beta" {
			t.Errorf("Expected first valid preset, got %q", config.Name)
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		m := newTestManager(t, t.TempDir())
		config, err := m.GetDefault()
		if err != nil {
			t.Fatalf("Failed to get default: %v", err)
		}
		if err := engine.ValidatePuzzleConfig(config); err != nil {
			t.Errorf("Expected a valid built-in default: %v", err)
		}
		if config.Timed() {
			t.Error("Expected built-in default to be untimed")
		}
	})

	t.Run("set default", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "classic.json", `{"name": "Classic", "grid_size": 3}`)
		writeFile(t, dir, "hard.yaml", "name: Hard\ngrid_size: 6\ntime_limit: 60\n")
		m := newTestManager(t, dir)

		if err := m.SetDefault("hard.yaml"); err != nil {
			t.Fatalf("Failed to set default: %v", err)
		}
		config, _ := m.GetDefault()
		if config.Name != "Hard" {
			t.Errorf("Expected Hard default, got %q", config.Name)
		}
		if err := m.SetDefault("missing"); !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "medium.json", `{"name": "Medium", "description": "Four by four", "grid_size": 4, "time_limit": 90}`)
	writeFile(t, dir, "easy.yaml", "name: Easy\ngrid_size: 2\n")
	writeFile(t, dir, "broken.json", `not json`)
	writeFile(t, dir, "notes.txt", "ignored")
	if err := os.Mkdir(filepath.Join(dir, "nested.json"), 0755); err != nil {
		t.Fatal(err)
	}
	m := newTestManager(t, dir)

	configs, err := m.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("Expected 2 presets, got %d", len(configs))
	}
	if configs[0].ConfigID != "easy" || configs[1].ConfigID != "medium" {
		t.Errorf("Expected presets sorted by ID, got %s, %s", configs[0].ConfigID, configs[1].ConfigID)
	}
	medium := configs[1]
	if medium.Filename != "medium.json" || medium.Description != "Four by four" || medium.GridSize != 4 {
		t.Errorf("Unexpected preset info %+v", medium)
	}
	if medium.TimeLimit == nil || *medium.TimeLimit != 90 {
		t.Errorf("Expected time limit 90, got %v", medium.TimeLimit)
	}
}

func TestManager_ReloadConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "classic.json", `{"name": "Before", "grid_size": 3}`)
	m := newTestManager(t, dir)

	if _, err := m.LoadConfig("classic"); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	writeFile(t, dir, "classic.json", `{"name": "After", "grid_size": 3}`)

	cached, _ := m.LoadConfig("classic")
	if cached.Name != "Before" {
		t.Errorf("Expected cached config before reload, got %q", cached.Name)
	}

	reloaded, err := m.ReloadConfig("classic")
	if err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	if reloaded.Name != "After" {
		t.Errorf("Expected reloaded config, got %q", reloaded.Name)
	}

	writeFile(t, dir, "classic.json", `{"name": "Again", "grid_size": 3}`)
	m.RefreshCache()
	refreshed, _ := m.LoadConfig("classic")
	if refreshed.Name != "Again" {
		t.Errorf("Expected config reread after RefreshCache, got %q", refreshed.Name)
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	m := newTestManager(t, dir)
	config := &engine.PuzzleConfig{Name: "Saved", GridSize: 5, TimeLimit: engine.IntPtr(45)}

	t.Run("json", func(t *testing.T) {
		if err := m.SaveConfig("saved", config); err != nil {
			t.Fatalf("Failed to save config: %v", err)
		}
		loaded, err := DecodeFile(filepath.Join(dir, "saved.json"))
		if err != nil {
			t.Fatalf("Failed to decode saved file: %v", err)
		}
		if loaded.Name != "Saved" || loaded.GridSize != 5 || *loaded.TimeLimit != 45 {
			t.Errorf("Unexpected saved config %+v", loaded)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		if err := m.SaveConfig("saved-yaml.yaml", config); err != nil {
			t.Fatalf("Failed to save config: %v", err)
		}
		loaded, err := DecodeFile(filepath.Join(dir, "saved-yaml.yaml"))
		if err != nil {
			t.Fatalf("Failed to decode saved file: %v", err)
		}
		if loaded.GridSize != 5 {
			t.Errorf("Expected grid size 5, got %d", loaded.GridSize)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		err := m.SaveConfig("bad", &engine.PuzzleConfig{GridSize: 0})
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
		if _, statErr := os.Stat(filepath.Join(dir, "bad.json")); !os.IsNotExist(statErr) {
			t.Error("Expected invalid config not to be written")
		}
	})
}

func TestDecode(t *testing.T) {
	if _, err := Decode([]byte(`grid_size = 3`), ".toml"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for unsupported format, got %v", err)
	}
	config, err := Decode([]byte("grid_size: 3\ninstruction_text: Go!\n"), ".YAML")
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if config.InstructionText != "Go!" {
		t.Errorf("Expected instruction text 'Go!', got %q", config.InstructionText)
	}
	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Expected ErrConfigNotFound, got %v", err)
	}
}

func TestManager_Watch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "classic.json", `{"name": "Before", "grid_size": 3}`)

	reloaded := make(chan string, 16)
	m := newTestManager(t, dir, WithReloadHandler(func(name string) { reloaded <- name }))
	if _, err := m.LoadConfig("classic"); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Watch(ctx) }()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "classic.json", `{"name": "After", "grid_size": 3}`)

	select {
	case name := <-reloaded:
		if name != "classic" {
			t.Errorf("Expected reload of 'classic', got %q", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watcher did not report the change")
	}

	// the first event may arrive mid-write, so poll until the new content shows
	deadline := time.Now().Add(2 * time.Second)
	for {
		config, err := m.LoadConfig("classic")
		if err == nil && config.Name == "After" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Expected fresh config after change, got %+v (err %v)", config, err)
		}
		select {
		case <-reloaded:
		case <-time.After(50 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "classic.json", `{"name": "Classic", "grid_size": 3}`)
	writeFile(t, dir, "easy.json", `{"name": "Easy", "grid_size": 2}`)
	m := newTestManager(t, dir)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "classic"
			if i%2 == 0 {
				name = "easy"
			}
			if _, err := m.LoadConfig(name); err != nil {
				t.Errorf("Failed to load %s: %v", name, err)
			}
			if _, err := m.ListConfigs(); err != nil {
				t.Errorf("Failed to list configs: %v", err)
			}
			if i == 5 {
				m.RefreshCache()
			}
		}(i)
	}
	wg.Wait()
}
