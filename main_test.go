package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstants(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if AppName != "Picture Puzzle" {
		t.Errorf("Unexpected app name %s", AppName)
	}
}

// testConfigDir writes a small preset directory
func testConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	presets := map[string]string{
		"classic.json": `{"name": "Classic", "description": "Three by three", "grid_size": 3}`,
		"quick.yaml":   "name: Quick\ngrid_size: 2\ntime_limit: 90\n",
	}
	for name, content := range presets {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func runApp(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp(strings.NewReader(input), &out)
	err := app.Run(context.Background(), append([]string{"picture-puzzle"}, args...))
	return out.String(), err
}

func TestInitializeServices(t *testing.T) {
	svc, err := initializeServices(testConfigDir(t))
	require.NoError(t, err)
	assert.NotNil(t, svc.puzzles)
	assert.NotNil(t, svc.hub)

	_, err = initializeServices(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)

	require.NoError(t, setupLogging(true, "json"))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	require.NoError(t, setupLogging(false, "text"))
	assert.Equal(t, logrus.InfoLevel, logrus.GetLevel())

	assert.Error(t, setupLogging(false, "xml"))
}

func TestConfigsCommand(t *testing.T) {
	out, err := runApp(t, "", "--config-dir", testConfigDir(t), "configs")
	require.NoError(t, err)

	assert.Contains(t, out, "classic")
	assert.Contains(t, out, "3x3")
	assert.Contains(t, out, "quick")
	assert.Contains(t, out, "1:30")
}

func TestHintCommand(t *testing.T) {
	t.Run("plan", func(t *testing.T) {
		out, err := runApp(t, "", "hint", "1", "2", "0", "3")
		require.NoError(t, err)
		assert.Contains(t, out, "2 swaps:")
	})

	t.Run("solved", func(t *testing.T) {
		out, err := runApp(t, "", "hint", "0", "1", "2", "3")
		require.NoError(t, err)
		assert.Contains(t, out, "Already solved")
	})

	t.Run("not a permutation", func(t *testing.T) {
		_, err := runApp(t, "", "hint", "0", "0")
		assert.Error(t, err)
	})

	t.Run("no arguments", func(t *testing.T) {
		_, err := runApp(t, "", "hint")
		assert.Error(t, err)
	})
}

func TestPlayCommand(t *testing.T) {
	dir := testConfigDir(t)
	input := strings.Join([]string{"?", "p 0", "p 0", "h", "bogus", "r", "q"}, "\n") + "\n"

	out, err := runApp(t, input, "--config-dir", dir, "play", "--config", "classic", "--seed", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "Put the picture back together!")
	assert.Contains(t, out, "[playing] moves: 0")
	assert.Contains(t, out, "Piece 0 selected")
	assert.Contains(t, out, "Selection cleared")
	assert.Contains(t, out, "Try swapping")
	assert.Contains(t, out, `unknown command "bogus"`)
}

func TestPlayOverrides(t *testing.T) {
	dir := testConfigDir(t)

	out, err := runApp(t, "q\n", "--config-dir", dir, "play", "--config", "quick", "--grid-size", "4", "--time-limit", "-1")
	require.NoError(t, err)
	assert.Contains(t, out, "in place:")
	assert.NotContains(t, out, "time:", "negative limit makes the puzzle untimed")
	assert.Contains(t, out, "/16")

	content := filepath.Join(t.TempDir(), "story.json")
	require.NoError(t, os.WriteFile(content, []byte(`{"gridSize": 2, "instructionText": "Fix the kite!"}`), 0644))
	out, err = runApp(t, "q\n", "--config-dir", dir, "play", "--content", content)
	require.NoError(t, err)
	assert.Contains(t, out, "Fix the kite!")
	assert.Contains(t, out, "/4")
}
