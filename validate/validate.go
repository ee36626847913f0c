// Command validate checks the puzzle preset files in the ../configs
// directory (or the directory given as the first argument). It checks:
//   - JSON or YAML structure, with no unknown fields
//   - Grid size within the supported range
//   - A display name for preset listings
//   - A time limit long enough for the worst-case shuffle
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/picture-puzzle/game/config"
	"github.com/wricardo/picture-puzzle/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Messages contains informational lines; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File     string
	Valid    bool
	Messages []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Messages = append(r.Messages, "✓ "+fmt.Sprintf(format, args...))
}

// validatePreset loads and validates a single preset file
func validatePreset(filePath string) ValidationResult {
	result := ValidationResult{
		File:     filepath.Base(filePath),
		Valid:    true,
		Messages: []string{},
	}

	preset, err := config.DecodeFile(filePath)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	if strings.TrimSpace(preset.Name) == "" {
		result.fail("Name is required")
	}

	pieces := preset.PieceCount()
	result.info("Grid: %dx%d (%d pieces)", preset.GridSize, preset.GridSize, pieces)

	if !preset.Timed() {
		result.info("Untimed")
	} else {
		limit := *preset.TimeLimit
		// a shuffle may need up to pieces-1 swaps
		worstCase := pieces - 1
		switch {
		case limit == 0:
			result.fail("Time limit is zero, the puzzle would be lost before the first move")
		case limit < worstCase:
			result.fail("Time limit %ds is shorter than the worst case of %d swaps", limit, worstCase)
		default:
			result.info("Time limit: %s", engine.FormatTime(limit))
		}
	}

	if preset.ImageURL == "" {
		result.info("Image: default (%s)", engine.DefaultImageURL)
	}

	return result
}

// presetFiles lists the preset files in dir, sorted by name
func presetFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main validates each preset file, printing a concise report and exiting
// with non-zero status if any are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	files, err := presetFiles(configDir)
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No preset files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validatePreset(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Messages {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, msg := range result.Messages {
				if !strings.HasPrefix(msg, "✓") {
					fmt.Println("  ❌ " + msg)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
