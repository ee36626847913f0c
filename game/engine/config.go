package engine

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig = errors.New("invalid puzzle configuration")
	ErrUnknownPiece  = errors.New("unknown piece")
	ErrSamePiece     = errors.New("cannot swap a piece with itself")
)

const (
	DefaultImageURL        = "/default-puzzle.jpg"
	DefaultInstructionText = "Put the picture back together!"
)

// ValidatePuzzleConfig validates a puzzle configuration
func ValidatePuzzleConfig(config *PuzzleConfig) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}
	if config.GridSize < MinGridSize || config.GridSize > MaxGridSize {
		return fmt.Errorf("%w: grid_size must be between %d and %d, got %d",
			ErrInvalidConfig, MinGridSize, MaxGridSize, config.GridSize)
	}
	if config.TimeLimit != nil && *config.TimeLimit < 0 {
		return fmt.Errorf("%w: time_limit must not be negative, got %d", ErrInvalidConfig, *config.TimeLimit)
	}
	return nil
}

// contentConfig mirrors the mini-game contentJson stored with a story page
type contentConfig struct {
	GridSize        int    `json:"gridSize"`
	ImageURL        string `json:"imageUrl"`
	TimeLimit       *int   `json:"timeLimit"`
	InstructionText string `json:"instructionText"`
	Title           string `json:"title"`
	Description     string `json:"description"`
}

// ParseContentJSON decodes a mini-game content document into a PuzzleConfig.
// Missing fields fall back to defaults. A zero time limit means untimed.
func ParseContentJSON(data []byte) (*PuzzleConfig, error) {
	var content contentConfig
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("%w: invalid content JSON: %v", ErrInvalidConfig, err)
	}

	config := &PuzzleConfig{
		Name:            content.Title,
		Description:     content.Description,
		GridSize:        content.GridSize,
		ImageURL:        content.ImageURL,
		InstructionText: content.InstructionText,
	}
	if config.GridSize == 0 {
		config.GridSize = DefaultGridSize
	}
	if config.ImageURL == "" {
		config.ImageURL = DefaultImageURL
	}
	if config.InstructionText == "" {
		config.InstructionText = DefaultInstructionText
	}
	if content.TimeLimit != nil && *content.TimeLimit != 0 {
		config.TimeLimit = IntPtr(*content.TimeLimit)
	}

	if err := ValidatePuzzleConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

func cloneConfig(config *PuzzleConfig) *PuzzleConfig {
	if config == nil {
		return nil
	}
	c := *config
	if config.TimeLimit != nil {
		c.TimeLimit = IntPtr(*config.TimeLimit)
	}
	return &c
}
