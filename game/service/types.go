package service

import (
	"time"

	"github.com/wricardo/picture-puzzle/game/engine"
	"github.com/wricardo/picture-puzzle/game/solver"
)

// SessionInfo provides information about a puzzle session
type SessionInfo struct {
	ID             string               `json:"id"`
	ConfigName     string               `json:"config_name"`
	CreatedAt      time.Time            `json:"created_at"`
	LastAccessedAt time.Time            `json:"last_accessed_at"`
	State          engine.Snapshot      `json:"state"`
	Config         *engine.PuzzleConfig `json:"config"`
}

// MoveResult contains the result of a selection or swap
type MoveResult struct {
	Swapped  bool            `json:"swapped"`
	Solved   bool            `json:"solved"`
	Message  string          `json:"message"`
	State    engine.Snapshot `json:"state"`
	Progress Progress        `json:"progress"`
}

// Progress summarizes how close a board is to solved
type Progress struct {
	Correct   int `json:"correct"`
	Total     int `json:"total"`
	Remaining int `json:"remaining_swaps"`
}

// HintResult suggests the next swap on the shortest path to a solved board
type HintResult struct {
	Move      *solver.Move `json:"move,omitempty"`
	Remaining int          `json:"remaining_swaps"`
	Solved    bool         `json:"solved"`
}

// ConfigInfo provides information about a puzzle preset
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	GridSize    int    `json:"grid_size"`
	TimeLimit   *int   `json:"time_limit,omitempty"`
}
