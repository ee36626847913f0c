package engine

import "time"

// Status represents the lifecycle state of a puzzle session
type Status string

const (
	StatusLoading Status = "loading"
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
	StatusError   Status = "error"

	// Validation constants
	MinGridSize = 2
	MaxGridSize = 12

	// DefaultGridSize is used when content JSON omits gridSize
	DefaultGridSize = 3

	// MaxShuffleAttempts bounds the reshuffles done to avoid a solved start
	MaxShuffleAttempts = 10

	// WinDelay is the pause between the solving swap and the won status
	WinDelay = 300 * time.Millisecond
)

// IsTerminal reports whether the status ends the session
func (s Status) IsTerminal() bool {
	return s == StatusWon || s == StatusLost
}

// PuzzleConfig represents a puzzle configuration
type PuzzleConfig struct {
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	GridSize    int    `json:"grid_size" yaml:"grid_size"`
	TimeLimit   *int   `json:"time_limit,omitempty" yaml:"time_limit,omitempty"` // seconds, nil = untimed

	// Rendering hints passed through to the UI; the engine never reads them.
	ImageURL        string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	InstructionText string `json:"instruction_text,omitempty" yaml:"instruction_text,omitempty"`
}

// PieceCount returns the number of pieces in the grid
func (c PuzzleConfig) PieceCount() int {
	return c.GridSize * c.GridSize
}

// Timed reports whether the config carries a countdown
func (c PuzzleConfig) Timed() bool {
	return c.TimeLimit != nil
}

// Piece is one tile of the picture
type Piece struct {
	ID           int `json:"id"`
	CorrectIndex int `json:"correct_index"`
	CurrentIndex int `json:"current_index"`
}

// InPlace reports whether the piece occupies its solved slot
func (p Piece) InPlace() bool {
	return p.CurrentIndex == p.CorrectIndex
}

// Snapshot is a copy of the observable session state
type Snapshot struct {
	Status            Status        `json:"status"`
	Config            *PuzzleConfig `json:"config,omitempty"`
	Pieces            []Piece       `json:"pieces"`
	TimeLeft          *int          `json:"time_left,omitempty"`
	Moves             int           `json:"moves"`
	SelectedPieceID   *int          `json:"selected_piece_id,omitempty"`
	ShowVictoryScreen bool          `json:"show_victory_screen"`
	ShowDefeatScreen  bool          `json:"show_defeat_screen"`
	Generation        uint64        `json:"generation"`
	LastError         string        `json:"last_error,omitempty"`
}

// CorrectCount returns how many pieces are in their solved slot
func (s Snapshot) CorrectCount() int {
	count := 0
	for _, p := range s.Pieces {
		if p.InPlace() {
			count++
		}
	}
	return count
}

// Board returns piece IDs ordered by the slot they occupy
func (s Snapshot) Board() []int {
	board := make([]int, len(s.Pieces))
	for _, p := range s.Pieces {
		if p.CurrentIndex >= 0 && p.CurrentIndex < len(board) {
			board[p.CurrentIndex] = p.ID
		}
	}
	return board
}
