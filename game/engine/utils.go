package engine

import (
	"fmt"
	"math/rand"
)

// RowCol returns the row and column of a slot index in a gridSize x gridSize grid
func RowCol(index, gridSize int) (row, col int) {
	return index / gridSize, index % gridSize
}

// FormatTime renders a countdown value as m:ss
func FormatTime(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// IsSolvedPieces reports whether every piece sits on its correct slot
func IsSolvedPieces(pieces []Piece) bool {
	for _, p := range pieces {
		if !p.InPlace() {
			return false
		}
	}
	return true
}

// orderedPieces builds the solved piece set for n pieces
func orderedPieces(n int) []Piece {
	pieces := make([]Piece, n)
	for i := range pieces {
		pieces[i] = Piece{ID: i, CorrectIndex: i, CurrentIndex: i}
	}
	return pieces
}

// shufflePieces returns a uniformly shuffled copy of ordered with CurrentIndex
// assigned by position. It reshuffles up to MaxShuffleAttempts times while the
// result is solved and then accepts whatever it has.
func shufflePieces(rng *rand.Rand, n int) (pieces []Piece, attempts int) {
	shuffle := func() []Piece {
		p := orderedPieces(n)
		rng.Shuffle(len(p), func(i, j int) { p[i], p[j] = p[j], p[i] })
		for i := range p {
			p[i].CurrentIndex = i
		}
		return p
	}

	pieces = shuffle()
	for IsSolvedPieces(pieces) && attempts < MaxShuffleAttempts {
		pieces = shuffle()
		attempts++
	}
	return pieces, attempts
}

func copyPieces(pieces []Piece) []Piece {
	if pieces == nil {
		return []Piece{}
	}
	out := make([]Piece, len(pieces))
	copy(out, pieces)
	return out
}
