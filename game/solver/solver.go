// Package solver plans the swaps that put a shuffled puzzle back in order.
package solver

import (
	"fmt"

	"github.com/wricardo/picture-puzzle/game/engine"
)

// Move is one swap between two pieces, by piece ID
type Move struct {
	PieceA int `json:"piece_a"`
	PieceB int `json:"piece_b"`
}

func (m Move) String() string {
	return fmt.Sprintf("%d<->%d", m.PieceA, m.PieceB)
}

// Plan returns a shortest sequence of swaps that solves the arrangement.
// Every cycle of length k in the permutation costs k-1 swaps.
func Plan(pieces []engine.Piece) ([]Move, error) {
	n := len(pieces)
	if err := engine.ValidatePieces(pieces, n); err != nil {
		return nil, err
	}

	board := make([]int, n)
	for _, p := range pieces {
		board[p.CurrentIndex] = p.ID
	}

	var moves []Move
	for slot := 0; slot < n; slot++ {
		for board[slot] != slot {
			// send the piece sitting here to its home slot
			piece := board[slot]
			displaced := board[piece]
			board[piece], board[slot] = piece, displaced
			moves = append(moves, Move{PieceA: piece, PieceB: displaced})
		}
	}
	return moves, nil
}

// MinSwaps returns the length of the shortest solving sequence
func MinSwaps(pieces []engine.Piece) (int, error) {
	n := len(pieces)
	if err := engine.ValidatePieces(pieces, n); err != nil {
		return 0, err
	}

	slotOf := make([]int, n)
	for _, p := range pieces {
		slotOf[p.ID] = p.CurrentIndex
	}

	visited := make([]bool, n)
	cycles := 0
	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		cycles++
		for id := start; !visited[id]; id = slotOf[id] {
			visited[id] = true
		}
	}
	return n - cycles, nil
}

// Hint returns the first swap of a shortest plan. ok is false when the
// arrangement is already solved.
func Hint(pieces []engine.Piece) (move Move, ok bool, err error) {
	moves, err := Plan(pieces)
	if err != nil || len(moves) == 0 {
		return Move{}, false, err
	}
	return moves[0], true, nil
}

// Apply performs moves on a copy of pieces and returns the result
func Apply(pieces []engine.Piece, moves []Move) ([]engine.Piece, error) {
	out := make([]engine.Piece, len(pieces))
	copy(out, pieces)

	index := make(map[int]int, len(out))
	for i, p := range out {
		index[p.ID] = i
	}
	for _, m := range moves {
		a, okA := index[m.PieceA]
		b, okB := index[m.PieceB]
		if !okA || !okB {
			return nil, fmt.Errorf("apply %s: %w", m, engine.ErrUnknownPiece)
		}
		out[a].CurrentIndex, out[b].CurrentIndex = out[b].CurrentIndex, out[a].CurrentIndex
	}
	return out, nil
}
