// Package engine provides the core logic of the picture swap puzzle.
//
// The engine package implements the game mechanics including:
//   - Shuffling the pieces into a random, never pre-solved arrangement
//   - Piece selection and swapping, with a move counter
//   - Win detection with a short deferred victory transition
//   - Countdown handling and timed defeat
//   - Parsing of story mini-game content documents
//
// Core Types:
//
// The Engine interface defines the main contract for puzzle operations,
// implemented by PuzzleEngine. Snapshot is a copy of the observable state
// handed to the UI, while PuzzleConfig describes the grid size and optional
// time limit.
//
// Usage:
//
//	e := engine.New(engine.WithChangeHandler(render))
//	if err := e.Initialize(engine.PuzzleConfig{GridSize: 3, TimeLimit: engine.IntPtr(90)}); err != nil {
//		log.Fatal(err)
//	}
//
//	// Forward clicks; a second click on another piece swaps the two
//	_ = e.SelectPiece(4)
//	_ = e.SelectPiece(7)
//
//	// Tick once per second while playing
//	e.DecrementTimer()
//
// Game Rules:
//
// A picture is cut into GridSize x GridSize pieces which start shuffled.
// Each swap exchanges the slots of two pieces. When every piece sits on its
// correct slot the session is won after WinDelay. A timed puzzle whose
// countdown reaches zero is lost at once.
//
// The engine owns no clock. The deferred win goes through a Scheduler and the
// countdown is ticked by the caller, see package timer.
package engine
