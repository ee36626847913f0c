package engine

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Engine provides the main interface for puzzle operations
type Engine interface {
	// Session lifecycle
	Initialize(config PuzzleConfig) error
	InitializeFromContent(data []byte) error
	Reset()

	// Input
	SelectPiece(pieceID int) error
	Swap(pieceIDA, pieceIDB int) error
	DecrementTimer()

	// Overlays
	CloseVictoryScreen()
	CloseDefeatScreen()

	// Observation
	Snapshot() Snapshot
	Status() Status
	IsSolved() bool
}

// ChangeHandler receives a snapshot after every state change
type ChangeHandler func(Snapshot)

// Option configures a PuzzleEngine
type Option func(*PuzzleEngine)

// WithRand sets the random source used for shuffling
func WithRand(rng *rand.Rand) Option {
	return func(e *PuzzleEngine) { e.rng = rng }
}

// WithSeed seeds the shuffle source deterministically
func WithSeed(seed int64) Option {
	return func(e *PuzzleEngine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithScheduler sets the scheduler for the deferred win transition
func WithScheduler(s Scheduler) Option {
	return func(e *PuzzleEngine) { e.scheduler = s }
}

// WithLogger sets the logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *PuzzleEngine) { e.log = log }
}

// WithInputLockOnSolve ignores input and timer ticks between the solving swap
// and the won transition. By default input stays open during that window.
func WithInputLockOnSolve() Option {
	return func(e *PuzzleEngine) { e.lockOnSolve = true }
}

// WithChangeHandler registers a callback invoked after each state change,
// including the deferred win transition. Handlers run without the engine lock.
func WithChangeHandler(h ChangeHandler) Option {
	return func(e *PuzzleEngine) { e.handlers = append(e.handlers, h) }
}

type sessionState struct {
	status      Status
	config      *PuzzleConfig
	pieces      []Piece
	timeLeft    *int
	moves       int
	selected    *int
	showVictory bool
	showDefeat  bool
	lastErr     error
}

// PuzzleEngine implements the Engine interface
type PuzzleEngine struct {
	mu          sync.Mutex
	state       sessionState
	generation  uint64
	winPending  bool
	winTimer    Timer
	rng         *rand.Rand
	scheduler   Scheduler
	log         logrus.FieldLogger
	lockOnSolve bool
	handlers    []ChangeHandler
}

// New creates an engine in the loading state
func New(opts ...Option) *PuzzleEngine {
	e := &PuzzleEngine{
		state: sessionState{status: StatusLoading},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.scheduler == nil {
		e.scheduler = RealScheduler{}
	}
	if e.log == nil {
		e.log = logrus.StandardLogger()
	}
	return e
}

// OnChange registers an additional change handler
func (e *PuzzleEngine) OnChange(h ChangeHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
}

// Initialize starts a new session from config, replacing any previous one.
// An invalid config moves the engine to the error status.
func (e *PuzzleEngine) Initialize(config PuzzleConfig) error {
	if err := ValidatePuzzleConfig(&config); err != nil {
		e.fail(err)
		return err
	}

	e.mu.Lock()
	e.beginGenerationLocked()

	pieces, attempts := shufflePieces(e.rng, config.PieceCount())
	e.state = sessionState{
		status: StatusPlaying,
		config: cloneConfig(&config),
		pieces: pieces,
	}
	if config.TimeLimit != nil {
		e.state.timeLeft = IntPtr(*config.TimeLimit)
	}

	e.log.WithFields(logrus.Fields{
		"generation": e.generation,
		"grid_size":  config.GridSize,
		"timed":      config.Timed(),
		"reshuffles": attempts,
	}).Debug("Puzzle initialized")

	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
	return nil
}

// InitializeFromContent parses a mini-game content document and initializes
// from it. Unparseable content moves the engine to the error status.
func (e *PuzzleEngine) InitializeFromContent(data []byte) error {
	config, err := ParseContentJSON(data)
	if err != nil {
		e.fail(err)
		return err
	}
	return e.Initialize(*config)
}

// fail replaces the session with an error state
func (e *PuzzleEngine) fail(err error) {
	e.mu.Lock()
	e.beginGenerationLocked()
	e.state = sessionState{status: StatusError, lastErr: err}
	e.log.WithField("error", err).Warn("Puzzle entered error state")
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
}

// Reset returns the engine to the pre-initialization state
func (e *PuzzleEngine) Reset() {
	e.mu.Lock()
	e.beginGenerationLocked()
	e.state = sessionState{status: StatusLoading}
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
}

// beginGenerationLocked invalidates any pending deferred transition
func (e *PuzzleEngine) beginGenerationLocked() {
	e.generation++
	if e.winTimer != nil {
		e.winTimer.Stop()
		e.winTimer = nil
	}
	e.winPending = false
}

// acceptingInputLocked reports whether moves and ticks are processed
func (e *PuzzleEngine) acceptingInputLocked() bool {
	if e.state.status != StatusPlaying {
		return false
	}
	return !(e.lockOnSolve && e.winPending)
}

// SelectPiece handles a click on a piece: toggles it, selects it, or swaps it
// with the current selection.
func (e *PuzzleEngine) SelectPiece(pieceID int) error {
	e.mu.Lock()
	if !e.acceptingInputLocked() {
		e.mu.Unlock()
		return nil
	}
	if e.findLocked(pieceID) < 0 {
		e.mu.Unlock()
		return fmt.Errorf("select piece %d: %w", pieceID, ErrUnknownPiece)
	}

	switch {
	case e.state.selected != nil && *e.state.selected == pieceID:
		e.state.selected = nil
	case e.state.selected == nil:
		e.state.selected = IntPtr(pieceID)
	default:
		e.swapLocked(*e.state.selected, pieceID)
	}

	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
	return nil
}

// Swap exchanges the slots of two pieces and counts a move
func (e *PuzzleEngine) Swap(pieceIDA, pieceIDB int) error {
	e.mu.Lock()
	if !e.acceptingInputLocked() {
		e.mu.Unlock()
		return nil
	}
	if pieceIDA == pieceIDB {
		e.mu.Unlock()
		return fmt.Errorf("swap piece %d: %w", pieceIDA, ErrSamePiece)
	}
	for _, id := range []int{pieceIDA, pieceIDB} {
		if e.findLocked(id) < 0 {
			e.mu.Unlock()
			return fmt.Errorf("swap piece %d: %w", id, ErrUnknownPiece)
		}
	}

	e.swapLocked(pieceIDA, pieceIDB)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
	return nil
}

// swapLocked assumes both pieces exist
func (e *PuzzleEngine) swapLocked(pieceIDA, pieceIDB int) {
	a, b := e.findLocked(pieceIDA), e.findLocked(pieceIDB)
	pieces := e.state.pieces
	pieces[a].CurrentIndex, pieces[b].CurrentIndex = pieces[b].CurrentIndex, pieces[a].CurrentIndex

	e.state.moves++
	e.state.selected = nil

	if IsSolvedPieces(pieces) && !e.winPending {
		e.scheduleWinLocked()
	}
}

// scheduleWinLocked arms the deferred won transition for the current generation
func (e *PuzzleEngine) scheduleWinLocked() {
	gen := e.generation
	e.winPending = true
	e.winTimer = e.scheduler.AfterFunc(WinDelay, func() {
		e.commitWin(gen)
	})
	e.log.WithFields(logrus.Fields{
		"generation": gen,
		"moves":      e.state.moves,
	}).Debug("Puzzle solved, victory scheduled")
}

// commitWin applies a deferred win unless its session has been replaced or
// already ended. Solved-ness is not checked again.
func (e *PuzzleEngine) commitWin(gen uint64) {
	e.mu.Lock()
	if gen != e.generation || e.state.status != StatusPlaying {
		e.log.WithFields(logrus.Fields{
			"scheduled_generation": gen,
			"current_generation":   e.generation,
			"status":               e.state.status,
		}).Debug("Discarding stale victory transition")
		e.mu.Unlock()
		return
	}

	e.winPending = false
	e.winTimer = nil
	e.state.status = StatusWon
	e.state.showVictory = true
	e.log.WithFields(logrus.Fields{
		"generation": gen,
		"moves":      e.state.moves,
	}).Debug("Puzzle won")

	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
}

// DecrementTimer consumes one second of a timed puzzle. Reaching zero loses
// the game immediately.
func (e *PuzzleEngine) DecrementTimer() {
	e.mu.Lock()
	if !e.acceptingInputLocked() || e.state.timeLeft == nil || *e.state.timeLeft <= 0 {
		e.mu.Unlock()
		return
	}

	left := *e.state.timeLeft - 1
	e.state.timeLeft = IntPtr(left)
	if left == 0 {
		e.state.status = StatusLost
		e.state.showDefeat = true
		e.log.WithFields(logrus.Fields{
			"generation": e.generation,
			"moves":      e.state.moves,
		}).Debug("Time is up, puzzle lost")
	}

	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
}

// CloseVictoryScreen clears the victory overlay flag
func (e *PuzzleEngine) CloseVictoryScreen() {
	e.mu.Lock()
	e.state.showVictory = false
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
}

// CloseDefeatScreen clears the defeat overlay flag
func (e *PuzzleEngine) CloseDefeatScreen() {
	e.mu.Lock()
	e.state.showDefeat = false
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
}

// SetPieces replaces the arrangement of a live session. The pieces must be a
// complete, consistent set for the configured grid. No move is counted and no
// win is scheduled.
func (e *PuzzleEngine) SetPieces(pieces []Piece) error {
	e.mu.Lock()
	if e.state.config == nil {
		e.mu.Unlock()
		return fmt.Errorf("set pieces: no active puzzle")
	}
	if err := ValidatePieces(pieces, e.state.config.PieceCount()); err != nil {
		e.mu.Unlock()
		return err
	}

	e.state.pieces = copyPieces(pieces)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.notify(snap)
	return nil
}

// ValidatePieces checks that pieces hold ids 0..n-1 with CorrectIndex == ID and
// that their CurrentIndex values form a permutation of 0..n-1.
func ValidatePieces(pieces []Piece, n int) error {
	if len(pieces) != n {
		return fmt.Errorf("pieces: expected %d pieces, got %d", n, len(pieces))
	}
	seenID := make([]bool, n)
	seenSlot := make([]bool, n)
	for _, p := range pieces {
		if p.ID < 0 || p.ID >= n || seenID[p.ID] {
			return fmt.Errorf("pieces: invalid or duplicate id %d: %w", p.ID, ErrUnknownPiece)
		}
		if p.CorrectIndex != p.ID {
			return fmt.Errorf("pieces: piece %d has correct index %d", p.ID, p.CorrectIndex)
		}
		if p.CurrentIndex < 0 || p.CurrentIndex >= n || seenSlot[p.CurrentIndex] {
			return fmt.Errorf("pieces: invalid or duplicate slot %d", p.CurrentIndex)
		}
		seenID[p.ID] = true
		seenSlot[p.CurrentIndex] = true
	}
	return nil
}

func (e *PuzzleEngine) findLocked(pieceID int) int {
	for i, p := range e.state.pieces {
		if p.ID == pieceID {
			return i
		}
	}
	return -1
}

// Snapshot returns a copy of the observable state
func (e *PuzzleEngine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *PuzzleEngine) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:            e.state.status,
		Config:            cloneConfig(e.state.config),
		Pieces:            copyPieces(e.state.pieces),
		Moves:             e.state.moves,
		ShowVictoryScreen: e.state.showVictory,
		ShowDefeatScreen:  e.state.showDefeat,
		Generation:        e.generation,
	}
	if e.state.timeLeft != nil {
		snap.TimeLeft = IntPtr(*e.state.timeLeft)
	}
	if e.state.selected != nil {
		snap.SelectedPieceID = IntPtr(*e.state.selected)
	}
	if e.state.lastErr != nil {
		snap.LastError = e.state.lastErr.Error()
	}
	return snap
}

func (e *PuzzleEngine) notify(snap Snapshot) {
	e.mu.Lock()
	handlers := make([]ChangeHandler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.Unlock()

	for _, h := range handlers {
		h(snap)
	}
}

// Status returns the current status
func (e *PuzzleEngine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.status
}

// IsSolved reports whether every piece of the live session is in place.
// It is false before initialization.
func (e *PuzzleEngine) IsSolved() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.state.pieces) > 0 && IsSolvedPieces(e.state.pieces)
}

// Moves returns the number of completed swaps
func (e *PuzzleEngine) Moves() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.moves
}

// TimeLeft returns the remaining seconds and whether the puzzle is timed
func (e *PuzzleEngine) TimeLeft() (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.timeLeft == nil {
		return 0, false
	}
	return *e.state.timeLeft, true
}

// Config returns a copy of the active configuration, or nil
func (e *PuzzleEngine) Config() *PuzzleConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneConfig(e.state.config)
}

// Generation returns the session generation; it changes on every Initialize and Reset
func (e *PuzzleEngine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// WinPending reports whether a victory transition is scheduled
func (e *PuzzleEngine) WinPending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.winPending
}
