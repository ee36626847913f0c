package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/picture-puzzle/game/engine"
	"github.com/wricardo/picture-puzzle/game/events"
	"github.com/wricardo/picture-puzzle/game/solver"
)

// ContentConfigName is the config name recorded for sessions built from a
// content document rather than a preset
const ContentConfigName = "content"

var (
	ErrNoSessionManager = errors.New("service has no session manager")
	ErrNoActivePuzzle   = errors.New("session has no active puzzle")
)

// Publisher receives session events. *events.Hub satisfies it once its Run
// loop is started.
type Publisher interface {
	Publish(ev events.Event)
}

// Option configures a puzzleService
type Option func(*puzzleService)

// WithPublisher attaches an event sink that sees every state change
func WithPublisher(p Publisher) Option {
	return func(s *puzzleService) { s.publisher = p }
}

// WithHub attaches an event hub; the hub must be running
func WithHub(h *events.Hub) Option {
	return WithPublisher(h)
}

// WithLogger sets the logger used by the service
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *puzzleService) { s.log = log }
}

// puzzleService implements the PuzzleService interface
type puzzleService struct {
	sessionManager SessionManager
	configManager  ConfigManager
	publisher      Publisher
	log            logrus.FieldLogger
}

// NewPuzzleService creates a new puzzle service
func NewPuzzleService(sessionManager SessionManager, configManager ConfigManager, opts ...Option) PuzzleService {
	s := &puzzleService{
		sessionManager: sessionManager,
		configManager:  configManager,
		log:            logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new session from a named preset, or the default
// preset when configName is empty
func (s *puzzleService) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	var config *engine.PuzzleConfig
	var err error
	if configName == "" {
		config, err = s.configManager.GetDefault()
		configName = "default"
	} else {
		config, err = s.configManager.LoadConfig(configName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config %q: %w", configName, err)
	}
	return s.createSession(configName, config)
}

// CreateSessionFromContent creates a session from a story mini-game document
func (s *puzzleService) CreateSessionFromContent(ctx context.Context, content []byte) (*SessionInfo, error) {
	config, err := engine.ParseContentJSON(content)
	if err != nil {
		return nil, err
	}
	return s.createSession(ContentConfigName, config)
}

func (s *puzzleService) createSession(configName string, config *engine.PuzzleConfig) (*SessionInfo, error) {
	if s.sessionManager == nil {
		return nil, ErrNoSessionManager
	}
	sess, err := s.sessionManager.Create("", configName, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if s.publisher != nil {
		id := sess.ID
		sess.Engine.OnChange(func(snap engine.Snapshot) {
			s.publisher.Publish(events.NewEvent(id, snap))
		})
		s.publisher.Publish(events.NewEvent(id, sess.Engine.Snapshot()))
	}

	s.log.WithFields(logrus.Fields{
		"session": sess.ID,
		"config":  configName,
		"grid":    config.GridSize,
	}).Info("session created")
	return sess.Info(), nil
}

// GetSession retrieves session information
func (s *puzzleService) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Info(), nil
}

// ListSessions returns all sessions, oldest first
func (s *puzzleService) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessionManager.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	infos := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		infos = append(infos, sess.Info())
	}
	return infos, nil
}

// DeleteSession removes a session and cancels any pending win
func (s *puzzleService) DeleteSession(ctx context.Context, sessionID string) error {
	sess, err := s.sessionManager.Get(sessionID)
	if err != nil {
		return err
	}
	if err := s.sessionManager.Delete(sessionID); err != nil {
		return err
	}
	// Reset bumps the generation so a queued win never fires into a dead session
	sess.Engine.Reset()
	if s.publisher != nil {
		ev := events.NewEvent(sess.ID, sess.Engine.Snapshot())
		ev.Type = events.EventDeleted
		s.publisher.Publish(ev)
	}
	s.log.WithField("session", sess.ID).Info("session deleted")
	return nil
}

// SelectPiece forwards a piece click; a second click on another piece swaps
func (s *puzzleService) SelectPiece(ctx context.Context, sessionID string, pieceID int) (*MoveResult, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	before := sess.Engine.Snapshot()
	if err := sess.Engine.SelectPiece(pieceID); err != nil {
		return nil, err
	}
	after := sess.Engine.Snapshot()
	return buildMoveResult(before, after), nil
}

// Swap exchanges two pieces directly
func (s *puzzleService) Swap(ctx context.Context, sessionID string, pieceIDA, pieceIDB int) (*MoveResult, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	before := sess.Engine.Snapshot()
	if err := sess.Engine.Swap(pieceIDA, pieceIDB); err != nil {
		return nil, err
	}
	after := sess.Engine.Snapshot()
	return buildMoveResult(before, after), nil
}

// Tick decrements the countdown of a session by one second
func (s *puzzleService) Tick(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	sess, err := s.sessionManager.Get(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Engine.DecrementTimer()
	snap := sess.Engine.Snapshot()
	return &snap, nil
}

// CloseVictoryScreen hides the victory overlay
func (s *puzzleService) CloseVictoryScreen(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Engine.CloseVictoryScreen()
	snap := sess.Engine.Snapshot()
	return &snap, nil
}

// CloseDefeatScreen hides the defeat overlay
func (s *puzzleService) CloseDefeatScreen(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Engine.CloseDefeatScreen()
	snap := sess.Engine.Snapshot()
	return &snap, nil
}

// Reset returns the session engine to its loading state
func (s *puzzleService) Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	sess.Engine.Reset()
	snap := sess.Engine.Snapshot()
	return &snap, nil
}

// Restart reshuffles the session with the config it was created with
func (s *puzzleService) Restart(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Engine.Initialize(*sess.Config); err != nil {
		return nil, fmt.Errorf("failed to restart session: %w", err)
	}
	s.log.WithField("session", sess.ID).Debug("session restarted")
	return sess.Info(), nil
}

// Hint suggests the next swap of a shortest solution
func (s *puzzleService) Hint(ctx context.Context, sessionID string) (*HintResult, error) {
	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	pieces := sess.Engine.Snapshot().Pieces
	if len(pieces) == 0 {
		return nil, ErrNoActivePuzzle
	}
	move, ok, err := solver.Hint(pieces)
	if err != nil {
		return nil, err
	}
	remaining, err := solver.MinSwaps(pieces)
	if err != nil {
		return nil, err
	}

	result := &HintResult{Remaining: remaining, Solved: !ok}
	if ok {
		result.Move = &move
	}
	return result, nil
}

// ListConfigs returns all available presets
func (s *puzzleService) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configManager.ListConfigs()
}

// LoadConfig loads a preset by name
func (s *puzzleService) LoadConfig(ctx context.Context, name string) (*engine.PuzzleConfig, error) {
	return s.configManager.LoadConfig(name)
}

// touch looks up a session and records the access
func (s *puzzleService) touch(sessionID string) (*Session, error) {
	sess, err := s.sessionManager.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessionManager.UpdateLastAccessed(sess.ID); err != nil {
		s.log.WithError(err).WithField("session", sess.ID).Warn("failed to update last access")
	}
	return sess, nil
}

func buildMoveResult(before, after engine.Snapshot) *MoveResult {
	result := &MoveResult{
		Swapped: after.Moves > before.Moves,
		State:   after,
		Progress: Progress{
			Correct: after.CorrectCount(),
			Total:   len(after.Pieces),
		},
	}
	if remaining, err := solver.MinSwaps(after.Pieces); err == nil {
		result.Progress.Remaining = remaining
	}
	result.Solved = len(after.Pieces) > 0 && result.Progress.Remaining == 0

	switch {
	case after.Status != engine.StatusPlaying && after.Status != engine.StatusWon:
		result.Message = fmt.Sprintf("Input ignored, puzzle is %s", after.Status)
	case result.Solved && result.Swapped:
		result.Message = "Solved!"
	case result.Swapped:
		result.Message = fmt.Sprintf("Swapped, %d of %d pieces in place", result.Progress.Correct, result.Progress.Total)
	case after.SelectedPieceID != nil:
		result.Message = fmt.Sprintf("Piece %d selected", *after.SelectedPieceID)
	case before.SelectedPieceID != nil:
		result.Message = "Selection cleared"
	default:
		result.Message = "No change"
	}
	return result
}
