package service

import (
	"context"
	"time"

	"github.com/wricardo/picture-puzzle/game/engine"
)

// PuzzleService defines the business logic interface for puzzle operations
type PuzzleService interface {
	// Session management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	CreateSessionFromContent(ctx context.Context, content []byte) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Input
	SelectPiece(ctx context.Context, sessionID string, pieceID int) (*MoveResult, error)
	Swap(ctx context.Context, sessionID string, pieceIDA, pieceIDB int) (*MoveResult, error)
	Tick(ctx context.Context, sessionID string) (*engine.Snapshot, error)

	// Overlays and lifecycle
	CloseVictoryScreen(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	CloseDefeatScreen(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	Reset(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	Restart(ctx context.Context, sessionID string) (*SessionInfo, error)

	// Assistance
	Hint(ctx context.Context, sessionID string) (*HintResult, error)

	// Presets
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, name string) (*engine.PuzzleConfig, error)
}

// SessionManager handles puzzle session lifecycle
type SessionManager interface {
	Create(id, configName string, config *engine.PuzzleConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles puzzle preset loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.PuzzleConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() (*engine.PuzzleConfig, error)
}

// Session represents a puzzle session
type Session struct {
	ID             string
	Engine         *engine.PuzzleEngine
	ConfigName     string
	Config         *engine.PuzzleConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// Info returns the public view of the session
func (s *Session) Info() *SessionInfo {
	return &SessionInfo{
		ID:             s.ID,
		ConfigName:     s.ConfigName,
		CreatedAt:      s.CreatedAt,
		LastAccessedAt: s.LastAccessedAt,
		State:          s.Engine.Snapshot(),
		Config:         s.Config,
	}
}
