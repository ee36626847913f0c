// Package session provides session management for the picture puzzle.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each service.Session owns its own PuzzleEngine, created with the engine
// options given to the manager, plus the preset it was started from.
//
// Session Identifiers:
//
// Generated IDs are ULIDs, so sessions sort by creation time. Lookups are
// case-insensitive. Callers may also supply their own IDs.
//
// Usage:
//
//	manager := session.NewManager(session.WithEngineOptions(engine.WithInputLockOnSolve()))
//
//	sess, err := manager.Create("", "classic", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//
// Sessions live in memory only. Nothing is persisted across restarts.
package session
