// Package service provides the business logic layer for the picture puzzle.
//
// The service package implements:
//   - Multi-session puzzle management
//   - Preset lookup and content-document sessions
//   - Selection, swap and countdown forwarding
//   - Hints computed from the current arrangement
//
// Core Interfaces:
//
// PuzzleService is the main service interface providing high-level puzzle
// operations. SessionManager handles session creation, retrieval, and
// lifecycle. ConfigManager loads puzzle presets.
//
// Architecture:
//
// The service layer sits between a front end (the CLI, or anything that
// subscribes to the event hub) and the puzzle engine. Each session owns its
// own engine and every state change of that engine is published to the hub
// when one is attached.
//
// Usage:
//
//	hub := events.NewHub()
//	go hub.Run(ctx)
//
//	sessionMgr := session.NewManager()
//	configMgr := config.NewManager("configs")
//	puzzles := service.NewPuzzleService(sessionMgr, configMgr, service.WithHub(hub))
//
//	info, err := puzzles.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := puzzles.Swap(ctx, info.ID, 0, 5)
package service
