// Package events fans puzzle state changes out to in-process observers.
//
// A UI layer subscribes to a session and receives an Event carrying a full
// engine.Snapshot after every change, including the deferred victory
// transition that happens without any call from the UI.
//
// Usage:
//
//	hub := events.NewHub()
//	go hub.Run(ctx)
//
//	sub := hub.Subscribe(sessionID)
//	defer sub.Close()
//
//	for ev := range sub.Events() {
//		render(ev.Snapshot)
//	}
//
// Subscribers that fall behind by more than their buffer are dropped and
// their channel is closed, so a stuck observer never blocks the engine.
package events
