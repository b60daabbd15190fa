// Package stream delivers session events to subscribers without ever blocking the publisher.
//
// Core rule: drop events, never queue. Latency matters more than completeness.
//
// Every subscriber owns one buffered channel scoped to a single session. Publish makes a
// non-blocking send to each subscriber of the session. If a channel is full the event
// is dropped for that subscriber. If nobody is subscribed the event is dropped outright.
// Each subscriber has one channel, so it sees a session's events in publish order
// across all topics.
//
// Usage:
//
//	hub := stream.NewHub(64, logger)
//	defer hub.Close()
//
//	sub, _ := hub.Subscribe("20250101_120000")
//	defer sub.Close()
//
//	for ev := range sub.C {
//	    handle(ev)
//	}
package stream
