// Package websocket streams forecast run events to connected browsers.
//
// A Hub fans every published events.Message out to all registered clients.
// Each client owns a read pump that only watches for disconnects and
// heartbeats, and a write pump that drains its buffered send queue and
// keeps the connection alive with pings.
package websocket
