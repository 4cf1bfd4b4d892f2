// Package ws serves the websocket endpoint: workflow and step snapshots are
// pushed as they happen, and peers can chat with the model about the
// current page, run commands, and start or cancel workflows.
package ws
