// Package api defines the core data types shared by the flow runner
//
// This package contains flow definitions, step and run results, the context
// map passed between tasks, and the HTTP and WebSocket messages exchanged
// with callers
package api
