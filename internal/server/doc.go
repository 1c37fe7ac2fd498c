// Package server exposes the flow runner over HTTP: listing flows, agents
// and tasks, running flows synchronously or as a websocket stream, and
// serving health and metrics endpoints
package server
