// Package ws upgrades dispatch requests to WebSocket connections.
//
// Upgrade puts the response builder into passthrough mode before the
// protocol switch, so the dispatch root leaves the hijacked connection
// alone. Headers accumulated on the builder before Upgrade are included
// in the handshake response.
package ws
