// Package ipc exposes daemon control over JSON-RPC on a Unix domain socket.
//
// The server side wraps the daemon; the client side is consumed by the
// focusctl CLI. Request and response types are plain structs so the wire
// format stays stable and independent of internal representations.
package ipc
