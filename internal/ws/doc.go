// Package ws implements the live-connection surface: the websocket handshake
// with JWT authentication, the per-connection read/write pumps, and the hub
// that maps broadcast groups to live connections and fans out mutation
// events. Delivery is at-most-once; a slow or absent consumer misses events.
package ws
