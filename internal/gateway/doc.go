// Package gateway wires the device-facing HTTP surface (C5): a
// gorilla/mux route accepting websocket upgrades, a Transport adapter over
// gorilla/websocket, and the per-connection glue that drives the handshake,
// constructs a device.Session, and bridges it to the backend pubsub plane.
package gateway
