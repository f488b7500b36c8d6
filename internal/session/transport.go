package session

// Transport is the minimal shape the session layer needs from the
// underlying byte stream: a message-framed, bidirectional channel where one
// transport message carries exactly one handshake/record unit. C5's
// websocket adapter implements this; the crypto/session code never imports
// a transport library directly.
type Transport interface {
	ReadMessage() ([]byte, error)
	WriteMessage(p []byte) error
	Close(reason string) error
}
