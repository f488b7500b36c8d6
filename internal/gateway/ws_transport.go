package gateway

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/harrylevesque/wssgateway/internal/gatewaycore"
)

const closeWriteBudget = 2 * time.Second

// wsTransport adapts a *websocket.Conn to session.Transport, keeping the
// gorilla/websocket dependency out of the crypto/session layer entirely.
type wsTransport struct {
	conn *websocket.Conn
}

func newWSTransport(conn *websocket.Conn) *wsTransport {
	return &wsTransport{conn: conn}
}

// ReadMessage returns one binary websocket message's payload. Text frames
// are rejected the same way a malformed selector is: as an auth failure,
// since every framing unit on this wire — selector, hello, auth record,
// every subsequent record — is binary.
func (t *wsTransport) ReadMessage() ([]byte, error) {
	kind, data, err := t.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if kind != websocket.BinaryMessage {
		return nil, &gatewaycore.AuthError{Reason: "non-binary websocket frame"}
	}
	return data, nil
}

func (t *wsTransport) WriteMessage(p []byte) error {
	return t.conn.WriteMessage(websocket.BinaryMessage, p)
}

func (t *wsTransport) Close(reason string) error {
	deadline := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	_ = t.conn.WriteControl(websocket.CloseMessage, deadline, time.Now().Add(closeWriteBudget))
	return t.conn.Close()
}
