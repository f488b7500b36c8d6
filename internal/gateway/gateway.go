package gateway

import (
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// Gateway is the device-facing HTTP surface: a mux.Router serving the
// websocket upgrade route, backed by a set of swappable collaborators and
// a registry of currently-connected device paths used to reject a second
// concurrent session for the same device (§9).
type Gateway struct {
	collab   Collaborators
	upgrader websocket.Upgrader

	active sync.Map // devicePath string -> struct{}
}

// New builds a Gateway. The websocket upgrader accepts any origin, matching
// a device-facing API with no browser client to protect against CSRF-style
// cross-origin abuse.
func New(collab Collaborators) *Gateway {
	return &Gateway{
		collab: collab,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router registers the device-facing route on a fresh mux.Router, the same
// way the teacher's NewRouter builds and returns one.
func (g *Gateway) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("OK")) }).Methods("GET")
	r.HandleFunc("/wssk/{partId}/{deviceId}", g.serveWS).Methods("GET")
	return r
}

func (g *Gateway) serveWS(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	partID := vars["partId"]
	deviceID := vars["deviceId"]
	if partID == "" || deviceID == "" {
		http.Error(w, "missing partId/deviceId", http.StatusBadRequest)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logf("websocket upgrade failed for %s/%s: %v", partID, deviceID, err)
		return
	}

	transport := newWSTransport(conn)
	g.handleConn(r.Context(), transport, partID, deviceID)
}

// claim registers devicePath as active, returning false if it was already
// claimed — the concurrent-session rejection named in §9.
func (g *Gateway) claim(devicePath string) bool {
	_, loaded := g.active.LoadOrStore(devicePath, struct{}{})
	return !loaded
}

func (g *Gateway) release(devicePath string) {
	g.active.Delete(devicePath)
}
