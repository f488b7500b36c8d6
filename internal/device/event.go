package device

import "encoding/json"

// Event is the tagged sum type published toward the backend for every
// device-originated occurrence: warning/methodRes/jacsUpload/uploadBin/
// frame/pong/tick.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newEvent(typ string, payload any) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: typ, Payload: b}, nil
}

type warningPayload struct {
	Message string `json:"message"`
}

type jacsUploadPayload struct {
	Label  string    `json:"label"`
	Values []float64 `json:"values"`
}

type uploadBinPayload struct {
	Payload64 string `json:"payload64"`
}

type methodResPayload struct {
	RID        uint32    `json:"rid"`
	StatusCode uint32    `json:"statusCode"`
	Result     []float64 `json:"result"`
}

type pongPayload struct {
	Payload64 string `json:"payload64"`
}

type framePayload struct {
	Payload64 string `json:"payload64"`
}

type tickPayload struct {
	Stats map[string]int `json:"stats"`
}
