package imagepkg

import (
	"bytes"
	"encoding/json"

	"github.com/youruser/idcardapp/internal/roster"
)

// Payload is the identity encoded into a participant's code. Field order is
// fixed by the struct so the serialized form is stable across runs.
type Payload struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	Email         string `json:"email"`
}

// PayloadFor builds the identity payload of p.
func PayloadFor(p roster.Participant) Payload {
	return Payload{ParticipantID: p.ID, Name: p.Name, Email: p.Email}
}

// Encode serializes the payload as compact JSON without HTML escaping.
func (p Payload) Encode() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// DecodePayload parses text produced by Payload.Encode.
func DecodePayload(text string) (Payload, error) {
	var p Payload
	err := json.Unmarshal([]byte(text), &p)
	return p, err
}
