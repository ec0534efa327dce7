package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingType is returned for frames without a type
var ErrMissingType = errors.New("message has no type")

// Envelope is the frame every message travels in
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope wraps data in an envelope of the given type
func NewEnvelope(messageType MessageType, data any) (*Envelope, error) {
	env := &Envelope{Type: messageType}
	if data == nil {
		return env, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", messageType, err)
	}
	env.Data = raw
	return env, nil
}

// Encode returns the JSON frame for a message
func Encode(messageType MessageType, data any) ([]byte, error) {
	env, err := NewEnvelope(messageType, data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Decode parses a frame into its envelope
func Decode(frame []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Type == "" {
		return nil, ErrMissingType
	}
	return &env, nil
}

// Unmarshal decodes the envelope's data into v. Missing data leaves v at its
// zero value.
func (e *Envelope) Unmarshal(v any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", e.Type, err)
	}
	return nil
}
