package events

import (
	"encoding/json"

	"github.com/Akshay-cybersec/NeuroVibe/internal/domain/models"
)

const (
	TypeIdentify     = "identify"
	TypeSpeech       = "speech"
	TypeMorse        = "morse"
	TypeReceiverList = "receiver_list"
	TypeDisconnect   = "disconnect"
	TypePing         = "ping"
	TypeError        = "error"
)

// Message is the envelope for every signal crossing the transport.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessage marshals the payload into an envelope. Payloads are plain
// structs from this package, marshalling them never fails.
func NewMessage(typ string, payload any) Message {
	if payload == nil {
		return Message{Type: typ}
	}

	data, _ := json.Marshal(payload)

	return Message{Type: typ, Data: data}
}

// IdentifyEvent - a participant announcing itself right after connect
type IdentifyEvent struct {
	User models.Participant `json:"user"`
}

// SpeechEvent - raw loudness sample, bounded 0..100
type SpeechEvent struct {
	Intensity int `json:"intensity"`
}

// MorseEvent - encoded tactile signal; Code is never empty on the wire
type MorseEvent struct {
	Text    string `json:"text"`
	Code    string `json:"code"`
	Emotion string `json:"emotion,omitempty"`
}

// ReceiverListEvent - currently connected receivers of a room
type ReceiverListEvent struct {
	Users []models.Participant `json:"users"`
}

// ErrorEvent - non-fatal protocol errors surfaced to the offending client
type ErrorEvent struct {
	Message string `json:"message"`
}
