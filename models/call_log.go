package models

import (
	"fmt"
	"time"
)

// CallType, arama türü.
type CallType string

const (
	CallTypeVoice CallType = "voice"
	CallTypeVideo CallType = "video"
)

func (t CallType) Valid() bool {
	return t == CallTypeVoice || t == CallTypeVideo
}

// CallLog, append-only arama kaydı. Güncellenmez, silinmez.
type CallLog struct {
	ID         string       `json:"id"`
	CallerID   string       `json:"caller_id"`
	ReceiverID string       `json:"receiver_id"`
	CallType   CallType     `json:"call_type"`
	Duration   int          `json:"duration"` // saniye
	CreatedAt  time.Time    `json:"created_at"`
	Caller     *UserSummary `json:"caller,omitempty"`
	Receiver   *UserSummary `json:"receiver,omitempty"`
}

type CreateCallLogRequest struct {
	CallType CallType `json:"call_type"`
	Duration *int     `json:"duration"`
}

func (r *CreateCallLogRequest) Validate() error {
	if r.CallType == "" || r.Duration == nil {
		return fmt.Errorf("call_type and duration are required")
	}
	if !r.CallType.Valid() {
		return fmt.Errorf("call_type must be voice or video")
	}
	if *r.Duration < 0 {
		return fmt.Errorf("duration cannot be negative")
	}
	return nil
}

type CallTokenRequest struct {
	CallType CallType `json:"call_type"`
}

func (r *CallTokenRequest) Validate() error {
	if !r.CallType.Valid() {
		return fmt.Errorf("call_type must be voice or video")
	}
	return nil
}

// CallToken, LiveKit odasına bağlanmak için gereken bilgiler.
// Oda adı çiftten türetilir; iki taraf da aynı odaya düşer.
type CallToken struct {
	Token    string   `json:"token"`
	URL      string   `json:"url"`
	Room     string   `json:"room"`
	CallType CallType `json:"call_type"`
}
