package ws

import (
	"encoding/json"

	"github.com/fathima-sithara/whisper-backend/internal/models"
)

// Client -> server events.
const (
	EventSendMessage      = "sendMessage"
	EventSendGroupMessage = "send-group-message"
	EventCallUser         = "call-user"
	EventAnswerCall       = "answer-call"
	EventICECandidate     = "ice-candidate"
	EventEndCall          = "end-call"
)

// Server -> client events.
const (
	EventReceiveMessage      = "receiveMessage"
	EventReceiveGroupMessage = "receive-group-message"
	EventIncomingCall        = "incoming-call"
	EventCallInitSent        = "call-init-sent"
	EventCallFailed          = "call-failed"
	EventCallAnswered        = "call-answered"
	EventSendError           = "send-error"
)

// Envelope is the wire format for every websocket frame, in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SendMessagePayload is the body of a sendMessage event. Call is required
// for audio/video kinds, which record a finished call's outcome in the
// conversation history.
type SendMessagePayload struct {
	Recipient string             `json:"recipient"`
	Kind      string             `json:"messageType"`
	Content   string             `json:"content,omitempty"`
	FileURL   string             `json:"fileUrl,omitempty"`
	Call      *models.CallRecord `json:"call,omitempty"`
}

// SendGroupMessagePayload is the body of a send-group-message event.
type SendGroupMessagePayload struct {
	GroupID string `json:"groupId"`
	Kind    string `json:"messageType"`
	Content string `json:"content,omitempty"`
	FileURL string `json:"fileUrl,omitempty"`
}

// SessionDescription mirrors the browser's RTCSessionDescription. Both fields
// must be present for an offer or answer to be forwarded.
type SessionDescription struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// CallRequestPayload is the body of a call-user event.
type CallRequestPayload struct {
	To        string              `json:"to"`
	From      string              `json:"from,omitempty"`
	Offer     *SessionDescription `json:"offer"`
	MediaType string              `json:"type"`
}

// CallAnswerPayload is the body of an answer-call event.
type CallAnswerPayload struct {
	To     string              `json:"to"`
	Answer *SessionDescription `json:"answer"`
}

// ICECandidatePayload is the body of an ice-candidate event. The candidate is
// forwarded opaquely; the relay only checks it is present.
type ICECandidatePayload struct {
	To        string          `json:"to"`
	Candidate json.RawMessage `json:"candidate"`
}

// EndCallPayload is the body of an end-call event.
type EndCallPayload struct {
	To string `json:"to"`
}

// IncomingCallPayload is pushed to the callee on a valid call-user event.
type IncomingCallPayload struct {
	From      string              `json:"from"`
	Offer     *SessionDescription `json:"offer"`
	MediaType string              `json:"type"`
}

// CallInitSentPayload acks a forwarded call-user event back to the caller.
type CallInitSentPayload struct {
	To string `json:"to"`
}

// CallFailedPayload is pushed back to the caller when a call-user event could
// not be forwarded. Invalid offers and offline callees report identically.
type CallFailedPayload struct {
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// CallAnsweredPayload is pushed to the original caller.
type CallAnsweredPayload struct {
	Answer *SessionDescription `json:"answer"`
}

// SendErrorPayload is pushed to the sender when a message could not be
// persisted. Without it, clients would have to infer failure from the absence
// of their own echo.
type SendErrorPayload struct {
	Recipient string `json:"recipient,omitempty"`
	GroupID   string `json:"groupId,omitempty"`
	Reason    string `json:"reason"`
}
