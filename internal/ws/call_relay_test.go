package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callFixture() (*Registry, *fakePusher, *CallRelay) {
	registry := NewRegistry()
	pusher := &fakePusher{}
	return registry, pusher, NewCallRelay(registry, pusher)
}

func validOffer() *SessionDescription {
	return &SessionDescription{Type: "offer", SDP: "v=0..."}
}

func TestCallRequestForwarded(t *testing.T) {
	registry, pusher, relay := callFixture()
	registry.Register("bob", "conn-b")

	relay.Request("conn-a", "alice", &CallRequestPayload{
		To:        "bob",
		Offer:     validOffer(),
		MediaType: "video",
	})

	incoming := pusher.byEvent(EventIncomingCall)
	require.Len(t, incoming, 1)
	assert.Equal(t, "conn-b", incoming[0].connID)
	payload := incoming[0].payload.(*IncomingCallPayload)
	assert.Equal(t, "alice", payload.From)
	assert.Equal(t, "video", payload.MediaType)

	acks := pusher.byEvent(EventCallInitSent)
	require.Len(t, acks, 1)
	assert.Equal(t, "conn-a", acks[0].connID)

	// the ack carries only the callee id, no failure fields
	ack := acks[0].payload.(*CallInitSentPayload)
	assert.Equal(t, "bob", ack.To)
	raw, err := json.Marshal(ack)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "reason")
}

func TestCallRequestMissingSDP(t *testing.T) {
	registry, pusher, relay := callFixture()
	registry.Register("bob", "conn-b")

	relay.Request("conn-a", "alice", &CallRequestPayload{
		To:    "bob",
		Offer: &SessionDescription{Type: "offer"}, // no sdp
	})

	assert.Empty(t, pusher.byEvent(EventIncomingCall))
	failed := pusher.byEvent(EventCallFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "conn-a", failed[0].connID)
}

func TestCallRequestNilOffer(t *testing.T) {
	registry, pusher, relay := callFixture()
	registry.Register("bob", "conn-b")

	relay.Request("conn-a", "alice", &CallRequestPayload{To: "bob"})

	assert.Empty(t, pusher.byEvent(EventIncomingCall))
	assert.Len(t, pusher.byEvent(EventCallFailed), 1)
}

func TestCallRequestCalleeOffline(t *testing.T) {
	_, pusher, relay := callFixture()

	relay.Request("conn-a", "alice", &CallRequestPayload{
		To:    "bob",
		Offer: validOffer(),
	})

	// offline callee reports identically to an invalid offer
	assert.Empty(t, pusher.byEvent(EventIncomingCall))
	failed := pusher.byEvent(EventCallFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, "call failed", failed[0].payload.(*CallFailedPayload).Reason)
}

func TestCallAnswerForwarded(t *testing.T) {
	registry, pusher, relay := callFixture()
	registry.Register("alice", "conn-a")

	relay.Answer(&CallAnswerPayload{
		To:     "alice",
		Answer: &SessionDescription{Type: "answer", SDP: "v=0..."},
	})

	answered := pusher.byEvent(EventCallAnswered)
	require.Len(t, answered, 1)
	assert.Equal(t, "conn-a", answered[0].connID)
}

func TestCallAnswerInvalidDroppedSilently(t *testing.T) {
	registry, pusher, relay := callFixture()
	registry.Register("alice", "conn-a")

	relay.Answer(&CallAnswerPayload{To: "alice", Answer: &SessionDescription{Type: "answer"}})
	relay.Answer(&CallAnswerPayload{To: "alice"})

	assert.Empty(t, pusher.pushes)
}

func TestICECandidateForwarded(t *testing.T) {
	registry, pusher, relay := callFixture()
	registry.Register("bob", "conn-b")

	relay.Candidate(&ICECandidatePayload{
		To:        "bob",
		Candidate: json.RawMessage(`{"candidate":"candidate:1"}`),
	})

	forwarded := pusher.byEvent(EventICECandidate)
	require.Len(t, forwarded, 1)
	assert.Equal(t, "conn-b", forwarded[0].connID)
}

func TestICECandidateEmptyDropped(t *testing.T) {
	registry, pusher, relay := callFixture()
	registry.Register("bob", "conn-b")

	relay.Candidate(&ICECandidatePayload{To: "bob"})

	assert.Empty(t, pusher.pushes)
}

func TestEndCall(t *testing.T) {
	registry, pusher, relay := callFixture()
	registry.Register("bob", "conn-b")

	relay.End(&EndCallPayload{To: "bob"})
	relay.End(&EndCallPayload{To: "offline-user"})

	forwarded := pusher.byEvent(EventEndCall)
	require.Len(t, forwarded, 1)
	assert.Equal(t, "conn-b", forwarded[0].connID)
}
