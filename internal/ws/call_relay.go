package ws

// CallRelay forwards call-setup events between exactly two identities. It is
// stateless per event: no call is tracked server-side, and no invariant links
// an answer to a prior request beyond the "to" field. The advisory call state
// machine (idle -> ringing -> connected -> ended) lives in the client.
type CallRelay struct {
	registry *Registry
	pusher   Pusher
}

func NewCallRelay(registry *Registry, pusher Pusher) *CallRelay {
	return &CallRelay{registry: registry, pusher: pusher}
}

// Request forwards a call-user event to the callee. An offer missing its type
// or session description, and a callee without a connection, both produce the
// same call-failed event back to the caller; the protocol does not tell the
// caller which happened.
func (r *CallRelay) Request(callerConnID, caller string, p *CallRequestPayload) {
	if !validDescription(p.Offer) {
		r.pusher.Push(callerConnID, EventCallFailed, &CallFailedPayload{To: p.To, Reason: "call failed"})
		return
	}
	connID, ok := r.registry.Lookup(p.To)
	if !ok {
		r.pusher.Push(callerConnID, EventCallFailed, &CallFailedPayload{To: p.To, Reason: "call failed"})
		return
	}
	r.pusher.Push(connID, EventIncomingCall, &IncomingCallPayload{
		From:      caller,
		Offer:     p.Offer,
		MediaType: p.MediaType,
	})
	r.pusher.Push(callerConnID, EventCallInitSent, &CallInitSentPayload{To: p.To})
}

// Answer forwards a valid answer to the original caller's connection.
// Invalid answers are dropped silently.
func (r *CallRelay) Answer(p *CallAnswerPayload) {
	if !validDescription(p.Answer) {
		return
	}
	if connID, ok := r.registry.Lookup(p.To); ok {
		r.pusher.Push(connID, EventCallAnswered, &CallAnsweredPayload{Answer: p.Answer})
	}
}

// Candidate forwards an ICE candidate if one is present. Candidates are
// numerous and best-effort, so anything malformed is dropped without notice.
func (r *CallRelay) Candidate(p *ICECandidatePayload) {
	if len(p.Candidate) == 0 {
		return
	}
	if connID, ok := r.registry.Lookup(p.To); ok {
		r.pusher.Push(connID, EventICECandidate, p)
	}
}

// End forwards an end-call event unconditionally when the destination is
// online, and drops it otherwise.
func (r *CallRelay) End(p *EndCallPayload) {
	if connID, ok := r.registry.Lookup(p.To); ok {
		r.pusher.Push(connID, EventEndCall, p)
	}
}

func validDescription(d *SessionDescription) bool {
	return d != nil && d.Type != "" && d.SDP != ""
}
