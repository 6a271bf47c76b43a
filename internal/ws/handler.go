package ws

import (
	"context"
	"encoding/json"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fathima-sithara/whisper-backend/internal/auth"
	"github.com/fathima-sithara/whisper-backend/internal/cache"
	"github.com/fathima-sithara/whisper-backend/internal/config"
)

// Handler upgrades connections, runs the handshake, and routes inbound
// envelopes to the relays.
type Handler struct {
	hub      *Hub
	jwt      *auth.JWTManager
	presence *cache.Store
	direct   *DirectRelay
	group    *GroupRelay
	call     *CallRelay
	cfg      *config.Config
	logger   *zap.SugaredLogger
}

func NewHandler(hub *Hub, jwtMgr *auth.JWTManager, presence *cache.Store, direct *DirectRelay, group *GroupRelay, call *CallRelay, cfg *config.Config, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		hub:      hub,
		jwt:      jwtMgr,
		presence: presence,
		direct:   direct,
		group:    group,
		call:     call,
		cfg:      cfg,
		logger:   logger,
	}
}

// Handle is the websocket upgrade handler for GET /ws?token=<jwt>. The token
// the HTTP layer issued is validated once here; the verified subject becomes
// the registered identity and no event re-authenticates after that.
func (h *Handler) Handle(conn *websocket.Conn) {
	token := conn.Query("token")
	if token == "" {
		_ = conn.Close()
		return
	}
	userID, err := h.jwt.Validate(token)
	if err != nil {
		_ = conn.Close()
		return
	}

	client := newClient(conn, userID, uuid.NewString(), h.cfg.WS.SendBuffer, h.cfg.WS.RateLimitPerSec)
	h.hub.Add(client)
	h.logger.Infow("connected", "user", userID, "conn", client.connID)

	go client.writePump(h.cfg.PingInterval, h.cfg.WriteDeadline)
	client.readPump(h)

	h.logger.Infow("disconnected", "user", userID, "conn", client.connID)
}

func (h *Handler) dispatch(ctx context.Context, c *Client, env *Envelope) {
	switch env.Event {
	case EventSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		if err := h.direct.Send(ctx, c.userID, &p); err != nil {
			h.logger.Errorw("direct send failed", "sender", c.userID, "recipient", p.Recipient, "err", err)
		}

	case EventSendGroupMessage:
		var p SendGroupMessagePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		if err := h.group.Send(ctx, c.userID, &p); err != nil {
			h.logger.Errorw("group send failed", "sender", c.userID, "group", p.GroupID, "err", err)
		}

	case EventCallUser:
		var p CallRequestPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		h.call.Request(c.connID, c.userID, &p)

	case EventAnswerCall:
		var p CallAnswerPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		h.call.Answer(&p)

	case EventICECandidate:
		var p ICECandidatePayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		h.call.Candidate(&p)

	case EventEndCall:
		var p EndCallPayload
		if err := json.Unmarshal(env.Data, &p); err != nil {
			return
		}
		h.call.End(&p)

	default:
		// unknown event, ignore
	}
}
