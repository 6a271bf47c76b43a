package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/fathima-sithara/whisper-backend/internal/handlers"
	"github.com/fathima-sithara/whisper-backend/internal/ws"
)

// Deps carries everything route registration needs.
type Deps struct {
	JWTMiddleware fiber.Handler
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	Contacts      *handlers.ContactHandler
	Groups        *handlers.GroupHandler
	Messages      *handlers.MessageHandler
	Media         *handlers.MediaHandler
	Notifications *handlers.NotificationHandler
	Presence      *handlers.PresenceHandler
	WS            *ws.Handler
}

func Register(app *fiber.App, d Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// websocket upgrade; auth happens inside the handshake via ?token=
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(d.WS.Handle))

	api := app.Group("/api")

	authGrp := api.Group("/auth")
	authGrp.Post("/register", d.Auth.Register)
	authGrp.Post("/login", d.Auth.Login)
	authGrp.Post("/otp/request", d.Auth.RequestOTP)
	authGrp.Post("/otp/verify", d.Auth.VerifyOTP)
	authGrp.Post("/refresh", d.Auth.Refresh)

	protected := api.Group("", d.JWTMiddleware)

	protected.Get("/users/me", d.Users.Me)
	protected.Patch("/users/me", d.Users.UpdateMe)
	protected.Get("/users/search", d.Users.Search)

	protected.Post("/contacts", d.Contacts.Create)
	protected.Get("/contacts", d.Contacts.List)
	protected.Patch("/contacts/:id", d.Contacts.Update)
	protected.Delete("/contacts/:id", d.Contacts.Delete)

	protected.Post("/groups", d.Groups.Create)
	protected.Get("/groups", d.Groups.List)
	protected.Get("/groups/:id", d.Groups.Get)
	protected.Post("/groups/:id/members", d.Groups.AddMember)
	protected.Delete("/groups/:id/members", d.Groups.RemoveMember)
	protected.Post("/groups/:id/admins", d.Groups.PromoteAdmin)
	protected.Patch("/groups/:id", d.Groups.Update)
	protected.Post("/groups/:id/leave", d.Groups.Leave)

	protected.Get("/messages/direct/:peerId", d.Messages.DirectHistory)
	protected.Get("/messages/group/:groupId", d.Messages.GroupHistory)
	protected.Post("/messages/:id/status", d.Messages.UpdateDelivery)

	protected.Post("/media/upload", d.Media.Upload)
	protected.Get("/media/presign/*", d.Media.Presign)

	protected.Get("/notifications", d.Notifications.List)
	protected.Post("/notifications/:id/read", d.Notifications.MarkRead)

	protected.Get("/presence/:userId", d.Presence.Check)
}
