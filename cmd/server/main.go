package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/whisper-backend/internal/auth"
	"github.com/fathima-sithara/whisper-backend/internal/cache"
	"github.com/fathima-sithara/whisper-backend/internal/config"
	"github.com/fathima-sithara/whisper-backend/internal/handlers"
	"github.com/fathima-sithara/whisper-backend/internal/kafka"
	"github.com/fathima-sithara/whisper-backend/internal/logger"
	"github.com/fathima-sithara/whisper-backend/internal/notify"
	"github.com/fathima-sithara/whisper-backend/internal/repository"
	"github.com/fathima-sithara/whisper-backend/internal/routes"
	"github.com/fathima-sithara/whisper-backend/internal/services"
	"github.com/fathima-sithara/whisper-backend/internal/storage"
	"github.com/fathima-sithara/whisper-backend/internal/ws"
)

// Server holds service dependencies.
type Server struct {
	Cfg       *config.Config
	Log       *zap.SugaredLogger
	App       *fiber.App
	Mongo     *repository.Mongo
	Redis     *cache.Store
	KafkaProd *kafka.Producer
	KafkaCons *kafka.Consumer
	Hub       *ws.Hub

	Ctx    context.Context
	Cancel context.CancelFunc
}

// NewServer builds the server and all dependencies. Errors if a required
// dependency fails.
func NewServer(cfg *config.Config, lg *zap.SugaredLogger) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())

	mongo, err := repository.NewMongo(cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	redisStore := cache.NewStore(cfg)

	userRepo := repository.NewMongoUserRepo(mongo, lg)
	messageRepo := repository.NewMongoMessageRepo(mongo, lg)
	groupRepo := repository.NewMongoGroupRepo(mongo, lg)
	contactRepo := repository.NewMongoContactRepo(mongo, lg)
	notificationRepo := repository.NewMongoNotificationRepo(mongo)

	jwtMgr := auth.NewJWTManager(cfg.JWT.Secret, cfg.AccessTTL, cfg.RefreshTTL)
	authSvc := services.NewAuthService(userRepo, redisStore, jwtMgr, cfg, lg)

	producer := kafka.NewProducer(cfg)
	consumer := kafka.NewConsumer(cfg)

	registry := ws.NewRegistry()
	hub := ws.NewHub(registry, redisStore, cfg, lg)
	direct := ws.NewDirectRelay(registry, hub, messageRepo, userRepo, contactRepo, producer, lg)
	group := ws.NewGroupRelay(registry, hub, messageRepo, groupRepo, userRepo, producer, lg)
	call := ws.NewCallRelay(registry, hub)
	wsHandler := ws.NewHandler(hub, jwtMgr, redisStore, direct, group, call, cfg, lg)

	s3Store, err := storage.NewS3Store(ctx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	routes.Register(app, routes.Deps{
		JWTMiddleware: auth.NewMiddleware(jwtMgr),
		Auth:          handlers.NewAuthHandler(authSvc),
		Users:         handlers.NewUserHandler(userRepo),
		Contacts:      handlers.NewContactHandler(contactRepo, userRepo),
		Groups:        handlers.NewGroupHandler(groupRepo),
		Messages:      handlers.NewMessageHandler(messageRepo, groupRepo),
		Media:         handlers.NewMediaHandler(s3Store),
		Notifications: handlers.NewNotificationHandler(notificationRepo),
		Presence:      handlers.NewPresenceHandler(redisStore),
		WS:            wsHandler,
	})

	srv := &Server{
		Cfg:       cfg,
		Log:       lg,
		App:       app,
		Mongo:     mongo,
		Redis:     redisStore,
		KafkaProd: producer,
		KafkaCons: consumer,
		Hub:       hub,
		Ctx:       ctx,
		Cancel:    cancel,
	}

	// notification pipeline: consumer -> channel -> worker
	events := make(chan []byte, 100)
	worker := notify.NewWorker(notificationRepo, groupRepo, redisStore, lg)
	go func() {
		if err := consumer.Run(ctx, events); err != nil {
			lg.Errorw("kafka consumer stopped", "err", err)
		}
		close(events)
	}()
	go worker.Run(ctx, events)

	return srv, nil
}

// Start runs the HTTP server in the background.
func (s *Server) Start() {
	go func() {
		s.Log.Infow("starting server", "port", s.Cfg.Server.Port)
		if err := s.App.Listen(":" + s.Cfg.Server.Port); err != nil {
			s.Log.Fatalw("server exited unexpectedly", "err", err)
		}
	}()
}

// Shutdown gracefully stops background workers, closes clients and shuts
// down the HTTP server.
func (s *Server) Shutdown() {
	s.Log.Info("shutting down...")

	s.Cancel()
	time.Sleep(200 * time.Millisecond)

	if err := s.KafkaCons.Close(); err != nil {
		s.Log.Errorw("failed to close kafka consumer", "err", err)
	}
	if err := s.KafkaProd.Close(); err != nil {
		s.Log.Errorw("failed to close kafka producer", "err", err)
	}

	s.Hub.Close()

	if err := s.Redis.Close(); err != nil {
		s.Log.Errorw("failed to close redis", "err", err)
	}
	if err := s.Mongo.Disconnect(context.Background()); err != nil {
		s.Log.Errorw("failed to disconnect mongo", "err", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.App.ShutdownWithContext(ctx); err != nil {
		s.Log.Errorw("failed to shutdown fiber app", "err", err)
	}

	s.Log.Info("stopped gracefully")
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg, err := logger.New(logger.Config{Development: cfg.Server.Development})
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer lg.Sync()

	server, err := NewServer(cfg, lg)
	if err != nil {
		lg.Fatalw("failed to initialize server", "err", err)
	}
	server.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	lg.Infow("received signal, starting graceful shutdown", "signal", sig.String())

	server.Shutdown()
}
