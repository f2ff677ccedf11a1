// internal/app/server.go
package app

import (
	"context"
	"fmt"

	"instaup-service/internal/config"
	"instaup-service/internal/core"
	"instaup-service/internal/db"
	"instaup-service/internal/domain/order"
	domain "instaup-service/internal/domain/session"
	"instaup-service/internal/domain/ws"
	authHandler "instaup-service/internal/handlers/auth"
	catalogHandler "instaup-service/internal/handlers/catalog"
	fundingHandler "instaup-service/internal/handlers/funding"
	orderHandler "instaup-service/internal/handlers/orders"
	wsHandler "instaup-service/internal/handlers/websocket"
	"instaup-service/internal/middleware"
	"instaup-service/internal/pkg/ratelimit"
	"instaup-service/internal/pkg/token"
	"instaup-service/internal/repository/postgres"
	authUsecase "instaup-service/internal/service/auth"
	fundingUsecase "instaup-service/internal/service/funding"
	orderUsecase "instaup-service/internal/service/orders"
	"instaup-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg      config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	registry *core.Registry

	shutdown []func()
}

func NewServer() (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, engine: gin.New()}, nil
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	s.logger = logger
	s.shutdown = append(s.shutdown, func() { _ = logger.Sync() })

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(s.cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("connect to PostgreSQL: %w", err)
	}
	s.shutdown = append(s.shutdown, pool.Close)

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       s.cfg.RedisDB,
		PoolSize: s.cfg.RedisPoolSize,
	})
	if err != nil {
		return fmt.Errorf("connect to Redis: %w", err)
	}
	s.shutdown = append(s.shutdown, func() { _ = redisClient.Close() })
	logger.Info("connected to Redis", zap.String("addr", s.cfg.RedisAddr))

	// ----- Repositories -----
	userRepo := postgres.NewUserRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	serviceRepo := postgres.NewServiceRepository(pool)

	// ----- Token Manager & Rate Limiter -----
	tokenManager := token.NewManager(token.Config{
		Secret: s.cfg.TokenSecret,
		Issuer: s.cfg.TokenIssuer,
		TTL:    s.cfg.SessionTTL,
	})
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(logger)
	go hub.Run(context.Background())

	// ----- Session Core Registry -----
	registry := core.NewRegistry(sessionRepo, orderRepo, redisClient, s.cfg.ReconcileInterval, logger)
	registry.SetExpiryHandler(func(userID string) {
		hub.ForceLogout(userID, "session_expired")
	})
	registry.SetOpenHook(func(c *core.Core) {
		userID := c.UserID
		c.Session.Subscribe(func(snap *domain.Session) {
			if snap != nil {
				hub.BroadcastBalance(userID, snap.Balance)
			}
		})
		c.Ledger.Subscribe(func(o order.Order) {
			hub.BroadcastOrderUpdate(userID, ws.OrderUpdateData{
				OrderID:  o.ID,
				Status:   string(o.Status),
				Progress: o.Progress,
			})
		})
	})
	s.registry = registry
	s.shutdown = append(s.shutdown, registry.Shutdown)

	// ----- Services (Usecases) -----
	orderService := orderUsecase.NewService(orderRepo, serviceRepo, s.cfg.SubmitTimeout, logger)
	fundingService := fundingUsecase.NewService(orderRepo, orderService, logger)
	authService := authUsecase.NewAuthService(
		userRepo,
		sessionRepo,
		registry,
		tokenManager,
		rateLimiter,
		s.cfg.SignupBonus,
		logger,
	)

	// ----- Handlers -----
	authHandlerInst := authHandler.NewAuthHandler(authService, logger)
	orderHandlerInst := orderHandler.NewOrderHandler(orderService, logger)
	fundingHandlerInst := fundingHandler.NewFundingHandler(fundingService, logger)
	catalogHandlerInst := catalogHandler.NewCatalogHandler(serviceRepo, logger)
	wsHandlerInst := wsHandler.NewWebSocketHandler(hub, authService, logger)

	// ----- Middlewares -----
	authMiddleware := middleware.NewAuthMiddleware(authService)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.CORSMiddleware(),
	)

	// ----- Router -----
	handlers := &Handlers{
		AuthHandler:    authHandlerInst,
		OrderHandler:   orderHandlerInst,
		FundingHandler: fundingHandlerInst,
		CatalogHandler: catalogHandlerInst,
		WSHandler:      wsHandlerInst,
		AuthMiddleware: authMiddleware,
	}
	SetupRouter(s.engine, handlers)

	logger.Info("server running", zap.String("addr", s.cfg.HTTPAddr))
	return s.engine.Run(s.cfg.HTTPAddr)
}

// Shutdown releases every resource Start acquired, in reverse order.
func (s *Server) Shutdown() {
	for i := len(s.shutdown) - 1; i >= 0; i-- {
		s.shutdown[i]()
	}
}
