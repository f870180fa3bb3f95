package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/grpc/reflection"

	apictx "github.com/dtroode/sickfits-server/internal/api/context"
	grpcRouter "github.com/dtroode/sickfits-server/internal/api/grpc/router"
	grpcServer "github.com/dtroode/sickfits-server/internal/api/grpc/server"
	"github.com/dtroode/sickfits-server/internal/api/http/handler"
	"github.com/dtroode/sickfits-server/internal/api/http/middleware"
	httpRouter "github.com/dtroode/sickfits-server/internal/api/http/router"
	httpServer "github.com/dtroode/sickfits-server/internal/api/http/server"
	"github.com/dtroode/sickfits-server/internal/config"
	"github.com/dtroode/sickfits-server/internal/events"
	"github.com/dtroode/sickfits-server/internal/lock/redis"
	"github.com/dtroode/sickfits-server/internal/logger"
	"github.com/dtroode/sickfits-server/internal/mail"
	"github.com/dtroode/sickfits-server/internal/metrics"
	"github.com/dtroode/sickfits-server/internal/model"
	"github.com/dtroode/sickfits-server/internal/payment/stripe"
	"github.com/dtroode/sickfits-server/internal/repository/postgres"
	"github.com/dtroode/sickfits-server/internal/server"
	"github.com/dtroode/sickfits-server/internal/service"
	storage "github.com/dtroode/sickfits-server/internal/storage/minio"
	"github.com/dtroode/sickfits-server/internal/telemetry"
	"github.com/dtroode/sickfits-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTel.Endpoint, cfg.OTel.ServiceName, buildVersion)
	if err != nil {
		logger.Fatal("failed to initialize tracing", "error", err)
	}

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	storageClient, err := storage.New(ctx, storage.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
	})
	if err != nil {
		logger.Fatal("failed to initialize storage client", "error", err)
	}

	redisClient, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	publisher, closePublisher := newPublisher(cfg.RabbitMQ, logger)
	defer closePublisher()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	checkoutMetrics := metrics.NewCheckout(registry)
	httpMetrics := metrics.NewHTTP(registry)

	timeouts := service.Timeouts{
		Store:   cfg.Timeouts.Store,
		Payment: cfg.Timeouts.Payment,
		Mail:    cfg.Timeouts.Mail,
	}

	userRepo := postgres.NewUserRepository(db)
	itemRepo := postgres.NewItemRepository(db)
	cartRepo := postgres.NewCartRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	checkoutRepo := postgres.NewCheckoutRepository(db)

	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.MaxAge)
	mailer := mail.NewSMTPMailer(mail.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		User:     cfg.Mail.User,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	}, logger)

	guard := service.NewGuard()
	sessions := service.NewSessionResolver(tokenManager, userRepo, logger, timeouts.Store)
	authService := service.NewAuth(userRepo, sessions, guard, publisher, logger, timeouts)
	resetService := service.NewReset(userRepo, mailer, sessions, logger, timeouts, cfg.Reset.URL, cfg.Reset.TTL)
	catalogService := service.NewCatalog(itemRepo, storageClient, guard, logger, timeouts)
	cartService := service.NewCart(cartRepo, itemRepo, guard, logger, timeouts)
	orderService := service.NewOrders(orderRepo, guard, logger, timeouts)
	checkoutService := service.NewCheckout(
		cartRepo,
		checkoutRepo,
		orderRepo,
		stripe.NewGateway(cfg.Stripe.SecretKey),
		redis.NewLocker(redisClient),
		publisher,
		checkoutMetrics,
		logger,
		timeouts,
		service.CheckoutConfig{
			Currency: cfg.Stripe.Currency,
			LockTTL:  cfg.Redis.LockTTL,
		},
	)
	reconciler := service.NewReconciler(checkoutService, logger)

	ctxMgr := apictx.NewManager()
	cookie := handler.SessionCookie{MaxAge: tokenManager.MaxAge(), Secure: cfg.HTTP.SecureCookies}

	api := httpRouter.New(httpRouter.Params{
		Auth:           handler.NewAuth(authService, resetService, ctxMgr, cookie, logger),
		Catalog:        handler.NewCatalog(catalogService, ctxMgr, logger),
		Cart:           handler.NewCart(cartService, checkoutService, orderService, ctxMgr, logger),
		Health:         handler.NewHealth(db, logger),
		Sessions:       sessions,
		ContextManager: ctxMgr,
		Observer:       httpMetrics,
		MetricsHandler: metrics.Handler(registry),
		RateLimit:      middleware.NewRateLimit(cfg.Rate.PerSecond, cfg.Rate.Burst),
		FrontendURL:    cfg.HTTP.FrontendURL,
		Logger:         logger,
	})
	publicServer := httpServer.NewHTTPServer(api.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	ops := grpcRouter.New(reconciler, sessions, guard, ctxMgr, logger)
	gs := ops.Register()
	reflection.Register(gs)
	opsServer := grpcServer.NewGRPCServer(gs, fmt.Sprintf(":%s", cfg.GRPC.Port))

	servers := []struct {
		server model.Server
		sl     model.SecurityLayer
	}{
		{publicServer, server.NewSecurityLayer(cfg.HTTP.EnableHTTPS, cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)},
		{opsServer, server.NewSecurityLayer(cfg.GRPC.EnableHTTPS, cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName)},
	}

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server, sl model.SecurityLayer) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			err := s.Start(sl)
			if err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s.server, s.sl)
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	ops.Health().Shutdown()
	for _, s := range servers {
		if err := s.server.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.server.Address())
		}
	}

	wg.Wait()

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("failed to flush traces", "error", err)
	}
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

func newPublisher(cfg config.RabbitMQ, logger *logger.Logger) (model.EventPublisher, func()) {
	if cfg.URI == "" {
		logger.Info("event publishing disabled")
		return events.Nop{}, func() {}
	}

	p, err := events.NewPublisher(cfg.URI, cfg.Exchange)
	if err != nil {
		logger.Fatal("failed to connect to rabbitmq", "error", err)
	}

	return p, func() {
		if err := p.Close(); err != nil {
			logger.Error("failed to close rabbitmq publisher", "error", err)
		}
	}
}
