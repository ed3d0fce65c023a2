package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/fleet-backoffice/internal/config"
	"github.com/iliyamo/fleet-backoffice/internal/database"
	"github.com/iliyamo/fleet-backoffice/internal/filestore"
	"github.com/iliyamo/fleet-backoffice/internal/handler"
	"github.com/iliyamo/fleet-backoffice/internal/logger"
	"github.com/iliyamo/fleet-backoffice/internal/middleware"
	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/queue"
	"github.com/iliyamo/fleet-backoffice/internal/router"
	"github.com/iliyamo/fleet-backoffice/internal/service"
	"github.com/iliyamo/fleet-backoffice/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// no logger yet
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New("fleet-backoffice", cfg.LogLevel, cfg.Env)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", logger.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log logger.ILogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Provider(cfg.DBProvider), cfg.DBDSN, cfg.DBMaxOpenConns)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := db.Migrate(log); err != nil {
		return err
	}
	hasher := utils.PasswordHasher{Cost: cfg.BcryptCost}
	db.Seed(ctx, database.AdminSeed{
		Username: cfg.SeedAdminUsername,
		Password: cfg.SeedAdminPassword,
		Email:    cfg.SeedAdminEmail,
	}, hasher, log)

	rdb := config.NewRedisClient(ctx, cfg.Redis)
	if rdb == nil {
		log.Warning("redis unavailable, rate limiting and menu cache disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		pub := queue.NewRabbitPublisher(cfg.RabbitMQURL, log.With(logger.String("component", "publisher")))
		defer func() { _ = pub.Close() }()
		events = pub
		go func() {
			sink := queue.AuditSink{Store: db}
			if err := queue.StartAuditConsumer(ctx, cfg.RabbitMQURL, sink, log.With(logger.String("component", "audit-consumer"))); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("audit consumer stopped", logger.Error(err))
			}
		}()
	} else {
		log.Warning("RABBITMQ_URL not set, domain events are dropped")
	}

	files, err := filestore.NewLocal(cfg.UploadDir, cfg.UploadMaxBytes)
	if err != nil {
		return err
	}

	deps := service.Deps{Store: db, Events: events, Log: log}
	tokens := utils.TokenSettings{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, Audience: cfg.JWTAudience}
	perms := service.NewPermissionService(deps)
	trips := service.NewTripService(deps)
	drivers := service.NewDriverService(deps)

	e := router.New(router.Handlers{
		Auth: handler.NewAuthHandler(&service.AuthService{
			Deps: deps, Hasher: hasher, Tokens: tokens,
			AccessTTL: cfg.AccessTTL, RefreshTTL: cfg.RefreshTTL,
		}),
		Access:        handler.NewAccessHandler(service.NewRoleService(deps), perms, service.NewMenuService(deps)),
		Users:         handler.NewCRUDHandler[service.UserInput, service.UserView](service.NewUserService(deps, hasher)),
		Vehicles:      handler.NewCRUDHandler[service.VehicleInput, *model.Vehicle](service.NewVehicleService(deps)),
		Drivers:       handler.NewCRUDHandler[service.DriverInput, *model.Driver](drivers),
		Customers:     handler.NewCRUDHandler[service.CustomerInput, *model.Customer](service.NewCustomerService(deps)),
		Organizations: handler.NewCRUDHandler[service.OrganizationInput, *model.Organization](service.NewOrganizationService(deps)),
		Operations: handler.NewOperationsHandler(
			service.NewJobService(deps), trips,
			service.NewJobRequestService(deps), service.NewInvoiceService(deps),
		),
		Mobile: handler.NewMobileHandler(service.NewMobileService(deps, trips, files), drivers),
		Audit:  handler.NewAuditHandler(service.NewAuditService(deps)),
		Health: handler.Health(db.SQL),

		Tokens:      tokens,
		Permissions: perms,
		RateLimit:   middleware.NewTokenBucket(cfg.RateLimit, rdb, log),
		MenuCache:   middleware.NewRedisCache(cfg.Cache, rdb, log),
		MenuPurge:   middleware.NewCachePurge(cfg.Cache, rdb, log),
		AuditTrail:  middleware.Audit(events, log),
	}, cfg.CORSAllowOrigins, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", logger.String("addr", srv.Addr), logger.String("env", cfg.Env), logger.String("db", cfg.DBProvider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
