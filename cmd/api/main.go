package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wecantrust/donations-backend/api/controllers"
	"github.com/wecantrust/donations-backend/api/routes"
	"github.com/wecantrust/donations-backend/internal/contact"
	"github.com/wecantrust/donations-backend/internal/donations"
	"github.com/wecantrust/donations-backend/internal/mailer"
	"github.com/wecantrust/donations-backend/internal/receipts"
	"github.com/wecantrust/donations-backend/pkg/config"
	"github.com/wecantrust/donations-backend/pkg/db"
	"github.com/wecantrust/donations-backend/pkg/logger"
	"github.com/wecantrust/donations-backend/pkg/mail"
	"github.com/wecantrust/donations-backend/pkg/metrics"
	"github.com/wecantrust/donations-backend/pkg/migrate"
	"github.com/wecantrust/donations-backend/pkg/razorpay"
	"github.com/wecantrust/donations-backend/pkg/redis"
	"github.com/wecantrust/donations-backend/pkg/render"
	"github.com/wecantrust/donations-backend/pkg/storage/gcs"
	"github.com/wecantrust/donations-backend/pkg/tasks"
)

const version = "1.0.0"

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gateway, err := razorpay.New(cfg.Razorpay)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment gateway client", err)
		os.Exit(1)
	}

	storeClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create storage client", err)
		os.Exit(1)
	}

	mtr := metrics.New()
	runner := tasks.NewRunner(logg, 2*time.Minute)

	var dispatcher mailer.Dispatcher
	if cfg.Mail.Enabled() {
		sender, err := mail.NewSendgridSender(cfg.Mail)
		if err != nil {
			logg.Error(context.Background(), "failed to create mail sender", err)
			os.Exit(1)
		}
		dispatcher, err = mailer.NewDispatcher(mailer.DispatcherParams{
			Sender:  sender,
			Org:     cfg.Org,
			Logger:  logg,
			Metrics: mtr,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create mail dispatcher", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "mail delivery disabled, no sendgrid api key configured")
	}

	donationsRepo := donations.NewRepository(dbClient.DB())

	donationsService, err := donations.NewService(donations.ServiceParams{
		Repo:       donationsRepo,
		Gateway:    gateway,
		Dispatcher: dispatcher,
		Logger:     logg,
		Metrics:    mtr,
		Runner:     runner,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create donations service", err)
		os.Exit(1)
	}

	receiptsService, err := receipts.NewService(receipts.ServiceParams{
		Repo:       donationsRepo,
		Store:      storeClient,
		Renderer:   render.NewChromeRenderer(cfg.Receipts.RenderTimeout),
		Locks:      redisClient,
		Dispatcher: dispatcher,
		Logger:     logg,
		Metrics:    mtr,
		Org:        cfg.Org,
		Receipts:   cfg.Receipts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create receipts service", err)
		os.Exit(1)
	}

	if binder, ok := donationsService.(donations.PipelineBinder); ok {
		binder.SetReceiptPipeline(receiptsService)
	}

	contactService, err := contact.NewService(contact.ServiceParams{
		Repo:       contact.NewRepository(dbClient.DB()),
		Dispatcher: dispatcher,
		Runner:     runner,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create contact service", err)
		os.Exit(1)
	}

	router := routes.New(routes.Params{
		Config:  cfg,
		Logger:  logg,
		Metrics: mtr,
		Health: controllers.NewHealthController(logg, version, map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
			"storage":  storeClient,
		}),
		Donations: controllers.NewDonationsController(donationsService, logg),
		Receipts:  controllers.NewReceiptsController(receiptsService, logg),
		Contact:   controllers.NewContactController(contactService, logg),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(drainCtx); err != nil {
		logg.Error(ctx, "error shutting down http server", err)
	}
	if err := runner.Shutdown(drainCtx); err != nil {
		logg.Error(ctx, "background tasks did not finish in time", err)
	}
	logg.Info(ctx, "api server stopped")
}
