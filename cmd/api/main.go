package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	_ "storefront/docs"
	"storefront/pkg/api"
	"storefront/pkg/config"
	"storefront/pkg/database"
	"storefront/pkg/events"
	"storefront/pkg/logger"
	"storefront/pkg/order"
	"storefront/pkg/otel"
	"storefront/pkg/product"
	"storefront/pkg/user"
)

const serviceName = "storefront"

// @title Storefront API
// @version 1.0
// @description Catalog, checkout and order management for the storefront.
// @BasePath /
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name session_id
func main() {
	app := &cli.App{
		Name:  serviceName,
		Usage: "storefront API server",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations and exit",
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), serviceName, otel.GetTraceID)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tcfg := otel.Config{ServiceName: serviceName, Host: cfg.OTELHost, Probability: cfg.OTELProbability}
	if cfg.OTELStdout {
		tcfg.Stdout = os.Stderr
	}
	tp, shutdownTracing, err := otel.InitTracing(log, tcfg)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	sessions, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSessions()

	dispatcher := events.Logged(log, events.Discard)
	if cfg.AMQPURL != "" {
		pub, err := events.DialPublisher(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect amqp: %w", err)
		}
		defer pub.Close()
		dispatcher = events.Logged(log, pub)
		log.Info(ctx, "publishing order events", "queue", cfg.AMQPQueue)
	}

	policy, err := order.PolicyByName(cfg.TransitionPolicy)
	if err != nil {
		return err
	}
	orders := order.NewManager(st.orders, order.WithPolicy(policy), order.WithDispatcher(dispatcher), order.WithLogger(log))
	catalog := product.NewCatalog(st.products)
	users := user.NewService(st.users, user.NewBcryptManager(), orders)

	if cfg.AdminEmail != "" {
		admin, err := users.EnsureAdmin(ctx, user.Registration{Name: cfg.AdminName, Email: cfg.AdminEmail, Password: cfg.AdminPassword})
		if err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
		log.Info(ctx, "admin account ready", "user_id", admin.ID)
	}

	router := api.NewRouter(api.Config{
		Log:           log,
		Tracer:        tp.Tracer(serviceName),
		Orders:        orders,
		Catalog:       catalog,
		Users:         users,
		Sessions:      sessions,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: cfg.TLSCert != "",
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info(gctx, "listening", "addr", cfg.HTTPAddr, "tls", cfg.TLSCert != "", "store", cfg.Store, "policy", cfg.TransitionPolicy)
		var err error
		if cfg.TLSCert != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error(context.Background(), "server closed", "error", err)
		return err
	}
	return nil
}

func migrate(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(os.Stdout, logger.ParseLevel(cfg.LogLevel), serviceName, otel.GetTraceID)
	defer log.Sync()

	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	db, err := database.Open(c.Context, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	return database.Migrate(c.Context, db, log)
}
