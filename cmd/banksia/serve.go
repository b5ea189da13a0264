package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/banksia/internal/repositories/matchdecision"
	"github.com/Ramsey-B/banksia/internal/repositories/matchjob"
	"github.com/Ramsey-B/banksia/internal/repositories/reviewitem"
	"github.com/Ramsey-B/banksia/pkg/jobs"
	"github.com/Ramsey-B/banksia/pkg/middleware"
	"github.com/Ramsey-B/banksia/pkg/redis"
	"github.com/Ramsey-B/banksia/pkg/routes/decisions"
	"github.com/Ramsey-B/banksia/pkg/routes/health"
	jobroutes "github.com/Ramsey-B/banksia/pkg/routes/jobs"
	"github.com/Ramsey-B/banksia/pkg/routes/reviews"
	"github.com/Ramsey-B/banksia/pkg/startup"
)

func newServeCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run submitted matching jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), skipMigrations)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply database migrations on startup")
	return cmd
}

func serve(ctx context.Context, skipMigrations bool) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	log := a.logger.WithContext(ctx)

	var (
		manager *jobs.Manager
		server  *http.Server
		checker *health.Checker
	)

	s := startup.NewStartup(a.logger, a.cfg.StartupMaxAttempts)
	s.AddDependency(startup.Dependency{
		Name: "database",
		OnStart: func(ctx context.Context) error {
			if err := a.connectDatabase(ctx); err != nil {
				return err
			}
			if skipMigrations {
				return nil
			}
			return a.migrate()
		},
	})
	s.AddDependency(startup.Dependency{
		Name:    "redis",
		OnStart: a.connectRedis,
	})
	s.AddDependency(startup.Dependency{
		Name: "kafka",
		OnStart: func(context.Context) error {
			a.openProducer()
			return nil
		},
	})
	s.AddDependency(startup.Dependency{
		Name:  "jobs",
		Needs: []string{"database", "redis", "kafka"},
		OnStart: func(ctx context.Context) error {
			p, err := a.newPipeline(ctx)
			if err != nil {
				return err
			}
			var locker jobs.Locker
			if a.redis != nil {
				locker = redis.NewLocker(a.redis, "")
			}
			manager = jobs.NewManager(a.logger, matchjob.NewRepository(a.db, a.logger), p, locker, jobs.Config{
				Workers:   a.cfg.JobWorkerCount,
				QueueSize: a.cfg.JobQueueSize,
				LockTTL:   a.cfg.JobLockTTL,
			})
			return manager.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return manager.Stop(ctx)
		},
	})
	s.AddDependency(startup.Dependency{
		Name:  "http",
		Needs: []string{"jobs"},
		OnStart: func(ctx context.Context) error {
			e, c, err := a.newServer(manager)
			if err != nil {
				return err
			}
			checker = c
			server = &http.Server{
				Addr:              fmt.Sprintf(":%d", a.cfg.Port),
				Handler:           e,
				ReadTimeout:       time.Duration(a.cfg.HttpServerReadTimeoutSeconds) * time.Second,
				WriteTimeout:      time.Duration(a.cfg.HttpServerWriteTimeoutSeconds) * time.Second,
				IdleTimeout:       time.Duration(a.cfg.HttpServerIdleTimeoutSeconds) * time.Second,
				ReadHeaderTimeout: time.Duration(a.cfg.ReadHeaderTimeoutSeconds) * time.Second,
				MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
			}
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.WithError(err).Error("HTTP server stopped unexpectedly")
				}
			}()
			checker.SetReady(true)
			a.logger.Infof("HTTP server listening on %s", server.Addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			checker.SetReady(false)
			return server.Shutdown(ctx)
		},
	})

	if err := s.Start(ctx); err != nil {
		log.WithError(err).Error("Startup failed")
		_ = s.Stop(context.WithoutCancel(ctx))
		_ = a.close(context.WithoutCancel(ctx))
		return err
	}

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	return errors.Join(s.Stop(shutdownCtx), a.close(shutdownCtx))
}

// newServer builds the echo instance with its dependency container and routes
func (a *app) newServer(manager *jobs.Manager) (*echo.Echo, *health.Checker, error) {
	container, err := ectoinject.NewDIContainer(ectocontainer.DIContainerConfig{
		ID:           a.cfg.AppName,
		LoggerConfig: &ectocontainer.DIContainerLoggerConfig{Enabled: false},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create dependency container: %w", err)
	}
	if err := errors.Join(
		ectoinject.RegisterInstance[ectologger.Logger](container, a.logger),
		ectoinject.RegisterInstance[jobroutes.Service](container, manager),
		ectoinject.RegisterInstance[decisions.Store](container, matchdecision.NewRepository(a.db, a.logger)),
		ectoinject.RegisterInstance[reviews.Store](container, reviewitem.NewRepository(a.db, a.logger)),
	); err != nil {
		return nil, nil, fmt.Errorf("failed to register dependencies: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.Error(a.logger)

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: a.cfg.AllowOrigins,
		AllowMethods: a.cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(a.cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(a.logger))
	e.Use(middleware.Container(container.GetContainerID()))

	pingers := map[string]health.Pinger{
		"database": health.PingerFunc(a.db.PingContext),
	}
	if a.redis != nil {
		pingers["redis"] = a.redis
	}
	checker := health.NewChecker(version, pingers)
	checker.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1")
	jobroutes.Register(api.Group("/jobs"))
	decisions.Register(api.Group("/decisions"))
	reviews.Register(api.Group("/reviews"))

	return e, checker, nil
}
