package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"betdesk/internal/aggregate"
	"betdesk/internal/api"
	"betdesk/internal/config"
	"betdesk/internal/dashboard"
	"betdesk/internal/domain"
	"betdesk/internal/fetcher"
	"betdesk/internal/metrics"
	"betdesk/internal/scheduler"
	"betdesk/internal/storage"
	"betdesk/internal/stream"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) betOptions() (aggregate.BetOptions, error) {
	loc, err := a.Config.Location()
	if err != nil {
		return aggregate.BetOptions{}, err
	}
	return aggregate.BetOptions{
		WinResult: a.Config.Display.WinResult,
		Location:  loc,
		Places:    a.Config.Display.ProfitPlaces,
	}, nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// openSource prefers the database when a DSN is configured and falls back to
// the REST backend otherwise.
func (a *App) openSource(ctx context.Context) (fetcher.Source, func(), error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if store != nil {
		a.Logger.Info().Msg("reading records from database")
		return store, closeStore, nil
	}

	backend := fetcher.NewBackend(fetcher.BackendOptions{
		BaseURL:   a.Config.Backend.BaseURL,
		Timeout:   a.Config.Backend.RequestTimeout,
		RateLimit: a.Config.Backend.RateLimit,
		Burst:     a.Config.Backend.Burst,
		UserAgent: a.Config.Backend.UserAgent,
	}, a.Logger)
	a.Logger.Info().Str("base_url", a.Config.Backend.BaseURL).Msg("reading records from backend")
	return backend, func() {}, nil
}

// Serve runs the HTTP API, the refresh loop and, when configured, the live
// opportunity stream until interrupted.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	betOpts, err := a.betOptions()
	if err != nil {
		return err
	}

	source, closeSource, err := a.openSource(ctx)
	if err != nil {
		return err
	}
	defer closeSource()

	sched, err := scheduler.New(scheduler.Options{
		Interval:      a.Config.Refresh.Interval,
		AlignToBucket: a.Config.Refresh.AlignToBucket,
		StartupDelay:  a.Config.Refresh.StartupDelay,
		RunOnStart:    true,
	}, a.Logger)
	if err != nil {
		return err
	}

	m := metrics.New()
	dash := dashboard.New(source, sched, m, dashboard.Options{
		TopOpportunities: a.Config.Display.TopOpportunities,
		Bets:             betOpts,
	}, a.Logger)

	sessions := dashboard.NewSessions(dashboard.SessionOptions{
		PageSize:              a.Config.Display.CarouselPageSize,
		InterpolationDuration: a.Config.Display.InterpolationDuration,
		IdleTTL:               a.Config.Server.SessionIdleTTL,
	}, dash.Balance, m, a.Logger)
	defer sessions.CloseAll()

	dash.OnRefresh(func(dashboard.Snapshot) {
		sessions.SetBalance(dash.Balance())
	})

	server := api.NewServer(dash, sessions, m, api.Options{
		AllowedOrigins: a.Config.Server.AllowedOrigins,
		FrameInterval:  a.Config.Server.FrameInterval,
		ProfitPlaces:   a.Config.Display.ProfitPlaces,
	}, a.Logger)

	httpServer := &http.Server{
		Addr:              a.Config.Server.Addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 3)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := dash.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("refresh loop: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		sessions.RunJanitor(ctx, time.Minute)
	}()

	closeStream, err := a.startStream(ctx, &wg, dash, errCh)
	if err != nil {
		cancel()
		wg.Wait()
		return err
	}
	defer closeStream()

	go func() {
		a.Logger.Info().Str("addr", httpServer.Addr).Msg("http api listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		a.Logger.Error().Err(runErr).Msg("service terminated with error")
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer shutdownCancel()
	sessions.CloseAll()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warn().Err(err).Msg("http shutdown incomplete")
	}
	wg.Wait()

	a.Logger.Info().Msg("dashboard service stopped")
	return runErr
}

// startStream attaches the Redis consumer when a URL is configured.
func (a *App) startStream(ctx context.Context, wg *sync.WaitGroup, dash *dashboard.Service, errCh chan<- error) (func(), error) {
	client, err := stream.NewClient(a.Config.Redis)
	if errors.Is(err, stream.ErrDisabled) {
		a.Logger.Info().Msg("redis.url not configured; live stream disabled")
		return func() {}, nil
	}
	if err != nil {
		return nil, err
	}

	consumer := stream.NewConsumer(client, a.Config.Redis, a.Logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := consumer.Run(ctx, func(opp domain.Opportunity) { dash.AddLive(opp) })
		if err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("live stream: %w", err)
		}
	}()
	return func() { _ = client.Close() }, nil
}
