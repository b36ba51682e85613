package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"keepalive/internal/app"
	"keepalive/internal/config"
	"keepalive/internal/health"
	"keepalive/internal/middleware"
	"keepalive/internal/registry"
	"keepalive/internal/transport"
	"keepalive/internal/version"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

type Bootstrap struct {
	Config     config.Config
	Registry   registry.Registry
	Logger     *zap.Logger
	SignalChan chan os.Signal
}

func New(config config.Config, logger *zap.Logger) *Bootstrap {
	return &Bootstrap{
		Config:     config,
		Registry:   registry.NewRegistry(),
		Logger:     logger,
		SignalChan: make(chan os.Signal, 1),
	}
}

type services struct {
	http           transport.Transport
	httpListener   net.Listener
	health         *health.Server
	healthListener net.Listener
	pprof          *http.Server
}

func (b *Bootstrap) listen() (*services, error) {
	handler := middleware.Chain(app.New(b.Logger), middleware.NewValidate())
	httpServer := transport.NewHTTPServer(b.Config, b.Registry, handler, b.Logger,
		middleware.NewServerHeader(version.GetShortVersion()))

	ln, err := httpServer.Listen()
	if err != nil {
		return nil, fmt.Errorf("failed to start http server: %w", err)
	}
	svc := &services{http: httpServer, httpListener: ln}

	if b.Config.HealthEnabled() {
		svc.health = health.New(b.Config.Host(), b.Config.HealthPort(), b.Logger)
		svc.healthListener, err = svc.health.Listen()
		if err != nil {
			_ = ln.Close()
			return nil, fmt.Errorf("failed to start health server: %w", err)
		}
	}

	if b.Config.PprofEnabled() {
		svc.pprof = &http.Server{
			Addr:              net.JoinHostPort("localhost", b.Config.PprofPort()),
			ReadHeaderTimeout: shutdownTimeout,
		}
	}
	return svc, nil
}

func (b *Bootstrap) Run() error {
	signal.Notify(b.SignalChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(b.SignalChan)

	svc, err := b.listen()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(context.Background())

	g.Go(func() error {
		if err := svc.http.Serve(svc.httpListener); err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("error when serving http server: %w", err)
		}
		return nil
	})

	if svc.health != nil {
		g.Go(func() error {
			if err := svc.health.Serve(svc.healthListener); err != nil {
				return fmt.Errorf("health server error: %w", err)
			}
			return nil
		})
		svc.health.SetServing(true)
	}

	if svc.pprof != nil {
		g.Go(func() error {
			b.Logger.Info("starting pprof server", zap.String("addr", "http://"+svc.pprof.Addr+"/debug/pprof/"))
			if err := svc.pprof.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server error: %w", err)
			}
			return nil
		})
	}

	b.Logger.Info("all services started", zap.String("version", version.GetVersion()))

	g.Go(func() error {
		select {
		case sig := <-b.SignalChan:
			b.Logger.Info("received signal, initiating graceful shutdown", zap.String("signal", sig.String()))
		case <-ctx.Done():
		}
		return b.shutdown(svc)
	})

	return g.Wait()
}

func (b *Bootstrap) shutdown(svc *services) error {
	var err error
	if cerr := svc.httpListener.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
		err = multierr.Append(err, cerr)
	}
	err = multierr.Append(err, b.Registry.CloseAll())

	if svc.health != nil {
		svc.health.Stop()
	}

	if svc.pprof != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err = multierr.Append(err, svc.pprof.Shutdown(ctx))
	}
	return err
}
