package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-token-relay/auth"
	"github.com/jrsteele09/go-token-relay/browser"
	"github.com/jrsteele09/go-token-relay/diaglog"
	"github.com/jrsteele09/go-token-relay/injector"
	"github.com/jrsteele09/go-token-relay/internal/config"
	"github.com/jrsteele09/go-token-relay/relay"
	"github.com/jrsteele09/go-token-relay/server"
	"github.com/jrsteele09/go-token-relay/targets"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.Load("")
	if err != nil {
		return err
	}
	setupLogging(c)
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := browser.NewChromeBrowser(browser.ChromeOptions{
		CDPURL:      c.GetCDPURL(),
		Headless:    c.GetHeadless(),
		UserDataDir: filepath.Join(c.GetDataFolder(), "chrome"),
	})
	if err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	defer b.Close()

	diag, closeDiag, err := openDiagnosticLog(c)
	if err != nil {
		return err
	}
	defer closeDiag()

	coordinator, err := newCoordinator(c, b, diag)
	if err != nil {
		return err
	}

	handler, err := server.New(c, coordinator)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: c.GetAddr(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listenAndServe(srv)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	return shutdown(srv)
}

func newCoordinator(c config.Config, b browser.Browser, diag diaglog.Log) (*relay.Coordinator, error) {
	authenticator, err := auth.New(c, b)
	if err != nil {
		return nil, err
	}
	resolver, err := targets.NewResolver(b, diag)
	if err != nil {
		return nil, err
	}
	tokenInjector, err := injector.New(b, diag,
		injector.WithStorageKey(c.GetStorageKey()),
		injector.WithEchoToken(c.GetEchoToken()),
	)
	if err != nil {
		return nil, err
	}
	return relay.New(authenticator, resolver, tokenInjector, diag,
		relay.WithTargetPatterns(c.GetTargetPatterns()),
		relay.WithRequestTimeout(c.GetRequestTimeout()),
	)
}

func openDiagnosticLog(c config.Config) (diaglog.Log, func(), error) {
	opts := []diaglog.Option{diaglog.WithCapacity(c.GetDiagCapacity())}
	if !c.GetDiagPersist() {
		return diaglog.NewRingLog(opts...), func() {}, nil
	}

	bl, err := diaglog.OpenBadgerLog(filepath.Join(c.GetDataFolder(), "diaglog"), opts...)
	if err != nil {
		return nil, nil, err
	}
	return bl, func() {
		if err := bl.Close(); err != nil {
			log.Err(err).Msg("Failed to close diagnostic log")
		}
	}, nil
}

func setupLogging(c config.Config) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
