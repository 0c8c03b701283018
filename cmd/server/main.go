package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/skillsync/skillsync-server/audit"
	"github.com/skillsync/skillsync-server/auth"
	"github.com/skillsync/skillsync-server/availability"
	availabilitypg "github.com/skillsync/skillsync-server/availability/pgrepo"
	"github.com/skillsync/skillsync-server/internal/config"
	"github.com/skillsync/skillsync-server/internal/kv"
	"github.com/skillsync/skillsync-server/mail"
	"github.com/skillsync/skillsync-server/server"
	"github.com/skillsync/skillsync-server/sessions"
	"github.com/skillsync/skillsync-server/skills"
	skillspg "github.com/skillsync/skillsync-server/skills/pgrepo"
	"github.com/skillsync/skillsync-server/token"
	userspg "github.com/skillsync/skillsync-server/users/pgrepo"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}

func run(logger zerolog.Logger) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg := config.New()
	displayAppname(cfg.GetAppName())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return errors.Wrap(err, "[run] connecting to postgres")
	}
	defer pool.Close()

	store, err := kv.NewRedisStore(cfg.GetRedisAddr(), cfg.GetRedisPassword(), cfg.GetRedisDB(), cfg.GetRedisKeyPrefix())
	if err != nil {
		return errors.Wrap(err, "[run] connecting to redis")
	}

	codec, err := token.NewCodec(cfg)
	if err != nil {
		return errors.Wrap(err, "[run] creating token codec")
	}

	userRepo := userspg.New(pool)
	sessionStore := sessions.NewStore(store)
	sink := audit.NewLogSink(logger, prometheus.DefaultRegisterer)
	mailer := mail.NewSMTPMailer(cfg, cfg.GetAppName())

	authService, err := auth.NewService(auth.Deps{
		Users:    userRepo,
		Sessions: sessionStore,
		Codes:    store,
		Codec:    codec,
		Audit:    sink,
		Mailer:   mailer,
	}, cfg)
	if err != nil {
		return errors.Wrap(err, "[run] creating auth service")
	}

	availabilityService, err := availability.NewService(availabilitypg.New(pool), userRepo)
	if err != nil {
		return errors.Wrap(err, "[run] creating availability service")
	}

	skillService, err := skills.NewService(skillspg.New(pool))
	if err != nil {
		return errors.Wrap(err, "[run] creating skills service")
	}

	srv, err := server.New(cfg, server.Deps{
		Auth:         authService,
		Availability: availabilityService,
		Skills:       skillService,
		Users:        userRepo,
		Codec:        codec,
	}, logger)
	if err != nil {
		return errors.Wrap(err, "[run] creating server")
	}

	httpServer := &http.Server{Addr: cfg.GetPort(), Handler: srv}
	go listenAndServe(httpServer, logger)
	waitForStopSignal()
	return shutdown(httpServer)
}

func listenAndServe(srv *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", srv.Addr).Msg("server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("listen and serve")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "[shutdown] server shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
