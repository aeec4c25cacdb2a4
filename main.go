package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/maxpal/internal/api/sncf"
	"github.com/danpilch/maxpal/internal/availability"
	"github.com/danpilch/maxpal/internal/config"
	"github.com/danpilch/maxpal/internal/monitor"
	"github.com/danpilch/maxpal/internal/notify"
	"github.com/danpilch/maxpal/internal/scheduler"
	"github.com/danpilch/maxpal/internal/server"
	"github.com/danpilch/maxpal/internal/tz"
)

var CLI struct {
	Config   string `help:"Path to config file" default:"config.yaml" type:"path"`
	LogLevel string `help:"Log level" default:"info" enum:"debug,info,warn,error" env:"LOG_LEVEL"`

	Serve ServeCmd `cmd:"" default:"1" help:"Serve the availability endpoint"`
	Check CheckCmd `cmd:"" help:"Look up free seats once and print the result"`
	Watch WatchCmd `cmd:"" help:"Poll configured journeys and notify new free seats"`
}

type ServeCmd struct {
	Username string `help:"Expected basic auth username" env:"API_USERNAME" required:""`
	Password string `help:"Expected basic auth password" env:"API_PASSWORD" required:""`
}

type CheckCmd struct {
	Origin      string `help:"Origin station code" required:""`
	Destination string `help:"Destination station code" required:""`
	From        string `help:"Window start, e.g. 2024-01-01T08:00" required:""`
	To          string `help:"Window end, e.g. 2024-01-01T20:00" required:""`
	Card        string `help:"TGVmax card number" env:"TGVMAX_NUMBER" required:""`
}

type WatchCmd struct {
	Card          string `help:"Default TGVmax card number" env:"TGVMAX_NUMBER"`
	PushoverToken string `help:"Pushover application token" env:"PUSHOVER_TOKEN" required:""`
	PushoverUser  string `help:"Pushover user key" env:"PUSHOVER_USER" required:""`
}

type runContext struct {
	ctx    context.Context
	cfg    *config.Config
	logger *logrus.Logger
}

func main() {
	// .env is optional for local development
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI)

	// Setup structured logging with logfmt
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	level, err := logrus.ParseLevel(CLI.LogLevel)
	if err != nil {
		logger.WithField("error", err).Fatal("invalid log level")
	}
	logger.SetLevel(level)

	cfg, err := config.Load(CLI.Config)
	switch {
	case errors.Is(err, fs.ErrNotExist) && kctx.Command() != "watch":
		logger.WithField("path", CLI.Config).Debug("config file not found, using defaults")
		cfg = config.Default()
	case err != nil:
		logger.WithField("error", err).Fatal("failed to load config")
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.WithField("signal", sig).Info("received signal, shutting down")
		cancel()
	}()

	if err := kctx.Run(&runContext{ctx: ctx, cfg: cfg, logger: logger}); err != nil {
		logger.WithField("error", err).Fatal("command failed")
	}
}

func newResolver(cfg *config.Config, logger *logrus.Logger) *availability.Resolver {
	client := sncf.NewClient(cfg.Upstream.URL, cfg.Upstream.Timeout)
	return availability.NewResolver(client, logger, availability.Options{
		MaxPages: cfg.Upstream.MaxPages,
		Deadline: cfg.Upstream.SearchDeadline,
	})
}

func (c *ServeCmd) Run(rc *runContext) error {
	router := server.NewRouter(newResolver(rc.cfg, rc.logger), server.Options{
		CORSOrigins: rc.cfg.Server.CORSOrigins,
		Credentials: server.Credentials{Username: c.Username, Password: c.Password},
	}, rc.logger)

	if err := server.Run(rc.ctx, rc.cfg.Server.Address, router, rc.logger); err != nil {
		return fmt.Errorf("serving http: %w", err)
	}
	rc.logger.Info("server stopped")
	return nil
}

func (c *CheckCmd) Run(rc *runContext) error {
	from, err := tz.Parse(c.From)
	if err != nil {
		return fmt.Errorf("parsing --from: %w", err)
	}
	to, err := tz.Parse(c.To)
	if err != nil {
		return fmt.Errorf("parsing --to: %w", err)
	}
	if from.After(to) {
		return fmt.Errorf("--from must not be after --to")
	}

	result := newResolver(rc.cfg, rc.logger).Resolve(rc.ctx, availability.Query{
		Origin:      c.Origin,
		Destination: c.Destination,
		From:        from,
		To:          to,
		CardNumber:  c.Card,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func (c *WatchCmd) Run(rc *runContext) error {
	if len(rc.cfg.Watch.Journeys) == 0 {
		return fmt.Errorf("no journeys configured under watch.journeys")
	}

	notifier := notify.NewNotifier(c.PushoverToken, c.PushoverUser, rc.logger)
	availabilityMonitor := monitor.NewAvailabilityMonitor(newResolver(rc.cfg, rc.logger), notifier, c.Card, rc.logger)
	sched := scheduler.NewScheduler(rc.cfg, availabilityMonitor, rc.logger)

	rc.logger.WithFields(logrus.Fields{
		"journeys": len(rc.cfg.Watch.Journeys),
		"interval": rc.cfg.Watch.Interval.String(),
	}).Info("starting watch")

	if err := notifier.SendWatchStarted(len(rc.cfg.Watch.Journeys)); err != nil {
		rc.logger.WithField("error", err).Warn("failed to send startup notification")
	}

	sched.Start(rc.ctx)

	// Wait for context cancellation
	<-rc.ctx.Done()

	// Stop scheduler gracefully
	sched.Stop()
	rc.logger.Info("watch stopped")
	return nil
}
