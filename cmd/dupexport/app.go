package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"dupexport/internal/config"
	"dupexport/internal/eventbus"
	"dupexport/internal/logging"
	"dupexport/internal/remote"
	"dupexport/internal/submit"
	"dupexport/internal/workspace"
)

// app holds what every command needs
type app struct {
	cfg    *config.Config
	client *remote.Client
	bus    eventbus.EventBus
	logger *slog.Logger
	logOut io.Closer
}

// setup loads the configuration, applies flag overrides, configures logging
// and creates the service client.
func setup() (*app, error) {
	svc := configService()
	cfg, err := svc.Load()
	if err != nil {
		return nil, err
	}
	if flagEndpoint != "" {
		cfg.Endpoint = flagEndpoint
	}
	if flagLogFile != "" {
		cfg.Logging.File = flagLogFile
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	out, err := logging.OpenFile(cfg.Logging.File)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format, out)

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "dupexport/" + version
	}
	client := remote.NewClient(cfg.Endpoint,
		remote.WithUserAgent(userAgent),
		remote.WithLogger(logger),
		remote.WithHTTPClient(&http.Client{Timeout: cfg.ExportTimeout.Duration}),
	)
	logger.Info("dupexport starting", "version", version, "endpoint", client.BaseURL(), "config", svc.Path())

	bus := eventbus.New()
	logEvents(bus)

	return &app{cfg: cfg, client: client, bus: bus, logger: logger, logOut: out}, nil
}

// configService honours --config
func configService() config.ConfigService {
	if flagConfig != "" {
		return config.NewConfigServiceAt(flagConfig)
	}
	return config.NewConfigService()
}

// commandContext returns parent carrying the app logger tagged with the command name
func (a *app) commandContext(parent context.Context, command string, args ...any) context.Context {
	return logging.NewContext(parent, a.logger.With(append([]any{"cmd", command}, args...)...))
}

func (a *app) workspace() *workspace.Workspace {
	return workspace.New(a.client, a.cfg.Repositories, a.cfg.PageSize, a.bus)
}

func (a *app) controller() *submit.Controller {
	return submit.NewController(a.client, a.bus)
}

func (a *app) Close() {
	a.bus.Close()
	_ = a.logOut.Close()
}

// logEvents records the lifecycle events in the log
func logEvents(bus eventbus.EventBus) {
	bus.Subscribe(eventbus.EventRepositorySelected, func(e eventbus.DomainEvent) {
		slog.Info("repository selected", "repo_id", e.(eventbus.RepositorySelectedEvent).ID)
	})
	bus.Subscribe(eventbus.EventCatalogLoaded, func(e eventbus.DomainEvent) {
		ev := e.(eventbus.CatalogLoadedEvent)
		slog.Debug("catalog replaced", "repo_id", ev.RepositoryID, "classes", ev.Classes)
	})
	bus.Subscribe(eventbus.EventSubmissionState, func(e eventbus.DomainEvent) {
		ev := e.(eventbus.SubmissionStateEvent)
		slog.Debug("submission state", "from", ev.From, "to", ev.To)
	})
	bus.Subscribe(eventbus.EventExportCompleted, func(e eventbus.DomainEvent) {
		ev := e.(eventbus.ExportCompletedEvent)
		if ev.Err != nil {
			slog.Error("export failed", "name", ev.ExternalName, "error", ev.Err)
			return
		}
		slog.Info("export completed", "name", ev.ExternalName, "file", ev.Filename, "bytes", ev.Bytes)
	})
	bus.Subscribe(eventbus.EventError, func(e eventbus.DomainEvent) {
		ev := e.(eventbus.ErrorEvent)
		slog.Error(ev.Message, "error", ev.Err)
	})
}
