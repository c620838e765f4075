package main

import (
	"errors"
	"flag"
	"log/slog"
	"os"

	"schedule-backend/internal/components/chrono"
	"schedule-backend/internal/components/notify"
	"schedule-backend/internal/components/telemetry"
	"schedule-backend/internal/db"
	"schedule-backend/internal/httpapi"
	"schedule-backend/internal/locator"
	"schedule-backend/internal/retrieval"
	"schedule-backend/internal/schedule"
	"schedule-backend/lib/configutil"
	"schedule-backend/lib/util/serviceutil"
	"schedule-backend/pkg/migrations"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "Path to the config file.")
	refreshNow := flag.Bool("refresh", false, "Refresh the schedule from the source page on start.")
	flag.Parse()

	ctx := serviceutil.SignalContext()
	output := InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfigWithDefaults(*configPath, DefaultConfig())
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("no config file found, using defaults", "path", *configPath)
	} else if err != nil {
		serviceutil.Fatal("read config", err)
	}

	tel := telemetry.SlogAPI{}
	clock, err := chrono.NewStandardTime(cfg.Timezone)
	if err != nil {
		serviceutil.Fatal("load timezone", err)
	}

	database, err := migrations.OpenAndMigrateDB(db.Schema, cfg.Database)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	defer database.Close()

	retrievalOpts := cfg.Retrieval.Options()
	retrievalOpts.Shaping.PageReferer = cfg.Source.PageReferer
	if output != nil {
		retrievalOpts.MessageOutput = output
	}
	engine := retrieval.NewEngine(retrievalOpts, tel)
	loc := locator.NewLocator(engine, cfg.Source.Options(), tel)

	service, err := schedule.NewService(
		database, engine, loc,
		schedule.Options{
			PageUrl:    cfg.Source.PageUrl,
			Normalizer: cfg.Normalizer.Options(),
		},
		schedule.WithCustomClock(clock),
		schedule.WithCustomTelemetryAPI(tel),
	)
	if err != nil {
		serviceutil.Fatal("init schedule service", err)
	}

	notifier := notify.FromConfig(cfg.Notify)
	if cfg.Refresh.Cron != "" {
		cron := chrono.NewStandardCron(clock, tel)
		defer cron.Stop()
		err = service.StartDaemon(ctx, cron, cfg.Refresh.Cron, notifier)
		if err != nil {
			serviceutil.Fatal("schedule refresh", err)
		}
	}
	if (cfg.Refresh.OnStart || *refreshNow) && cfg.Source.PageUrl != "" {
		go service.RefreshAndNotify(ctx, notifier)
	}

	api := httpapi.NewServer(service, httpapi.Options{
		MaxUploadBytes: cfg.Http.MaxUploadBytes,
		AllowOrigin:    cfg.Http.AllowOrigin,
	}, tel)

	go serviceutil.StartHttpServer(ctx, cfg.Http.Port, api.Handler())
	<-ctx.Done()
}
