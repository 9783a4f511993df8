package main

import (
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/ojisan-dev/nostrbot/internal/bot"
	"github.com/ojisan-dev/nostrbot/internal/bots"
	"github.com/ojisan-dev/nostrbot/internal/calendar"
	"github.com/ojisan-dev/nostrbot/internal/config"
	"github.com/ojisan-dev/nostrbot/internal/discord"
	"github.com/ojisan-dev/nostrbot/internal/influx"
	"github.com/ojisan-dev/nostrbot/internal/llm"
	"github.com/ojisan-dev/nostrbot/internal/nostr"
)

func main() {
	_ = godotenv.Load()

	app := cli.App{
		Name:  "nostrbot",
		Usage: "nostr reaction bots",
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "hex", Usage: "bot private key (hex)", EnvVars: []string{"HEX"}},
		&cli.StringFlag{Name: "oji-hex", Usage: "ojisan private key (hex)", EnvVars: []string{"OJI_HEX"}},
		&cli.StringFlag{Name: "passport-hex", Usage: "passport private key (hex)", EnvVars: []string{"PASSPORT_HEX"}},
		&cli.StringSliceFlag{Name: "relay", Usage: "relay websocket URL (repeatable)", EnvVars: []string{"RELAYS"}},
		&cli.BoolFlag{Name: "test-mode", Usage: "log outgoing notes instead of publishing", EnvVars: []string{"TEST_MODE"}},
		&cli.StringFlag{Name: "openai-key", EnvVars: []string{"OPENAI_API_KEY"}},
		&cli.StringFlag{Name: "openai-model", Value: "gpt-4o-mini", EnvVars: []string{"OPENAI_MODEL"}},
		&cli.StringFlag{Name: "openai-base-url", EnvVars: []string{"OPENAI_BASE_URL"}},
		&cli.StringFlag{Name: "monitor-keywords", EnvVars: []string{"MONITOR_KEYWORDS"}},
		&cli.StringFlag{Name: "monitor-npubs", EnvVars: []string{"MONITOR_NPUBS"}},
		&cli.StringFlag{Name: "monitor-mention-npubs", EnvVars: []string{"MONITOR_MENTION_NPUBS"}},
		&cli.StringFlag{Name: "discord-webhook-url", EnvVars: []string{"DISCORD_WEBHOOK_URL"}},
		&cli.StringFlag{Name: "influx-url", EnvVars: []string{"INFLUXDB_URL"}},
		&cli.StringFlag{Name: "influx-token", EnvVars: []string{"INFLUXDB_TOKEN"}},
		&cli.StringFlag{Name: "influx-org", Value: "my-org", EnvVars: []string{"INFLUXDB_ORG"}},
		&cli.StringFlag{Name: "influx-bucket", Value: "home-temp", EnvVars: []string{"INFLUXDB_BUCKET"}},
		&cli.StringFlag{Name: "myroom-authors", EnvVars: []string{"MYROOM_AUTHORS"}},
		&cli.StringFlag{Name: "passport-target", EnvVars: []string{"PASSPORT_TARGET"}},
		&cli.DurationFlag{Name: "passport-interval", EnvVars: []string{"PASSPORT_INTERVAL"}},
		&cli.StringFlag{Name: "metrics-addr", Value: ":8345", EnvVars: []string{"METRICS_ADDR"}},
		&cli.DurationFlag{Name: "restart-after", Usage: "exit cleanly after this duration so the supervisor restarts the process", Value: 30 * time.Minute, EnvVars: []string{"RESTART_AFTER"}},
		&cli.StringFlag{Name: "log-level", Value: "info", EnvVars: []string{"LOG_LEVEL"}},
	}

	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(cctx *cli.Context) error {
	cfg := config.Config{
		PrivateKey:          cctx.String("hex"),
		OjisanKey:           cctx.String("oji-hex"),
		PassportKey:         cctx.String("passport-hex"),
		Relays:              cctx.StringSlice("relay"),
		TestMode:            cctx.Bool("test-mode"),
		OpenAIKey:           cctx.String("openai-key"),
		OpenAIModel:         cctx.String("openai-model"),
		OpenAIBaseURL:       cctx.String("openai-base-url"),
		MonitorKeywords:     config.SplitList(cctx.String("monitor-keywords")),
		MonitorNpubs:        config.SplitList(cctx.String("monitor-npubs")),
		MonitorMentionNpubs: config.SplitList(cctx.String("monitor-mention-npubs")),
		DiscordWebhookURL:   cctx.String("discord-webhook-url"),
		InfluxURL:           cctx.String("influx-url"),
		InfluxToken:         cctx.String("influx-token"),
		InfluxOrg:           cctx.String("influx-org"),
		InfluxBucket:        cctx.String("influx-bucket"),
		MyRoomAuthors:       config.SplitList(cctx.String("myroom-authors")),
		PassportTarget:      cctx.String("passport-target"),
		PassportInterval:    cctx.Duration("passport-interval"),
		MetricsAddr:         cctx.String("metrics-addr"),
		RestartAfter:        cctx.Duration("restart-after"),
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	level := slog.LevelInfo
	if cctx.String("log-level") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := nostr.New(nostr.Config{
		PrivateKey: cfg.PrivateKey,
		Relays:     cfg.Relays,
		TestMode:   cfg.TestMode,
	}, logger)
	if err != nil {
		return err
	}
	logger.Info("starting", "npub", client.Npub(), "relays", cfg.Relays, "test_mode", cfg.TestMode)

	var model *llm.Client
	if cfg.OpenAIKey != "" {
		model = llm.New(llm.Config{
			APIKey:  cfg.OpenAIKey,
			Model:   cfg.OpenAIModel,
			BaseURL: cfg.OpenAIBaseURL,
		}, logger)
	}

	manager := bot.NewManager(client, logger)
	if err := registerBots(cfg, manager, client, model, logger); err != nil {
		return err
	}

	// administrative command surface, always on
	manager.Register(bot.Admin(manager))

	client.SubscribeText(func(ev *nostr.Event) {
		manager.Dispatch(ctx, ev)
	})

	go client.Run(ctx)

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logger.Error("metrics server failed", "err", err)
			}
		}()
	}

	if cfg.PassportKey != "" && cfg.PassportTarget != "" && cfg.PassportInterval > 0 {
		passport, err := bots.NewPassport(client, cfg.PassportKey, cfg.PassportTarget, logger)
		if err != nil {
			return err
		}
		go passport.Run(ctx, cfg.PassportInterval)
	}

	if cfg.RestartAfter > 0 {
		restart := time.NewTimer(cfg.RestartAfter)
		defer restart.Stop()
		select {
		case <-ctx.Done():
		case <-restart.C:
			logger.Info("scheduled restart")
		}
		return nil
	}

	<-ctx.Done()
	return nil
}

func registerBots(cfg config.Config, manager *bot.Manager, client *nostr.Client, model *llm.Client, logger *slog.Logger) error {
	manager.Register(bots.Salmon())

	var extractor calendar.Extractor
	if model != nil {
		extractor = calendar.NewLLMExtractor(model)
	}
	manager.Register(bots.Calendar(calendar.New(extractor, logger)))

	if cfg.OjisanKey != "" {
		var generator bots.Completer = bots.PhraseReplies{Random: rand.Float64}
		if model != nil {
			generator = model
		}
		ojisan, err := bots.Ojisan(generator, cfg.OjisanKey, client, rand.Float64, logger)
		if err != nil {
			return err
		}
		manager.Register(ojisan)
	}

	if cfg.DiscordWebhookURL != "" {
		filter := bots.NewMonitorFilter(bots.MonitorConfig{
			Keywords:     cfg.MonitorKeywords,
			Npubs:        cfg.MonitorNpubs,
			MentionNpubs: cfg.MonitorMentionNpubs,
		})
		sink := discord.NewWebhook(cfg.DiscordWebhookURL)
		manager.Register(bots.Monitor(filter, sink, client))
	}

	if cfg.InfluxURL != "" && cfg.InfluxToken != "" && len(cfg.MyRoomAuthors) > 0 {
		source := influx.New(influx.Config{
			URL:    cfg.InfluxURL,
			Token:  cfg.InfluxToken,
			Org:    cfg.InfluxOrg,
			Bucket: cfg.InfluxBucket,
		})
		manager.Register(bots.MyRoom(source, cfg.MyRoomAuthors))
	}
	return nil
}
