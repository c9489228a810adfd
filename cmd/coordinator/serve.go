// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/rbwleague/matchcoordinator/pkg/adminapi"
	"github.com/rbwleague/matchcoordinator/pkg/composer"
	"github.com/rbwleague/matchcoordinator/pkg/config"
	"github.com/rbwleague/matchcoordinator/pkg/constants"
	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/game"
	"github.com/rbwleague/matchcoordinator/pkg/gameserver"
	"github.com/rbwleague/matchcoordinator/pkg/guildops"
	"github.com/rbwleague/matchcoordinator/pkg/maps"
	"github.com/rbwleague/matchcoordinator/pkg/metrics"
	"github.com/rbwleague/matchcoordinator/pkg/orchestrator"
	"github.com/rbwleague/matchcoordinator/pkg/repository"
	"github.com/rbwleague/matchcoordinator/pkg/repository/memory"
	"github.com/rbwleague/matchcoordinator/pkg/repository/postgres"
	"github.com/rbwleague/matchcoordinator/pkg/store"
	"github.com/rbwleague/matchcoordinator/pkg/validation"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the coordinator",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "in-memory",
				Usage: "keep players, games and queues in memory even when DATABASE_URL is set",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			configureLogging(cfg.LogLevel)
			return serve(c.Context, cfg, c.Bool("in-memory"))
		},
	}
}

func checkServeConfig(cfg *config.Config) error {
	var missing []string
	if cfg.DiscordToken == "" {
		missing = append(missing, "DISCORD_TOKEN")
	}
	if cfg.GuildID == "" {
		missing = append(missing, "GUILD_ID")
	}
	if cfg.GameServerURL == "" {
		missing = append(missing, "GAME_SERVER_URL")
	}
	if len(missing) > 0 {
		return eris.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// gameEvents forwards game server reports to the manager, which is built
// after the client it sends through.
type gameEvents struct {
	*game.Manager
}

func openStore(ctx context.Context, cfg *config.Config, inMemory bool) (repository.Store, func(), error) {
	if inMemory || cfg.DatabaseURL == "" {
		brackets, err := config.LoadRatingBrackets(cfg.RatingsFile)
		if err != nil {
			return nil, nil, err
		}
		logrus.Warn("[coordinator] running with in-memory repositories")
		return memory.NewStore(brackets), func() {}, nil
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, eris.Wrap(err, "open database")
	}
	if err := postgres.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, eris.Wrap(err, "migrate")
	}
	st := postgres.NewStore(db)
	if cfg.RatingsFile != "" {
		brackets, err := config.LoadRatingBrackets(cfg.RatingsFile)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		if err := st.SeedRatingBrackets(ctx, brackets); err != nil {
			_ = db.Close()
			return nil, nil, eris.Wrap(err, "seed rating brackets")
		}
	}
	return st, func() { _ = db.Close() }, nil
}

func serve(parent context.Context, cfg *config.Config, inMemory bool) error {
	if err := checkServeConfig(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var shutdown closer
	defer shutdown.run()

	flushTraces, err := setupTracing(cfg.ZipkinURL)
	if err != nil {
		return err
	}
	shutdown.add(flush(flushTraces))

	scope := envelope.NewRootScope(ctx, "coordinator.serve", "")
	defer scope.Finish()

	st, closeStore, err := openStore(ctx, cfg, inMemory)
	if err != nil {
		return err
	}
	shutdown.add(closeStore)

	queues, err := config.LoadQueues(cfg.QueuesFile)
	if err != nil {
		return err
	}
	for _, q := range queues {
		if err := st.SaveQueue(ctx, q); err != nil {
			return eris.Wrapf(err, "save queue %s", q.ID)
		}
	}
	scope.Log.Infof("[coordinator] %d queues loaded from file", len(queues))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	session, err := discordgo.New("Bot " + strings.TrimPrefix(cfg.DiscordToken, "Bot "))
	if err != nil {
		return eris.Wrap(err, "create discord session")
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates | discordgo.IntentsGuildMembers

	limiter := guildops.NewLimiter(float64(cfg.GuildRequestsPerSecond), cfg.GuildBurst)
	shutdown.add(limiter.Close)
	guild := guildops.NewDiscord(session, cfg.GuildID, cfg.GameCategoryID, limiter)
	picks := guildops.NewDiscordPicks(session, limiter)

	catalogue := maps.NewCatalogue()
	selector := maps.NewSelector(catalogue)

	events := &gameEvents{}
	client := gameserver.NewClient(cfg.GameServerURL, gameserver.NewDispatcher(events, catalogue))

	manager := game.NewManager(game.Deps{
		Games:            st,
		Players:          st,
		Ratings:          st,
		Guild:            guild,
		Server:           client,
		Metrics:          m,
		ScoringChannelID: cfg.ScoringChannelID,
	})
	manager.SetTimings(game.Timings{
		WarpTimeout:    cfg.WarpTimeout(),
		WarpRetryDelay: constants.WarpRetryDelay,
		MaxWarpRetries: constants.MaxWarpRetries,
		CleanupDelay:   cfg.CleanupDelay(),
	})
	events.Manager = manager
	shutdown.add(manager.Close)

	membership := store.NewMembership(cfg.MaxQueueSize)
	validator := validation.NewValidator(st, st, client, m)

	random := composer.NewRandomComposer(st, manager, selector, m)
	random.SetPacing(cfg.GamePacingDelay())
	draft := composer.NewDraftComposer(composer.DraftDeps{
		Players: st,
		Parties: st,
		Guild:   guild,
		Picks:   picks,
		Creator: manager,
		Maps:    selector,
		Requeue: membership,
		Metrics: m,
	})
	draft.SetPickTimeout(cfg.PickTimeout())
	draft.SetPacing(cfg.GamePacingDelay())
	shutdown.add(draft.Cleanup)

	orch := orchestrator.New(orchestrator.Deps{
		Queues:     st,
		Membership: membership,
		Validator:  validator,
		Games:      manager,
		Random:     random,
		Draft:      draft,
		Metrics:    m,
	}, orchestrator.SettingsFromConfig(cfg))
	shutdown.add(orch.Close)

	if err := client.Connect(ctx); err != nil {
		return eris.Wrap(err, "connect to game server")
	}
	shutdown.add(client.Shutdown)
	go func() {
		if err := client.Run(scope); err != nil {
			scope.Log.WithError(err).Error("[coordinator] game server link closed")
			stop()
		}
	}()

	session.AddHandler(picks.HandleInteraction)
	session.AddHandler(guildops.NewVoiceQueues(cfg.GuildID, st, membership, orch).HandleVoiceState)
	if err := session.Open(); err != nil {
		return eris.Wrap(err, "open discord session")
	}
	shutdown.add(func() { _ = session.Close() })

	orch.Start(ctx)

	server := &http.Server{
		Addr:              cfg.AdminAddr,
		Handler:           adminapi.NewRouter(adminapi.NewHandler(orch, manager, draft.Sessions, membership), registry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		scope.Log.Infof("[coordinator] admin api listening on %s", cfg.AdminAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		scope.Log.Info("[coordinator] shutting down")
	case err := <-serverErr:
		scope.Log.WithError(err).Error("[coordinator] admin api failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		scope.Log.WithError(err).Warn("[coordinator] admin api did not stop cleanly")
	}
	return nil
}
