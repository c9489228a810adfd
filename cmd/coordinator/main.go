// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/rbwleague/matchcoordinator/pkg/config"
	"github.com/rbwleague/matchcoordinator/pkg/repository/postgres"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "coordinator",
		Usage: "ranked bedwars match coordinator",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("[coordinator] exited with an error")
	}
}

func configureLogging(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithError(err).Warnf("[coordinator] unknown log level %q, using info", level)
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply database migrations and seed rating brackets",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			configureLogging(cfg.LogLevel)
			if cfg.DatabaseURL == "" {
				return eris.New("DATABASE_URL is required to migrate")
			}

			db, err := postgres.Open(c.Context, cfg.DatabaseURL)
			if err != nil {
				return eris.Wrap(err, "open database")
			}
			defer db.Close()
			if err := postgres.Migrate(db); err != nil {
				return eris.Wrap(err, "migrate")
			}

			brackets, err := config.LoadRatingBrackets(cfg.RatingsFile)
			if err != nil {
				return err
			}
			if err := postgres.NewStore(db).SeedRatingBrackets(c.Context, brackets); err != nil {
				return eris.Wrap(err, "seed rating brackets")
			}
			logrus.Infof("[coordinator] migrations applied, %d rating brackets seeded", len(brackets))
			return nil
		},
	}
}

// closer collects shutdown steps and runs them in reverse order.
type closer []func()

func (c *closer) add(fn func()) {
	*c = append(*c, fn)
}

func (c closer) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func flush(shutdown func(context.Context) error) func() {
	return func() {
		if err := shutdown(context.Background()); err != nil {
			logrus.WithError(err).Warn("[coordinator] could not flush traces")
		}
	}
}
