package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/course-reviews/internal/auth"
	"github.com/Clark-Hu/course-reviews/internal/config"
	"github.com/Clark-Hu/course-reviews/internal/repository"
	"github.com/Clark-Hu/course-reviews/internal/seed"
	"github.com/Clark-Hu/course-reviews/internal/store"
)

func main() {
	var (
		data    = flag.String("data", "db/seed/seed.yaml", "path to the seed fixture")
		reset   = flag.Bool("reset", false, "truncate users, courses and reviews first")
		rebuild = flag.Bool("rebuild", false, "drop and recreate the schema first")
		migrate = flag.Bool("migrate", true, "apply schema migrations before seeding")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("seed: could not read .env")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}
	logger := cfg.NewLogger()

	fixture, err := seed.Load(*data)
	if err != nil {
		logger.WithError(err).Fatal("seed: invalid fixture")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := store.OptionsFromConfig(cfg, logger)
	opts.MinConns = 0
	st, err := store.New(ctx, cfg.DBURL, opts)
	if err != nil {
		logger.WithError(err).Fatal("seed: connect database")
	}
	defer st.Close()

	switch {
	case *rebuild:
		if err := st.Rebuild(ctx); err != nil {
			logger.WithError(err).Fatal("seed: rebuild schema")
		}
	case *migrate:
		if err := st.Migrate(ctx); err != nil {
			logger.WithError(err).Fatal("seed: migrate")
		}
	}
	if *reset && !*rebuild {
		if err := seed.Reset(ctx, st.Pool()); err != nil {
			logger.WithError(err).Fatal("seed: reset")
		}
		logger.Info("seed: tables cleared")
	}

	seeder := seed.New(repository.New(st), auth.NewHasher(cfg.BcryptCost), logger)
	sum, err := seeder.Apply(ctx, fixture)
	if err != nil {
		logger.WithError(err).Fatal("seed: apply fixture")
	}
	logger.WithFields(logrus.Fields{
		"users":   sum.Users,
		"courses": sum.Courses,
		"reviews": sum.Reviews,
	}).Info("seed: completed")
}
