package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/unblurhq/unblur/internal/api"
	"github.com/unblurhq/unblur/internal/storage"
	"github.com/unblurhq/unblur/pkg/billing"
	"github.com/unblurhq/unblur/pkg/config"
	"github.com/unblurhq/unblur/pkg/deblur"
	"github.com/unblurhq/unblur/pkg/httpserver"
	"github.com/unblurhq/unblur/pkg/logger"
	"github.com/unblurhq/unblur/pkg/objectstore"
	"github.com/unblurhq/unblur/pkg/pg"
	"github.com/unblurhq/unblur/pkg/plan"
	"github.com/unblurhq/unblur/pkg/redis"
)

type appConfig struct {
	Env string `env:"APP_ENV" envDefault:"development"`

	HTTP   httpserver.Config
	DB     pg.Config
	Redis  redis.Config
	Stripe billing.StripeConfig
	Plans  plan.EnvConfig
	Deblur deblur.ClientConfig
	R2     objectstore.Config
}

func main() {
	ctx := context.Background()

	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(logger.WithEnvironment(cfg.Env, "unblur"))
	logger.SetAsDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorContext(ctx, "server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	pool, err := pg.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, storage.Migrations, storage.MigrationsDir, cfg.DB, log); err != nil {
		return err
	}

	table, err := plan.NewEnvSource(cfg.Plans).Load(ctx)
	if err != nil {
		return err
	}

	provider, err := billing.NewStripeProvider(cfg.Stripe)
	if err != nil {
		return err
	}

	accounts := storage.NewAccountStore(pool)
	jobs := storage.NewJobStore(pool)

	billingSvc := billing.NewService(accounts, table,
		billing.WithProvider(provider),
		billing.WithLogger(log),
	)

	deblurClient, err := deblur.NewClient(cfg.Deblur)
	if err != nil {
		return err
	}

	deblurOpts := []deblur.ServiceOption{deblur.WithLogger(log)}
	health := []func(context.Context) error{pg.Healthcheck(pool)}

	// The result cache is an optimization; a missing Redis only costs
	// extra calls to the deblur API.
	redisClient, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		log.WarnContext(ctx, "redis unavailable, result caching disabled", slog.Any("error", err))
	} else {
		defer redisClient.Close() //nolint:errcheck
		deblurOpts = append(deblurOpts, deblur.WithCache(deblur.NewRedisResultCache(redisClient, deblur.DefaultResultTTL)))
		health = append(health, redis.Healthcheck(redisClient))
	}

	deblurSvc := deblur.NewService(accounts, jobs, deblurClient, deblurOpts...)

	uploads, err := objectstore.New(ctx, cfg.R2)
	if err != nil {
		return err
	}

	router := api.Router(api.Deps{
		Billing:  billingSvc,
		Webhooks: provider,
		Deblur:   deblurSvc,
		Uploads:  uploads,
		Health:   health,
		Log:      log,
	})

	return httpserver.New(cfg.HTTP, log).Run(ctx, router)
}
