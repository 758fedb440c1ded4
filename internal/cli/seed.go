package cli

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"lesson-quiz-service/internal/config"
	"lesson-quiz-service/internal/infra/postgres"
	redisinfra "lesson-quiz-service/internal/infra/redis"
)

// NewSeedCmd loads lesson quiz payloads from a JSON file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert lesson quizzes from a JSON seed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()

			entries, err := postgres.ReadSeedFile(file)
			if err != nil {
				return err
			}
			if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
				return err
			}

			db, err := openBun(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := postgres.NewSeeder(db).Upsert(ctx, entries)
			if err != nil {
				return err
			}
			log.Info("lesson quizzes seeded", "count", n, "file", file)

			// Drop stale cached payloads so running servers pick up the new content.
			if cfg.Redis.Addr != "" {
				client := newRedisClient(cfg)
				defer client.Close()
				cache := redisinfra.NewQuizRepository(client, nil, config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute))
				for _, e := range entries {
					if err := cache.Invalidate(ctx, e.LessonID); err != nil {
						return fmt.Errorf("seeded but cache not cleared: %w", err)
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "config/seed.json", "path to JSON seed file")
	return cmd
}

func newRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
