package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"gazette-backend/internal/config"
	"gazette-backend/internal/database"
	"gazette-backend/internal/metrics"
	"gazette-backend/internal/models"
	"gazette-backend/internal/repository"
	"gazette-backend/internal/services"
	"gazette-backend/internal/subtitles"
	"gazette-backend/internal/worker"
)

var (
	userFlag string
	dateFlag string
)

func main() {
	root := &cobra.Command{
		Use:           "gazette",
		Short:         "Batch pipeline that turns subscribed YouTube channels into a daily newspaper",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&userFlag, "user", "", "run for a single user id (default: all users)")
	root.PersistentFlags().StringVar(&dateFlag, "date", "", "newspaper day as YYYY-MM-DD (default: today)")

	root.AddCommand(
		newStageCmd("run_collector", "Collect the latest channel uploads", runCollector),
		newStageCmd("run_moderator", "Screen collected videos against not-interested rules", runModerator),
		newStageCmd("run_subtitles", "Download and clean subtitles for moderated videos", runSubtitles),
		newStageCmd("run_required_gen", "Generate the mandatory title and summary", runRequiredGen),
		newStageCmd("run_categorizer", "Assign newspaper categories", runCategorizer),
		newStageCmd("run_article_gen", "Generate long-form articles", runArticleGen),
		newStageCmd("run_newspaper", "Assemble the daily newspaper", runNewspaper),
	)

	if err := root.Execute(); err != nil {
		log.Printf("gazette: %v", err)
		os.Exit(1)
	}
}

type app struct {
	cfg       *config.Config
	gemini    *services.GeminiService
	youtube   *services.YouTubeService
	cache     *subtitles.Cache
	contents  *repository.CollectedContentRepo
	generated *repository.GeneratedContentRepo
	papers    *repository.NewspaperRepo
	users     *repository.UserProvider
	loc       *time.Location
	close     func(context.Context)
}

type stageFunc func(ctx context.Context, a *app, users []models.User, m *metrics.Processor) error

// newStageCmd wraps one pipeline stage: build the app, resolve users, run,
// and flush metrics on every exit path.
func newStageCmd(use, short string, fn stageFunc) *cobra.Command {
	stage := use[len("run_"):]
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			users, err := resolveUsers(a)
			if err != nil {
				return err
			}

			m := metrics.NewProcessor(a.metricsClient(), a.cfg.PipelineID, stage)
			defer m.Complete(ctx)

			if err := fn(ctx, a, users, m); err != nil {
				m.MarkUnclean()
				return fmt.Errorf("%s failed: %w", stage, err)
			}
			return nil
		},
	}
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.Load()

	mongoClient, err := database.NewMongoClient(cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	db := mongoClient.Database(cfg.MongoDatabase)

	a := &app{
		cfg:       cfg,
		cache:     subtitles.NewCache(cfg.SubtitleCacheDir),
		youtube:   services.NewYouTubeService(cfg.TargetLanguages, cfg.ExtensionPriority),
		contents:  repository.NewCollectedContentRepo(db, cfg.CollectedCollection),
		generated: repository.NewGeneratedContentRepo(db, cfg.GeneratedCollection),
		papers:    repository.NewNewspaperRepo(db, cfg.NewspaperCollection),
	}
	a.close = func(ctx context.Context) {
		if a.gemini != nil {
			a.gemini.Close()
		}
		mongoClient.Disconnect(ctx)
	}

	if err := a.contents.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	if err := a.papers.EnsureIndexes(ctx); err != nil {
		return nil, err
	}

	a.gemini, err = services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiMaxTokens, cfg.GeminiConcurrentReqs)
	if err != nil {
		return nil, err
	}

	a.users, err = repository.NewUserProvider(cfg.UsersFile)
	if err != nil {
		return nil, err
	}

	a.loc, err = time.LoadLocation(cfg.UserDayTZ)
	if err != nil {
		return nil, fmt.Errorf("invalid user-day timezone %q: %w", cfg.UserDayTZ, err)
	}

	return a, nil
}

// metricsClient connects the metrics sink lazily; an unset REDIS_URL keeps
// the processor counting without persistence.
func (a *app) metricsClient() *redis.Client {
	if a.cfg.RedisURL == "" {
		return nil
	}
	client, err := database.NewRedisClient(a.cfg.RedisURL)
	if err != nil {
		log.Printf("metrics sink unavailable: %v", err)
		return nil
	}
	return client
}

func resolveUsers(a *app) ([]models.User, error) {
	if userFlag == "" {
		return a.users.All(), nil
	}
	u, err := a.users.Get(userFlag)
	if err != nil {
		return nil, err
	}
	return []models.User{u}, nil
}

func resolveDay(a *app) (time.Time, error) {
	if dateFlag == "" {
		return time.Now(), nil
	}
	day, err := time.ParseInLocation("2006-01-02", dateFlag, a.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q: %w", dateFlag, err)
	}
	return day, nil
}

func runCollector(ctx context.Context, a *app, users []models.User, m *metrics.Processor) error {
	stage := worker.NewCollector(a.youtube, a.contents, a.cfg.MaxVideosPerChannel)
	for _, u := range users {
		if err := stage.Run(ctx, u, m); err != nil {
			return err
		}
	}
	return nil
}

func runModerator(ctx context.Context, a *app, users []models.User, m *metrics.Processor) error {
	stage := worker.NewModerator(a.contents, services.NewModerationService(a.gemini))
	for _, u := range users {
		if err := stage.Run(ctx, u, m); err != nil {
			return err
		}
	}
	return nil
}

func runSubtitles(ctx context.Context, a *app, users []models.User, m *metrics.Processor) error {
	stage := worker.NewSubtitlePreparer(a.contents, a.youtube, a.cache, a.cfg.TargetLanguages, a.cfg.ExtensionPriority)
	for _, u := range users {
		if err := stage.Run(ctx, u, m); err != nil {
			return err
		}
	}
	return nil
}

func runRequiredGen(ctx context.Context, a *app, users []models.User, m *metrics.Processor) error {
	stage := worker.NewRequiredGen(a.contents, a.generated, a.cache,
		services.NewRequiredContentService(a.gemini), a.cfg.TargetLanguages, a.cfg.ExtensionPriority)
	for _, u := range users {
		if err := stage.Run(ctx, u, m); err != nil {
			return err
		}
	}
	return nil
}

func runCategorizer(ctx context.Context, a *app, _ []models.User, m *metrics.Processor) error {
	stage := worker.NewCategorizer(a.generated, services.NewCategorizerService(a.gemini))
	return stage.Run(ctx, m)
}

func runArticleGen(ctx context.Context, a *app, users []models.User, m *metrics.Processor) error {
	stage := worker.NewArticleGen(a.contents, a.generated, a.cache,
		services.NewArticleService(a.gemini, a.cfg.ReadingWPM), a.cfg.TargetLanguages, a.cfg.ExtensionPriority)
	for _, u := range users {
		if err := stage.Run(ctx, u, m); err != nil {
			return err
		}
	}
	return nil
}

func runNewspaper(ctx context.Context, a *app, users []models.User, m *metrics.Processor) error {
	day, err := resolveDay(a)
	if err != nil {
		return err
	}
	stage := worker.NewAssembler(a.contents, a.generated, a.papers, a.loc)
	for _, u := range users {
		if err := stage.Run(ctx, u, day, m); err != nil {
			return err
		}
	}
	return nil
}
