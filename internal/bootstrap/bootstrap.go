package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/yigit/storetrainer/internal/ai"
	appAuth "github.com/yigit/storetrainer/internal/app/auth"
	appControllers "github.com/yigit/storetrainer/internal/app/controllers"
	appMigrations "github.com/yigit/storetrainer/internal/app/migrations"
	appRepos "github.com/yigit/storetrainer/internal/app/repositories"
	appRoutes "github.com/yigit/storetrainer/internal/app/routes"
	appServices "github.com/yigit/storetrainer/internal/app/services"
	"github.com/yigit/storetrainer/internal/config"
	"github.com/yigit/storetrainer/internal/db"
	appMiddleware "github.com/yigit/storetrainer/internal/middleware"
	pkgAuth "github.com/yigit/storetrainer/internal/pkg/auth"
	"github.com/yigit/storetrainer/internal/pkg/helpers"
	"github.com/yigit/storetrainer/internal/pkg/logger"
	"github.com/yigit/storetrainer/internal/pkg/metrics"
	practicews "github.com/yigit/storetrainer/internal/pkg/websocket"
	"github.com/yigit/storetrainer/internal/seed"
)

// DefaultConfigPath is used when STORETRAINER_CONFIG is unset
const DefaultConfigPath = "configs/config.yaml"

// latencyBuckets stretch past the default 10s to cover slow model calls
var latencyBuckets = []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30, 60}

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	Metrics      *metrics.Manager

	AuthService       appServices.AuthService
	PostService       appServices.PostService
	EventService      appServices.EventService
	DashboardService  appServices.DashboardService
	SimulationService appServices.SimulationService

	AuthMiddleware *appMiddleware.AuthMiddleware
	Controllers    appRoutes.Controllers
	Logger         zerolog.Logger
}

// ConfigPath returns the configuration file location
func ConfigPath() string {
	if p := os.Getenv("STORETRAINER_CONFIG"); p != "" {
		return p
	}
	return DefaultConfigPath
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	logger.Configure(logger.Config{
		Level:   logLevel,
		Pretty:  strings.ToLower(cfg.Logging.Format) == "text",
		Service: "storetrainer-api",
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase connects, applies migrations and seeds the admin account.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := appMigrations.NewMigrator(database.Pool, lgr).MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	admin := seed.AdminAccount{Email: cfg.Seed.AdminEmail, Password: cfg.Seed.AdminPassword}
	if err := seed.EnsureAdmin(ctx, appRepos.NewUserRepository(database.Pool), pkgAuth.HashPassword, admin, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to seed admin account, proceeding anyway...")
	}

	return database, nil
}

func loadPrompts(cfg *config.Config, lgr zerolog.Logger) (*ai.PromptSet, error) {
	if cfg.AI.PromptDir == "" {
		return ai.DefaultPrompts(), nil
	}
	prompts, err := ai.LoadPrompts(cfg.AI.PromptDir)
	if err != nil {
		return nil, fmt.Errorf("load prompts from %s: %w", cfg.AI.PromptDir, err)
	}
	lgr.Info().Str("dir", cfg.AI.PromptDir).Msg("Prompt templates loaded")
	return prompts, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Metrics = metrics.NewManager(
		metrics.WithNamespace("storetrainer"),
		metrics.WithHistogramBuckets(latencyBuckets),
		metrics.WithRuntimeCollectors(),
	)
	deps.Repos = appRepos.NewRepositories(database)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 24*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.UserRepository)

	prompts, err := loadPrompts(cfg, lgr)
	if err != nil {
		return nil, err
	}

	completer := ai.Instrument(ai.NewHTTPCompleter(ai.ClientConfig{
		BaseURL: cfg.AI.BaseURL,
		APIKey:  cfg.AI.APIKey,
		Model:   cfg.AI.Model,
	}), deps.Metrics)
	aiLog := logger.WithComponent("ai")
	observer := ai.MultiObserver{ai.NewLogObserver(aiLog), ai.NewMetricsObserver(deps.Metrics)}

	responder := ai.NewResponder(completer, prompts, ai.ResponderConfig{
		Model:         cfg.AI.Model,
		MaxTokens:     cfg.AI.MaxTokens,
		Temperature:   cfg.AI.Temperature,
		TopP:          cfg.AI.TopP,
		MaxReplyRunes: cfg.AI.ReplyMaxChars,
		Timeout:       cfg.AI.Timeout,
	}, observer, aiLog)
	evaluator := ai.NewEvaluator(completer, prompts, ai.EvaluatorConfig{
		Model:     cfg.AI.Model,
		MaxTokens: cfg.AI.EvaluationMaxTokens,
		Timeout:   cfg.AI.Timeout,
	}, observer, aiLog)
	summarizer := ai.NewSummarizer(completer, prompts, cfg.AI.Model, cfg.AI.Timeout, observer, aiLog)

	deps.AuthService = appServices.NewAuthService(deps.Repos.UserRepository, deps.JWTService, lgr)
	deps.PostService = appServices.NewPostService(
		deps.Repos.PostRepository,
		deps.Repos.EventRepository,
		deps.AuthzService,
		summarizer,
		deps.Metrics,
		lgr,
	)
	deps.EventService = appServices.NewEventService(deps.Repos.EventRepository, deps.Repos.ParticipationRepository, lgr)
	deps.DashboardService = appServices.NewDashboardService(
		deps.Repos.UserRepository,
		deps.Repos.EventRepository,
		deps.Repos.PostRepository,
		deps.Repos.StatsRepository,
		lgr,
	)
	deps.SimulationService = appServices.NewSimulationService(responder, evaluator, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	practice := practicews.NewHandler(func(persona ai.Persona, scenario string) practicews.Session {
		return deps.SimulationService.StartPractice(persona, scenario)
	}, deps.Metrics, cfg.CORS.AllowedOrigins, logger.WithComponent("practice"))

	deps.Controllers = appRoutes.Controllers{
		Auth:       appControllers.NewAuthController(deps.AuthService, lgr),
		Dashboard:  appControllers.NewDashboardController(deps.DashboardService, lgr),
		Posts:      appControllers.NewPostController(deps.PostService, deps.AuthService, lgr),
		Events:     appControllers.NewEventController(deps.EventService, deps.AuthService, lgr),
		Simulation: appControllers.NewSimulationController(deps.SimulationService, lgr),
		Practice:   practice.HandleConnection,
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	appMiddleware.RegisterValidation()

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(lgr), appMiddleware.Metrics(deps.Metrics))

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.Metrics.Handler())

	return router
}
