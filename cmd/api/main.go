package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "go-fwpm/internal/common/api"
	"go-fwpm/internal/config"
	"go-fwpm/internal/database"
	import_feature "go-fwpm/internal/features/import"
	"go-fwpm/internal/features/system"
	"go-fwpm/internal/features/task"
	"go-fwpm/internal/logger"
	"go-fwpm/internal/middleware"
	"go-fwpm/pkg/utils"

	_ "go-fwpm/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             cfg.MaxUploadMB * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),    // Cast to Interface
		fx.ResultTags(`group:"routes"`), // Add to Group
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route, logger *zap.Logger) {
	logger.Info("Registering routes", zap.Int("count", len(routes)))
	for _, route := range routes {
		logger.Debug("Setting up route", zap.String("type", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
}

// RegisterAllRoutesWithAnnotation wraps RegisterAllRoutes with fx annotations
var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`, ``),
)

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// ProvideTaskRepository picks the task store named by TASK_STORE. Postgres is
// only connected when selected.
func ProvideTaskRepository(lc fx.Lifecycle, cfg *config.Config, mongodb *database.MongodbDB) (task.TaskRepository, error) {
	switch cfg.TaskStore {
	case config.TaskStoreMongo:
		return task.NewTaskRepository(mongodb), nil
	case config.TaskStorePostgres:
		pg, err := database.NewPostgres(lc, cfg)
		if err != nil {
			return nil, err
		}
		return task.NewPostgresTaskRepository(pg), nil
	}
	return nil, fmt.Errorf("unknown TASK_STORE %q", cfg.TaskStore)
}

// InitializeIndexes ensures that necessary database indexes are created
func InitializeIndexes(lc fx.Lifecycle, taskRepo task.TaskRepository, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			// The import id index backs idempotent commits, so failing here is fatal
			if err := taskRepo.EnsureIndexes(ctx); err != nil {
				logger.Error("Failed to ensure task indexes", zap.Error(err))
				return err
			}
			return nil
		},
	})
}

func StartCleanupScheduler(lc fx.Lifecycle, scheduler *import_feature.CleanupScheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return scheduler.Start()
		},
		OnStop: func(ctx context.Context) error {
			return scheduler.Stop()
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			database.NewDatabase,
			logger.NewLogger,
			NewFiberServer,
			system.NewMetricsRegistry,
			func(reg *prometheus.Registry) prometheus.Registerer { return reg },
			system.NewHub,
			func(hub *system.Hub) import_feature.Notifier { return hub },

			// Task store
			ProvideTaskRepository,
			task.NewRecordValidator,
			task.NewTaskService,
			task.NewTaskController,

			// Imports
			import_feature.NewAttemptRepository,
			import_feature.NewMetrics,
			import_feature.NewImportService,
			import_feature.NewImportController,
			import_feature.NewCleanupScheduler,

			system.NewDebugController,
			system.NewWebSocketController,
		),
		fx.Provide(
			AsRoute(task.NewTaskApi),
			AsRoute(import_feature.NewImportApi),
			AsRoute(system.NewDebugApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewMetricsApi),
			AsRoute(system.NewSwaggerApi),
			AsRoute(system.NewWebSocketApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },
			InitializeIndexes,
			StartCleanupScheduler,
			// Register Routes & Start
			RegisterAllRoutesWithAnnotation,
			StartServer,
		),
	)

	app.Run()
}
