package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/farmapos/farmacore/internal/application/inventory"
	"github.com/farmapos/farmacore/internal/application/pos"
	"github.com/farmapos/farmacore/internal/application/transfer"
	"github.com/farmapos/farmacore/internal/infrastructure/audit"
	"github.com/farmapos/farmacore/internal/infrastructure/eventbus"
	"github.com/farmapos/farmacore/internal/infrastructure/postgres"
	"github.com/farmapos/farmacore/internal/infrastructure/rediscache"
	httpRouter "github.com/farmapos/farmacore/internal/interfaces/http"
	"github.com/farmapos/farmacore/pkg/config"
	"github.com/farmapos/farmacore/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Efectos post-commit: auditoría, eventos de dominio y cache.
	bus := eventbus.New(log)
	defer bus.Close()
	auditor := audit.NewZerologAuditor(log)

	var cache inventory.CacheInvalidator
	if cfg.Redis.Addr != "" {
		invalidator, err := rediscache.New(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer invalidator.Close()
		cache = invalidator
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: invalidación de cache desactivada")
	}
	reporter := inventory.NewReporter(auditor, bus, cache, log)

	txRunner := postgres.NewTxRunner(pool)
	productRepo := postgres.NewProductRepository(pool)
	stockRepo := postgres.NewStockLevelRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	transferRepo := postgres.NewTransferRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool)

	allocator := inventory.NewBatchAllocator(cfg.Inventory.NearExpiryDays)
	recordMovementUC := inventory.NewRecordMovementUseCase(txRunner, productRepo, reporter)
	stockQueryUC := inventory.NewStockQueryUseCase(stockRepo, movementRepo, cfg.Inventory.NearExpiryDays)
	stockMaintenanceUC := inventory.NewStockMaintenanceUseCase(stockRepo, reporter)
	transferUC := transfer.NewWorkflowUseCase(txRunner, transferRepo, productRepo, allocator, reporter)
	saleUC := pos.NewSaleUseCase(txRunner, productRepo, allocator, reporter)
	returnUC := pos.NewReturnUseCase(txRunner, reporter)

	tolerance, err := decimal.NewFromString(cfg.POS.CashTolerance)
	if err != nil {
		log.Fatal().Err(err).Str("valor", cfg.POS.CashTolerance).Msg("POS_CASH_TOLERANCE inválido")
	}
	reconcileUC := pos.NewReconcileUseCase(sessionRepo, tolerance)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "FarmaCore API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		RecordMovement:   recordMovementUC,
		StockQuery:       stockQueryUC,
		StockMaintenance: stockMaintenanceUC,
		TransferWorkflow: transferUC,
		Sale:             saleUC,
		Return:           returnUC,
		Reconcile:        reconcileUC,
		JWTSecret:        cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
