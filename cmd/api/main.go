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
	"github.com/tu-usuario/sucursal-pos/internal/application/inventory"
	"github.com/tu-usuario/sucursal-pos/internal/application/orders"
	"github.com/tu-usuario/sucursal-pos/internal/application/ports"
	"github.com/tu-usuario/sucursal-pos/internal/domain/pricing"
	"github.com/tu-usuario/sucursal-pos/internal/domain/repository"
	"github.com/tu-usuario/sucursal-pos/internal/infrastructure/events"
	"github.com/tu-usuario/sucursal-pos/internal/infrastructure/memory"
	"github.com/tu-usuario/sucursal-pos/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/sucursal-pos/internal/interfaces/http"
	"github.com/tu-usuario/sucursal-pos/pkg/config"
	"github.com/tu-usuario/sucursal-pos/pkg/logger"
)

// swaggerSpecPath especificación OpenAPI estática servida por el middleware de docs.
const swaggerSpecPath = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Stock.StoreDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	epsilon, err := decimal.NewFromString(cfg.Stock.PriceEpsilon)
	if err != nil {
		log.Warn().Str("price_epsilon", cfg.Stock.PriceEpsilon).Msg("epsilon inválido, usando el default")
		epsilon = pricing.DefaultEpsilon
	}

	// Publicador de snapshots: Redis si está habilitado, noop en caso contrario.
	var publisher ports.Publisher = ports.NoopPublisher{}
	if cfg.Redis.Enabled {
		redisPub := events.NewRedisPublisher(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisPub.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisPub.Close()
		publisher = redisPub
	}

	// Driver de almacenamiento: PostgreSQL en producción, memoria en dev/tests.
	var (
		stockRepo   repository.StockRepository
		orderRepo   repository.OrderRepository
		branchRepo  repository.BranchRepository
		productRepo repository.ProductRepository
		auditRepo   repository.AuditRepository
		invRunner   inventory.TxRunner
		orderRunner orders.TxRunner
	)
	switch cfg.Stock.StoreDriver {
	case "memory":
		store := memory.NewStore()
		runner := memory.NewTxRunner(store)
		stockRepo = store
		orderRepo = store.Orders()
		branchRepo = store.Branches()
		productRepo = store.Products()
		auditRepo = store
		invRunner = runner
		orderRunner = runner
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		runner := postgres.NewTxRunner(pool)
		stockRepo = postgres.NewStockRepository(pool)
		orderRepo = postgres.NewOrderRepository(pool)
		branchRepo = postgres.NewBranchRepository(pool)
		productRepo = postgres.NewProductRepository(pool)
		auditRepo = postgres.NewAuditRepository(pool)
		invRunner = runner
		orderRunner = runner
	}

	stockUC := inventory.NewStockUseCase(invRunner, branchRepo, productRepo, publisher, cfg.Stock.MaxTxRetries)
	stockQuery := inventory.NewQueryUseCase(stockRepo, auditRepo)
	orderUC := orders.NewOrderUseCase(orderRunner, orderRepo, branchRepo, productRepo, auditRepo, publisher, epsilon, cfg.Stock.MaxTxRetries)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs. El middleware entra en
	// pánico si el archivo no existe; en despliegues sin docs solo se omite.
	if _, err := os.Stat(swaggerSpecPath); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerSpecPath,
			Path:     "docs",
			Title:    "Sucursal POS API",
		}))
	} else {
		log.Warn().Str("path", swaggerSpecPath).Msg("swagger.json no encontrado, UI de docs deshabilitada")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockUC:    stockUC,
		StockQuery: stockQuery,
		OrderUC:    orderUC,
		JWTSecret:  cfg.JWT.Secret,
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
