package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/sucursal-pos/internal/application/inventory"
	"github.com/tu-usuario/sucursal-pos/internal/application/orders"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockUC    *inventory.StockUseCase
	StockQuery *inventory.QueryUseCase
	OrderUC    *orders.OrderUseCase
	JWTSecret  string
}

// Router registra las rutas de la API. Todo el núcleo es protegido: las
// mutaciones de stock exigen además un rol con permiso de inventario y las
// operaciones de pedidos un rol con permiso de pedidos.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Stock (protegido)
	stockHandler := NewStockHandler(deps.StockUC, deps.StockQuery)
	stock := protected.Group("/stock")
	stock.Get("/:branch_id", stockHandler.ListByBranch)
	stock.Get("/:branch_id/log", stockHandler.ListLog)
	stock.Get("/:branch_id/:product_id/:variety_id", stockHandler.GetRecord)

	stockMut := stock.Group("/", RequireStockMutation())
	stockMut.Post("/add", stockHandler.Add)
	stockMut.Post("/deduct", stockHandler.Deduct)
	stockMut.Post("/reject", stockHandler.Reject)
	stockMut.Post("/transfer", stockHandler.Transfer)
	stockMut.Post("/adjust", stockHandler.Adjust)

	// Pedidos (protegido)
	orderHandler := NewOrderHandler(deps.OrderUC)
	ordersGroup := protected.Group("/orders")
	ordersGroup.Get("/", orderHandler.List)
	ordersGroup.Get("/:id", orderHandler.GetByID)
	ordersGroup.Get("/:id/activity", orderHandler.ListActivity)

	orderOps := ordersGroup.Group("/", RequireOrderOps())
	orderOps.Post("/", orderHandler.Create)
	orderOps.Post("/:id/approve", orderHandler.Approve)
	orderOps.Post("/:id/void", orderHandler.Void)
	orderOps.Post("/:id/return", orderHandler.Return)
	orderOps.Delete("/:id", orderHandler.Delete)
}
