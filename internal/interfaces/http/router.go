package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/farmapos/farmacore/internal/application/inventory"
	"github.com/farmapos/farmacore/internal/application/pos"
	"github.com/farmapos/farmacore/internal/application/transfer"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	RecordMovement   *inventory.RecordMovementUseCase
	StockQuery       *inventory.StockQueryUseCase
	StockMaintenance *inventory.StockMaintenanceUseCase
	TransferWorkflow *transfer.WorkflowUseCase
	Sale             *pos.SaleUseCase
	Return           *pos.ReturnUseCase
	Reconcile        *pos.ReconcileUseCase
	JWTSecret        string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Inventario: ledger e índice de stock
	invGroup := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.RecordMovement, deps.StockQuery, deps.StockMaintenance)
	invGroup.Post("/movements", inventoryHandler.RegisterMovement)
	invGroup.Get("/movements", inventoryHandler.ListMovements)
	invGroup.Get("/stock", inventoryHandler.GetStockLevel)
	invGroup.Delete("/stock", RequireRole("admin"), inventoryHandler.DeleteStockRecord)
	invGroup.Get("/stock/list", inventoryHandler.ListStock)
	invGroup.Put("/stock/thresholds", RequireRole("admin", "bodeguero"), inventoryHandler.UpdateThresholds)
	invGroup.Get("/stock/consistency", inventoryHandler.CheckConsistency)
	invGroup.Get("/batches", inventoryHandler.ListBatches)
	invGroup.Get("/low-stock", inventoryHandler.ListLowStock)

	// Traslados
	transfers := protected.Group("/transfers")
	transferHandler := NewTransferHandler(deps.TransferWorkflow)
	transfers.Post("/", transferHandler.Create)
	transfers.Get("/", transferHandler.List)
	transfers.Get("/:id", transferHandler.GetByID)
	transfers.Delete("/:id", transferHandler.Delete)
	transfers.Post("/:id/approve", transferHandler.Approve)
	transfers.Post("/:id/reject", transferHandler.Reject)
	transfers.Post("/:id/cancel", transferHandler.Cancel)

	// Punto de venta
	posGroup := protected.Group("/pos")
	posHandler := NewPOSHandler(deps.Sale, deps.Return, deps.Reconcile)
	posGroup.Post("/sales", posHandler.RegisterSale)
	posGroup.Post("/returns", posHandler.RegisterReturn)
	posGroup.Get("/sessions/:id/reconcile", posHandler.Reconcile)
	posGroup.Get("/sessions/:id/payments", posHandler.PaymentsBreakdown)
}
