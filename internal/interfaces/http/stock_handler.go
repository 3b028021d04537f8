package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/sucursal-pos/internal/application/dto"
	"github.com/tu-usuario/sucursal-pos/internal/application/inventory"
)

// StockHandler maneja las peticiones HTTP del libro de stock (protegido).
type StockHandler struct {
	uc    *inventory.StockUseCase
	query *inventory.QueryUseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockUseCase, query *inventory.QueryUseCase) *StockHandler {
	return &StockHandler{uc: uc, query: query}
}

// Add godoc
// @Summary      Agregar lotes de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddStockRequest  true  "branch_id, product_id, variety_id, lots"
// @Success      200   {object}  dto.StockRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/add [post]
func (h *StockHandler) Add(c *fiber.Ctx) error {
	var in dto.AddStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if !BranchAllowed(c, in.BranchID) {
		return forbiddenBranch(c)
	}
	lots, err := dto.LotsToEntity(in.Lots)
	if err != nil {
		return writeError(c, err)
	}
	record, err := h.uc.AddStock(c.Context(), GetActorID(c), in.BranchID, in.ProductID, in.VarietyID, lots)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockRecordFromEntity(record))
}

// Deduct godoc
// @Summary      Descontar stock (consumo FEFO)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DeductStockRequest  true  "branch_id, product_id, variety_id, quantity"
// @Success      200   {object}  dto.StockRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/deduct [post]
func (h *StockHandler) Deduct(c *fiber.Ctx) error {
	var in dto.DeductStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if !BranchAllowed(c, in.BranchID) {
		return forbiddenBranch(c)
	}
	record, err := h.uc.DeductStock(c.Context(), GetActorID(c), in.BranchID, in.ProductID, in.VarietyID, in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockRecordFromEntity(record))
}

// Reject godoc
// @Summary      Rechazar lotes (mercancía dañada o vencida)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RejectStockRequest  true  "branch_id, product_id, variety_id, lots exactos a remover"
// @Success      200   {object}  dto.StockRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/reject [post]
func (h *StockHandler) Reject(c *fiber.Ctx) error {
	var in dto.RejectStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if !BranchAllowed(c, in.BranchID) {
		return forbiddenBranch(c)
	}
	lots, err := dto.LotsToEntity(in.Lots)
	if err != nil {
		return writeError(c, err)
	}
	record, err := h.uc.RejectStock(c.Context(), GetActorID(c), in.BranchID, in.ProductID, in.VarietyID, lots)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockRecordFromEntity(record))
}

// Transfer godoc
// @Summary      Trasladar lotes entre sucursales
// @Description  Mueve los lotes nombrados de la sucursal origen a la destino
//
//	en una sola transacción: o ambos registros cambian o ninguno.
//
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferStockRequest  true  "source_branch_id, dest_branch_id, product_id, variety_id, lots"
// @Success      200   {object}  map[string]dto.StockRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/transfer [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if !BranchAllowed(c, in.SourceBranchID) || !BranchAllowed(c, in.DestBranchID) {
		return forbiddenBranch(c)
	}
	lots, err := dto.LotsToEntity(in.Lots)
	if err != nil {
		return writeError(c, err)
	}
	source, dest, err := h.uc.TransferStock(c.Context(), GetActorID(c), in.SourceBranchID, in.DestBranchID, in.ProductID, in.VarietyID, lots)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"source": dto.StockRecordFromEntity(source),
		"dest":   dto.StockRecordFromEntity(dest),
	})
}

// Adjust godoc
// @Summary      Ajustar stock tras conteo físico
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "branch_id, product_id, variety_id, delta, lots opcional"
// @Success      200   {object}  dto.StockRecordResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if !BranchAllowed(c, in.BranchID) {
		return forbiddenBranch(c)
	}
	lots, err := dto.LotsToEntity(in.Lots)
	if err != nil {
		return writeError(c, err)
	}
	record, err := h.uc.AdjustStock(c.Context(), GetActorID(c), in.BranchID, in.ProductID, in.VarietyID, in.Delta, lots)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockRecordFromEntity(record))
}

// GetRecord godoc
// @Summary      Consultar un registro de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        branch_id   path  string  true  "Sucursal"
// @Param        product_id  path  string  true  "Producto"
// @Param        variety_id  path  string  true  "Variedad"
// @Success      200  {object}  dto.StockRecordResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stock/{branch_id}/{product_id}/{variety_id} [get]
func (h *StockHandler) GetRecord(c *fiber.Ctx) error {
	branchID := c.Params("branch_id")
	if !BranchAllowed(c, branchID) {
		return forbiddenBranch(c)
	}
	record, err := h.query.GetRecord(c.Context(), branchID, c.Params("product_id"), c.Params("variety_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.StockRecordFromEntity(record))
}

// ListByBranch godoc
// @Summary      Listar el stock de una sucursal
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        branch_id  path  string  true  "Sucursal"
// @Success      200  {array}  dto.StockRecordResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stock/{branch_id} [get]
func (h *StockHandler) ListByBranch(c *fiber.Ctx) error {
	branchID := c.Params("branch_id")
	if !BranchAllowed(c, branchID) {
		return forbiddenBranch(c)
	}
	records, err := h.query.ListByBranch(c.Context(), branchID)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StockRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.StockRecordFromEntity(r))
	}
	return c.JSON(out)
}

// ListLog godoc
// @Summary      Bitácora de inventario de una sucursal
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        branch_id  path   string  true   "Sucursal"
// @Param        limit      query  int     false  "Máximo de entradas (default 20)"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {array}  entity.InventoryLogEntry
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stock/{branch_id}/log [get]
func (h *StockHandler) ListLog(c *fiber.Ctx) error {
	branchID := c.Params("branch_id")
	if !BranchAllowed(c, branchID) {
		return forbiddenBranch(c)
	}
	var pg dto.PageRequest
	if err := c.QueryParser(&pg); err != nil {
		return invalidBody(c)
	}
	pg.DefaultPage()
	entries, err := h.query.ListLog(c.Context(), branchID, pg.Limit, pg.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(entries)
}
