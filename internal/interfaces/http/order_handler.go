package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/sucursal-pos/internal/application/dto"
	"github.com/tu-usuario/sucursal-pos/internal/application/orders"
)

// OrderHandler maneja las peticiones HTTP del ciclo de vida de pedidos (protegido).
type OrderHandler struct {
	uc *orders.OrderUseCase
}

// NewOrderHandler construye el handler.
func NewOrderHandler(uc *orders.OrderUseCase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// Create godoc
// @Summary      Crear un pedido en PENDING
// @Description  Valida cada precio unitario contra el precio vigente del
//
//	catálogo. No toca stock: la deducción ocurre en la aprobación.
//
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "branch_id, customer_name, items"
// @Success      201   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/orders [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if !BranchAllowed(c, in.BranchID) {
		return forbiddenBranch(c)
	}
	input := orders.CreateInput{BranchID: in.BranchID, CustomerName: in.CustomerName}
	for _, it := range in.Items {
		input.Items = append(input.Items, orders.ItemInput{
			ProductID: it.ProductID,
			VarietyID: it.VarietyID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		})
	}
	order, err := h.uc.Create(c.Context(), GetActorID(c), input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.OrderFromEntity(order))
}

// Approve godoc
// @Summary      Aprobar un pedido (PENDING -> COMPLETED)
// @Description  Valida el stock de todos los ítems y aplica la deducción FEFO
//
//	en una sola transacción. Si algún ítem falta, responde 409 con
//	la lista exhaustiva de faltantes y ningún registro cambia.
//
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/approve [post]
func (h *OrderHandler) Approve(c *fiber.Ctx) error {
	if ok, err := h.checkOrderBranch(c); !ok {
		return err
	}
	order, err := h.uc.Approve(c.Context(), GetActorID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OrderFromEntity(order))
}

// checkOrderBranch carga el pedido y verifica que el actor pueda operar su
// sucursal antes de ejecutar la transición. Si ok es false la respuesta ya
// quedó escrita.
func (h *OrderHandler) checkOrderBranch(c *fiber.Ctx) (bool, error) {
	order, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return false, writeError(c, err)
	}
	if !BranchAllowed(c, order.BranchID) {
		return false, forbiddenBranch(c)
	}
	return true, nil
}

// Void godoc
// @Summary      Anular un pedido (PENDING -> VOIDED)
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/void [post]
func (h *OrderHandler) Void(c *fiber.Ctx) error {
	if ok, err := h.checkOrderBranch(c); !ok {
		return err
	}
	order, err := h.uc.Void(c.Context(), GetActorID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OrderFromEntity(order))
}

// Return godoc
// @Summary      Devolver un pedido (COMPLETED -> RETURNED)
// @Description  Restituye las cantidades al libro de la sucursal como lote de
//
//	devolución sin vencimiento. El motivo es obligatorio.
//
// @Tags         orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del pedido"
// @Param        body  body  dto.ReturnOrderRequest  true  "reason"
// @Success      200   {object}  dto.OrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/return [post]
func (h *OrderHandler) Return(c *fiber.Ctx) error {
	if ok, err := h.checkOrderBranch(c); !ok {
		return err
	}
	var in dto.ReturnOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	order, err := h.uc.Return(c.Context(), GetActorID(c), c.Params("id"), in.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.OrderFromEntity(order))
}

// Delete godoc
// @Summary      Eliminar un pedido PENDING
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del pedido"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [delete]
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	if ok, err := h.checkOrderBranch(c); !ok {
		return err
	}
	if err := h.uc.Delete(c.Context(), GetActorID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "pedido eliminado"})
}

// GetByID godoc
// @Summary      Consultar un pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del pedido"
// @Success      200  {object}  dto.OrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetByID(c *fiber.Ctx) error {
	order, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	if !BranchAllowed(c, order.BranchID) {
		return forbiddenBranch(c)
	}
	return c.JSON(dto.OrderFromEntity(order))
}

// List godoc
// @Summary      Listar pedidos
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Filtrar por sucursal"
// @Param        status     query  string  false  "Filtrar por estado"
// @Param        limit      query  int     false  "Máximo de pedidos (default 20)"
// @Param        offset     query  int     false  "Desplazamiento"
// @Success      200  {array}  dto.OrderResponse
// @Router       /api/orders [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	branchID := c.Query("branch_id")
	if branchID == "" {
		branchID = GetBranchID(c)
	}
	if !BranchAllowed(c, branchID) {
		return forbiddenBranch(c)
	}
	var pg dto.PageRequest
	if err := c.QueryParser(&pg); err != nil {
		return invalidBody(c)
	}
	pg.DefaultPage()
	list, err := h.uc.List(c.Context(), branchID, c.Query("status"), pg.Limit, pg.Offset)
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, dto.OrderFromEntity(o))
	}
	return c.JSON(out)
}

// ListActivity godoc
// @Summary      Bitácora de actividad de un pedido
// @Tags         orders
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del pedido"
// @Param        limit   query  int     false  "Máximo de entradas (default 20)"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {array}  entity.ActivityLogEntry
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/activity [get]
func (h *OrderHandler) ListActivity(c *fiber.Ctx) error {
	var pg dto.PageRequest
	if err := c.QueryParser(&pg); err != nil {
		return invalidBody(c)
	}
	pg.DefaultPage()
	entries, err := h.uc.ListActivity(c.Context(), c.Params("id"), pg.Limit, pg.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(entries)
}
