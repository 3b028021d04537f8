package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/sucursal-pos/internal/application/dto"
	"github.com/tu-usuario/sucursal-pos/internal/domain"
)

// writeError traduce los errores del dominio a respuestas HTTP. Los errores
// tipados llevan su carga: INSUFFICIENT_STOCK la lista completa de faltantes,
// PRICE_MISMATCH el precio vigente esperado.
func writeError(c *fiber.Ctx, err error) error {
	var shortErr *domain.InsufficientStockError
	if errors.As(err, &shortErr) {
		resp := dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"}
		for _, it := range shortErr.Items {
			resp.Shortages = append(resp.Shortages, dto.ShortItemDTO{
				ProductID: it.ProductID,
				VarietyID: it.VarietyID,
				Requested: it.Requested,
				Available: it.Available,
			})
		}
		return c.Status(fiber.StatusConflict).JSON(resp)
	}

	var priceErr *domain.PriceMismatchError
	if errors.As(err, &priceErr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:     "PRICE_MISMATCH",
			Message:  "el precio enviado no coincide con el vigente",
			Expected: priceErr.Expected.String(),
		})
	}

	var transErr *domain.InvalidTransitionError
	if errors.As(err, &transErr) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INVALID_TRANSITION",
			Message: transErr.Error(),
		})
	}

	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONCURRENCY_CONFLICT", Message: "conflicto de concurrencia, reintentar"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func forbiddenBranch(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado a la sucursal"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
