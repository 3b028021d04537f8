package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/sucursal-pos/internal/application/dto"
	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
	"github.com/tu-usuario/sucursal-pos/pkg/jwt"
)

// Locals keys para ActorID, BranchID y Role en Fiber.
const (
	LocalActorID  = "actor_id"
	LocalBranchID = "branch_id"
	LocalRole     = "role"
)

// AuthMiddleware valida el Bearer Token JWT y extrae ActorID, BranchID y Role a c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		actorID, branchID, role, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalActorID, actorID)
		c.Locals(LocalBranchID, branchID)
		c.Locals(LocalRole, role)
		return c.Next()
	}
}

// RequireStockMutation deja pasar solo roles cuya configuración permite mutar stock.
func RequireStockMutation() fiber.Handler {
	return requirePermission(func(cfg entity.RoleConfig) bool { return cfg.CanMutateStock })
}

// RequireOrderOps deja pasar solo roles cuya configuración permite operar pedidos.
func RequireOrderOps() fiber.Handler {
	return requirePermission(func(cfg entity.RoleConfig) bool { return cfg.CanOperateOrders })
}

func requirePermission(allow func(entity.RoleConfig) bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cfg, ok := entity.ConfigFor(entity.Role(GetRole(c)))
		if !ok || !allow(cfg) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el rol no permite esta operación"})
		}
		return c.Next()
	}
}

// BranchAllowed indica si el actor puede operar sobre la sucursal dada: los
// roles sin AllBranches quedan confinados a la sucursal de su token.
func BranchAllowed(c *fiber.Ctx, branchID string) bool {
	cfg, ok := entity.ConfigFor(entity.Role(GetRole(c)))
	if !ok {
		return false
	}
	if cfg.AllBranches {
		return true
	}
	return branchID != "" && branchID == GetBranchID(c)
}

// GetActorID devuelve el ActorID del contexto (después del middleware de auth).
func GetActorID(c *fiber.Ctx) string {
	v := c.Locals(LocalActorID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetBranchID devuelve el BranchID del contexto (después del middleware de auth).
func GetBranchID(c *fiber.Ctx) string {
	v := c.Locals(LocalBranchID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetRole devuelve el rol del contexto (después del middleware de auth).
func GetRole(c *fiber.Ctx) string {
	v := c.Locals(LocalRole)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}
