package entity

// Role enumeración cerrada de roles de actor. El comportamiento por rol se
// describe con un registro de configuración en vez de jerarquías de tipos:
// un único punto de despacho decide según el tag.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleAssistant Role = "assistant"
	RoleHelper    Role = "helper"
	RoleClient    Role = "client"
)

// RoleConfig configuración por rol: alcance de sucursal por defecto y permisos
// sobre el núcleo (mutar stock, operar pedidos).
type RoleConfig struct {
	AllBranches      bool // true: sin restricción de sucursal
	CanMutateStock   bool
	CanOperateOrders bool
}

// roleConfigs variante etiquetada cerrada; un rol desconocido no tiene permisos.
var roleConfigs = map[Role]RoleConfig{
	RoleOwner:     {AllBranches: true, CanMutateStock: true, CanOperateOrders: true},
	RoleAssistant: {AllBranches: false, CanMutateStock: true, CanOperateOrders: true},
	RoleHelper:    {AllBranches: false, CanMutateStock: false, CanOperateOrders: true},
	RoleClient:    {AllBranches: false, CanMutateStock: false, CanOperateOrders: false},
}

// ConfigFor devuelve la configuración del rol y si el rol es conocido.
func ConfigFor(r Role) (RoleConfig, bool) {
	cfg, ok := roleConfigs[r]
	return cfg, ok
}
