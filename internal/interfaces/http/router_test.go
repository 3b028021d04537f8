package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/sucursal-pos/internal/application/dto"
	appinv "github.com/tu-usuario/sucursal-pos/internal/application/inventory"
	apporders "github.com/tu-usuario/sucursal-pos/internal/application/orders"
	"github.com/tu-usuario/sucursal-pos/internal/application/ports"
	"github.com/tu-usuario/sucursal-pos/internal/domain/entity"
	"github.com/tu-usuario/sucursal-pos/internal/infrastructure/memory"
	apphttp "github.com/tu-usuario/sucursal-pos/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test: API completa sobre el store en memoria
// ──────────────────────────────────────────────────────────────────────────────

const (
	apiBranch  = "branch-1"
	apiProduct = "prod-1"
	apiVariety = "var-1"
)

func buildAPI(t *testing.T) (*fiber.App, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SeedBranch(&entity.Branch{ID: apiBranch, Name: "Centro", Active: true})
	store.SeedProduct(&entity.Product{ID: apiProduct, Name: "Café"})
	store.SeedVariety(&entity.Variety{
		ID:        apiVariety,
		ProductID: apiProduct,
		Name:      "Media libra",
		Price:     decimal.NewFromFloat(12.50),
	})

	runner := memory.NewTxRunner(store)
	stockUC := appinv.NewStockUseCase(runner, store.Branches(), store.Products(), ports.NoopPublisher{}, 3)
	stockQuery := appinv.NewQueryUseCase(store, store)
	orderUC := apporders.NewOrderUseCase(runner, store.Orders(), store.Branches(), store.Products(), store,
		ports.NoopPublisher{}, decimal.NewFromFloat(0.01), 3)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		StockUC:    stockUC,
		StockQuery: stockQuery,
		OrderUC:    orderUC,
		JWTSecret:  testJWTSecret,
	})
	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, path, role string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	var out dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func seedAPIStock(store *memory.Store, qty int64) {
	exp := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	store.SeedStock(&entity.BranchStockRecord{
		BranchID:  apiBranch,
		ProductID: apiProduct,
		VarietyID: apiVariety,
		Lots:      []entity.StockLot{{ExpirationDate: &exp, Quantity: qty}},
		Quantity:  qty,
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests de stock vía HTTP
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_AddStock_OwnerRecibeElRegistro(t *testing.T) {
	app, _ := buildAPI(t)

	exp := "2026-09-01"
	resp := doJSON(t, app, http.MethodPost, "/api/stock/add", "owner", dto.AddStockRequest{
		BranchID:  apiBranch,
		ProductID: apiProduct,
		VarietyID: apiVariety,
		Lots:      []dto.LotDTO{{ExpirationDate: &exp, Quantity: 5}},
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var record dto.StockRecordResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&record))
	assert.Equal(t, int64(5), record.Quantity)
	require.Len(t, record.Lots, 1)
	require.NotNil(t, record.Lots[0].ExpirationDate)
	assert.Equal(t, exp, *record.Lots[0].ExpirationDate)
}

func TestAPI_AddStock_HelperRecibe403(t *testing.T) {
	app, _ := buildAPI(t)

	resp := doJSON(t, app, http.MethodPost, "/api/stock/add", "helper", dto.AddStockRequest{
		BranchID:  apiBranch,
		ProductID: apiProduct,
		VarietyID: apiVariety,
		Lots:      []dto.LotDTO{{Quantity: 5}},
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_AddStock_AssistantDeOtraSucursalRecibe403(t *testing.T) {
	app, _ := buildAPI(t)

	// El token del assistant lleva testBranchID, no apiBranch.
	resp := doJSON(t, app, http.MethodPost, "/api/stock/add", "assistant", dto.AddStockRequest{
		BranchID:  apiBranch,
		ProductID: apiProduct,
		VarietyID: apiVariety,
		Lots:      []dto.LotDTO{{Quantity: 5}},
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeError(t, resp).Code)
}

func TestAPI_DeductStock_InsuficienteRetorna409ConFaltantes(t *testing.T) {
	app, store := buildAPI(t)
	seedAPIStock(store, 2)

	resp := doJSON(t, app, http.MethodPost, "/api/stock/deduct", "owner", dto.DeductStockRequest{
		BranchID:  apiBranch,
		ProductID: apiProduct,
		VarietyID: apiVariety,
		Quantity:  5,
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusConflict, resp.StatusCode)

	errResp := decodeError(t, resp)
	assert.Equal(t, "INSUFFICIENT_STOCK", errResp.Code)
	require.Len(t, errResp.Shortages, 1)
	assert.Equal(t, int64(5), errResp.Shortages[0].Requested)
	assert.Equal(t, int64(2), errResp.Shortages[0].Available)
}

func TestAPI_AddStock_FechaMalformadaRetorna400(t *testing.T) {
	app, _ := buildAPI(t)

	bad := "01-09-2026"
	resp := doJSON(t, app, http.MethodPost, "/api/stock/add", "owner", dto.AddStockRequest{
		BranchID:  apiBranch,
		ProductID: apiProduct,
		VarietyID: apiVariety,
		Lots:      []dto.LotDTO{{ExpirationDate: &bad, Quantity: 5}},
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)
}

func TestAPI_GetStock_RegistroNuncaTocadoRespondeVacio(t *testing.T) {
	app, _ := buildAPI(t)

	resp := doJSON(t, app, http.MethodGet, "/api/stock/"+apiBranch+"/"+apiProduct+"/"+apiVariety, "owner", nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var record dto.StockRecordResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&record))
	assert.Equal(t, int64(0), record.Quantity)
	assert.Empty(t, record.Lots)
}

func TestAPI_ListLog_RegistraLasMutaciones(t *testing.T) {
	app, _ := buildAPI(t)

	resp := doJSON(t, app, http.MethodPost, "/api/stock/add", "owner", dto.AddStockRequest{
		BranchID:  apiBranch,
		ProductID: apiProduct,
		VarietyID: apiVariety,
		Lots:      []dto.LotDTO{{Quantity: 5}},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/stock/"+apiBranch+"/log", "owner", nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []entity.InventoryLogEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, entity.ActionAddStock, entries[0].ActionType)
	assert.Equal(t, testActorID, entries[0].ActorID, "la bitácora registra el actor del token")
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests de pedidos vía HTTP
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_CreateOrder_PrecioObsoletoRetorna400ConPrecioEsperado(t *testing.T) {
	app, _ := buildAPI(t)

	resp := doJSON(t, app, http.MethodPost, "/api/orders/", "owner", dto.CreateOrderRequest{
		BranchID:     apiBranch,
		CustomerName: "Cliente",
		Items: []dto.OrderItemRequest{{
			ProductID: apiProduct,
			VarietyID: apiVariety,
			Quantity:  1,
			UnitPrice: decimal.NewFromFloat(9.99),
		}},
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	errResp := decodeError(t, resp)
	assert.Equal(t, "PRICE_MISMATCH", errResp.Code)
	assert.Equal(t, "12.5", errResp.Expected, "la respuesta trae el precio vigente")
}

func TestAPI_OrderLifecycle_CrearAprobarDevolver(t *testing.T) {
	app, store := buildAPI(t)
	seedAPIStock(store, 10)

	// Crear
	resp := doJSON(t, app, http.MethodPost, "/api/orders/", "owner", dto.CreateOrderRequest{
		BranchID:     apiBranch,
		CustomerName: "Cliente",
		Items: []dto.OrderItemRequest{{
			ProductID: apiProduct,
			VarietyID: apiVariety,
			Quantity:  4,
			UnitPrice: decimal.NewFromFloat(12.50),
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order dto.OrderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	resp.Body.Close()
	assert.Equal(t, entity.OrderStatusPending, order.Status)

	// Aprobar
	resp = doJSON(t, app, http.MethodPost, "/api/orders/"+order.ID+"/approve", "owner", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	resp.Body.Close()
	assert.Equal(t, entity.OrderStatusCompleted, order.Status)
	require.NotNil(t, order.CompletedAt)

	record, _ := store.Get(apiBranch, apiProduct, apiVariety)
	assert.Equal(t, int64(6), record.Quantity, "la aprobación dedujo el stock")

	// Devolver
	resp = doJSON(t, app, http.MethodPost, "/api/orders/"+order.ID+"/return", "owner",
		dto.ReturnOrderRequest{Reason: "producto dañado"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	resp.Body.Close()
	assert.Equal(t, entity.OrderStatusReturned, order.Status)
	assert.Equal(t, "producto dañado", order.ReturnReason)

	record, _ = store.Get(apiBranch, apiProduct, apiVariety)
	assert.Equal(t, int64(10), record.Quantity, "la devolución restituyó las cantidades")
}

func TestAPI_ApproveDosVeces_Retorna409(t *testing.T) {
	app, store := buildAPI(t)
	seedAPIStock(store, 10)

	resp := doJSON(t, app, http.MethodPost, "/api/orders/", "owner", dto.CreateOrderRequest{
		BranchID: apiBranch,
		Items: []dto.OrderItemRequest{{
			ProductID: apiProduct, VarietyID: apiVariety, Quantity: 1,
			UnitPrice: decimal.NewFromFloat(12.50),
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order dto.OrderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/orders/"+order.ID+"/approve", "owner", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/api/orders/"+order.ID+"/approve", "owner", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", decodeError(t, resp).Code)
}

func TestAPI_GetOrder_Inexistente404(t *testing.T) {
	app, _ := buildAPI(t)

	resp := doJSON(t, app, http.MethodGet, "/api/orders/no-existe", "owner", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Code)
}

func TestAPI_DeleteOrder_PendingDesaparece(t *testing.T) {
	app, _ := buildAPI(t)

	resp := doJSON(t, app, http.MethodPost, "/api/orders/", "owner", dto.CreateOrderRequest{
		BranchID: apiBranch,
		Items: []dto.OrderItemRequest{{
			ProductID: apiProduct, VarietyID: apiVariety, Quantity: 1,
			UnitPrice: decimal.NewFromFloat(12.50),
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order dto.OrderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodDelete, "/api/orders/"+order.ID, "owner", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/orders/"+order.ID, "owner", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ListActivity_TrazaElCicloDeVida(t *testing.T) {
	app, store := buildAPI(t)
	seedAPIStock(store, 10)

	resp := doJSON(t, app, http.MethodPost, "/api/orders/", "owner", dto.CreateOrderRequest{
		BranchID: apiBranch,
		Items: []dto.OrderItemRequest{{
			ProductID: apiProduct, VarietyID: apiVariety, Quantity: 1,
			UnitPrice: decimal.NewFromFloat(12.50),
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order dto.OrderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&order))
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/api/orders/"+order.ID+"/approve", "owner", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/orders/"+order.ID+"/activity", "owner", nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var entries []entity.ActivityLogEntry
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entries))
	require.Len(t, entries, 2, "crear y aprobar dejan cada uno su entrada")
	assert.Equal(t, entity.ActivityOrderApprove, entries[0].ActionType, "la más reciente va primero")
	assert.Equal(t, entity.ActivityOrderCreate, entries[1].ActionType)
}
