package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbalance "github.com/tu-usuario/distriagua-api/internal/application/balance"
	"github.com/tu-usuario/distriagua-api/internal/application/dto"
	"github.com/tu-usuario/distriagua-api/internal/application/report"
	"github.com/tu-usuario/distriagua-api/internal/domain/entity"
	"github.com/tu-usuario/distriagua-api/internal/domain/repository"
	apphttp "github.com/tu-usuario/distriagua-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria de los puertos de persistencia
// ──────────────────────────────────────────────────────────────────────────────

type fakeCustomerRepo struct {
	customers map[string]*entity.Customer
}

func (r *fakeCustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	return r.customers[id], nil
}

func (r *fakeCustomerRepo) List(_ context.Context, _, _ int) ([]*entity.Customer, error) {
	return r.ListAll(context.Background())
}

func (r *fakeCustomerRepo) ListAll(_ context.Context) ([]*entity.Customer, error) {
	out := make([]*entity.Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, c)
	}
	return out, nil
}

func (r *fakeCustomerRepo) ListWithLegacyBottles(_ context.Context) ([]*entity.Customer, error) {
	var out []*entity.Customer
	for _, c := range r.customers {
		if c.LegacyBottles > 0 {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCustomerRepo) Update(_ context.Context, c *entity.Customer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) Delete(_ context.Context, id string) error {
	delete(r.customers, id)
	return nil
}

type fakeProductRepo struct {
	products map[string]*entity.Product
}

func (r *fakeProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return r.products[id], nil
}

func (r *fakeProductRepo) List(_ context.Context, _, _ int) ([]*entity.Product, error) {
	return r.ListAll(context.Background())
}

func (r *fakeProductRepo) ListAll(_ context.Context) ([]*entity.Product, error) {
	out := make([]*entity.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProductRepo) GetLowestID(_ context.Context) (*entity.Product, error) {
	var lowest *entity.Product
	for _, p := range r.products {
		if lowest == nil || p.ID < lowest.ID {
			lowest = p
		}
	}
	return lowest, nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *entity.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id string) error {
	delete(r.products, id)
	return nil
}

type fakeEventRepo struct {
	events []*entity.DeliveryEvent
}

func (r *fakeEventRepo) Create(_ context.Context, e *entity.DeliveryEvent) error {
	r.events = append(r.events, e)
	return nil
}

func (r *fakeEventRepo) AggregateForPair(_ context.Context, customerID, productID string) (int, int, error) {
	delivered, collected := 0, 0
	for _, e := range r.events {
		if e.CustomerID == customerID && e.ProductID == productID {
			delivered += e.Quantity
			collected += e.EmptiesCollected
		}
	}
	return delivered, collected, nil
}

func (r *fakeEventRepo) AggregateAll(_ context.Context, customerID, productID string) ([]repository.PairFlow, error) {
	acc := map[string]*repository.PairFlow{}
	for _, e := range r.events {
		if customerID != "" && e.CustomerID != customerID {
			continue
		}
		if productID != "" && e.ProductID != productID {
			continue
		}
		key := e.CustomerID + "|" + e.ProductID
		flow, ok := acc[key]
		if !ok {
			flow = &repository.PairFlow{CustomerID: e.CustomerID, ProductID: e.ProductID}
			acc[key] = flow
		}
		flow.Delivered += e.Quantity
		flow.Collected += e.EmptiesCollected
	}
	out := make([]repository.PairFlow, 0, len(acc))
	for _, flow := range acc {
		out = append(out, *flow)
	}
	return out, nil
}

func (r *fakeEventRepo) ListByCustomer(_ context.Context, customerID string, limit, offset int) ([]*entity.DeliveryEvent, error) {
	var out []*entity.DeliveryEvent
	for _, e := range r.events {
		if e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type fakeBalanceRepo struct {
	balances map[string]*entity.CustomerProductBalance
}

func balanceKey(customerID, productID string) string {
	return customerID + "|" + productID
}

func (r *fakeBalanceRepo) Upsert(_ context.Context, b *entity.CustomerProductBalance) error {
	r.balances[balanceKey(b.CustomerID, b.ProductID)] = b
	return nil
}

func (r *fakeBalanceRepo) Get(_ context.Context, customerID, productID string) (*entity.CustomerProductBalance, error) {
	return r.balances[balanceKey(customerID, productID)], nil
}

func (r *fakeBalanceRepo) ListOpenings(_ context.Context, customerID, productID string) ([]*entity.CustomerProductBalance, error) {
	var out []*entity.CustomerProductBalance
	for _, b := range r.balances {
		if customerID != "" && b.CustomerID != customerID {
			continue
		}
		if productID != "" && b.ProductID != productID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// fakePDFGenerator devuelve bytes fijos en lugar de un PDF real.
type fakePDFGenerator struct{}

func (fakePDFGenerator) GenerateStatementPDF(_ context.Context, _ *entity.Customer, _ []dto.BalanceRow, _ time.Time) ([]byte, error) {
	return []byte("%PDF-fake"), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// App de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	custAnaID   = "11111111-1111-1111-1111-111111111111"
	custBrunoID = "22222222-2222-2222-2222-222222222222"
	prodBotID   = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
	prodGarID   = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"
)

type testEnv struct {
	app      *fiber.App
	events   *fakeEventRepo
	balances *fakeBalanceRepo
}

// buildBalanceApp monta las rutas de saldos/eventos sobre fakes en memoria,
// con un middleware que simula el usuario autenticado.
func buildBalanceApp(t *testing.T) *testEnv {
	t.Helper()

	customers := &fakeCustomerRepo{customers: map[string]*entity.Customer{
		custAnaID:   {ID: custAnaID, Name: "Ana"},
		custBrunoID: {ID: custBrunoID, Name: "Bruno"},
	}}
	products := &fakeProductRepo{products: map[string]*entity.Product{
		prodBotID: {ID: prodBotID, Name: "Botellón 20L", Returnable: true},
		prodGarID: {ID: prodGarID, Name: "Garrafa 10L", Returnable: true},
	}}
	events := &fakeEventRepo{}
	balances := &fakeBalanceRepo{balances: map[string]*entity.CustomerProductBalance{}}

	uc := appbalance.NewUseCase(customers, products, events, balances)
	statement := report.NewStatementUseCase(customers, uc, fakePDFGenerator{})
	handler := apphttp.NewBalanceHandler(uc, statement)

	app := fiber.New()
	// Simular AuthMiddleware: usuario fijo en locals.
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(apphttp.LocalUserID, testUserID)
		c.Locals(apphttp.LocalRole, "repartidor")
		return c.Next()
	})
	app.Get("/api/balances", handler.Query)
	app.Put("/api/balances/opening", handler.SetOpening)
	app.Get("/api/balances/:customerId/statement.pdf", handler.Statement)
	app.Post("/api/events", handler.RecordEvent)
	app.Get("/api/events", handler.ListEvents)

	return &testEnv{app: app, events: events, balances: balances}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeRows(t *testing.T, resp *http.Response) []dto.BalanceRow {
	t.Helper()
	defer resp.Body.Close()
	var rows []dto.BalanceRow
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rows))
	return rows
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests GET /api/balances
// ──────────────────────────────────────────────────────────────────────────────

func TestQueryBalances_SinFiltros_ProductoCruzadoOrdenado(t *testing.T) {
	env := buildBalanceApp(t)

	resp := doJSON(t, env.app, http.MethodGet, "/api/balances", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	rows := decodeRows(t, resp)
	require.Len(t, rows, 4, "2 clientes × 2 productos = 4 filas")

	// Orden determinista: nombre de cliente, luego nombre de producto.
	assert.Equal(t, "Ana", rows[0].CustomerName)
	assert.Equal(t, "Botellón 20L", rows[0].ProductName)
	assert.Equal(t, "Ana", rows[1].CustomerName)
	assert.Equal(t, "Garrafa 10L", rows[1].ProductName)
	assert.Equal(t, "Bruno", rows[2].CustomerName)
	assert.Equal(t, "Bruno", rows[3].CustomerName)

	// Sin datos: todo en cero.
	for _, row := range rows {
		assert.Zero(t, row.OpeningBottles)
		assert.Zero(t, row.TotalDelivered)
		assert.Zero(t, row.TotalEmptiesCollected)
		assert.Zero(t, row.CurrentBottleBalance)
	}
}

func TestQueryBalances_FiltroClienteDesconocido_Retorna404(t *testing.T) {
	env := buildBalanceApp(t)

	resp := doJSON(t, env.app, http.MethodGet,
		"/api/balances?customer_id=99999999-9999-9999-9999-999999999999", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "NOT_FOUND")
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests POST /api/events
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordEvent_CreaEventoYActualizaSaldo(t *testing.T) {
	env := buildBalanceApp(t)

	resp := doJSON(t, env.app, http.MethodPost, "/api/events", dto.RecordEventRequest{
		CustomerID:       custAnaID,
		ProductID:        prodBotID,
		Quantity:         5,
		EmptiesCollected: 3,
		Date:             "2026-08-30",
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created dto.RecordEventResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.EventID)

	// El evento queda con el usuario autenticado como autor.
	require.Len(t, env.events.events, 1)
	assert.Equal(t, testUserID, env.events.events[0].CreatedBy)

	// El saldo derivado refleja el evento: 0 + 5 − 3 = 2.
	query := doJSON(t, env.app, http.MethodGet,
		fmt.Sprintf("/api/balances?customer_id=%s&product_id=%s", custAnaID, prodBotID), nil)
	rows := decodeRows(t, query)
	require.Len(t, rows, 1)
	assert.Equal(t, 5, rows[0].TotalDelivered)
	assert.Equal(t, 3, rows[0].TotalEmptiesCollected)
	assert.Equal(t, 2, rows[0].CurrentBottleBalance)
}

func TestRecordEvent_CantidadNegativa_Retorna400(t *testing.T) {
	env := buildBalanceApp(t)

	resp := doJSON(t, env.app, http.MethodPost, "/api/events", dto.RecordEventRequest{
		CustomerID: custAnaID,
		ProductID:  prodBotID,
		Quantity:   -1,
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, env.events.events, "no debe persistirse ningún evento")
}

func TestRecordEvent_ClienteDesconocido_Retorna404(t *testing.T) {
	env := buildBalanceApp(t)

	resp := doJSON(t, env.app, http.MethodPost, "/api/events", dto.RecordEventRequest{
		CustomerID: "99999999-9999-9999-9999-999999999999",
		ProductID:  prodBotID,
		Quantity:   1,
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests PUT /api/balances/opening
// ──────────────────────────────────────────────────────────────────────────────

func TestSetOpening_UpsertYReflejoEnConsulta(t *testing.T) {
	env := buildBalanceApp(t)

	resp := doJSON(t, env.app, http.MethodPut, "/api/balances/opening", dto.SetOpeningBalanceRequest{
		CustomerID:     custBrunoID,
		ProductID:      prodGarID,
		OpeningBottles: 7,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Segundo upsert corrige la apertura sin duplicar fila.
	resp = doJSON(t, env.app, http.MethodPut, "/api/balances/opening", dto.SetOpeningBalanceRequest{
		CustomerID:     custBrunoID,
		ProductID:      prodGarID,
		OpeningBottles: 9,
	})
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Len(t, env.balances.balances, 1)

	query := doJSON(t, env.app, http.MethodGet,
		fmt.Sprintf("/api/balances?customer_id=%s&product_id=%s", custBrunoID, prodGarID), nil)
	rows := decodeRows(t, query)
	require.Len(t, rows, 1)
	assert.Equal(t, 9, rows[0].OpeningBottles)
	assert.Equal(t, 9, rows[0].CurrentBottleBalance)
}

func TestSetOpening_Negativa_Retorna400(t *testing.T) {
	env := buildBalanceApp(t)

	resp := doJSON(t, env.app, http.MethodPut, "/api/balances/opening", dto.SetOpeningBalanceRequest{
		CustomerID:     custAnaID,
		ProductID:      prodBotID,
		OpeningBottles: -1,
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests GET /api/events
// ──────────────────────────────────────────────────────────────────────────────

func TestListEvents_SinCustomerID_Retorna400(t *testing.T) {
	env := buildBalanceApp(t)

	resp := doJSON(t, env.app, http.MethodGet, "/api/events", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListEvents_HistorialDelCliente(t *testing.T) {
	env := buildBalanceApp(t)

	for i := 0; i < 3; i++ {
		resp := doJSON(t, env.app, http.MethodPost, "/api/events", dto.RecordEventRequest{
			CustomerID:       custAnaID,
			ProductID:        prodBotID,
			Quantity:         1,
			EmptiesCollected: 1,
		})
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := doJSON(t, env.app, http.MethodGet, "/api/events?customer_id="+custAnaID, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history []dto.DeliveryEventResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&history))
	assert.Len(t, history, 3)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests GET /api/balances/:customerId/statement.pdf
// ──────────────────────────────────────────────────────────────────────────────

func TestStatement_DevuelvePDF(t *testing.T) {
	env := buildBalanceApp(t)

	resp := doJSON(t, env.app, http.MethodGet,
		"/api/balances/"+custAnaID+"/statement.pdf", nil)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(body))
}

func TestStatement_ClienteDesconocido_Retorna404(t *testing.T) {
	env := buildBalanceApp(t)

	resp := doJSON(t, env.app, http.MethodGet,
		"/api/balances/99999999-9999-9999-9999-999999999999/statement.pdf", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
