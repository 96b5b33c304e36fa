package migration_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/distriagua-api/internal/application/migration"
	"github.com/tu-usuario/distriagua-api/internal/domain/entity"
	"github.com/tu-usuario/distriagua-api/internal/domain/repository"
	"github.com/tu-usuario/distriagua-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes: un "store" con semántica transaccional (commit aplica, error descarta)
// ──────────────────────────────────────────────────────────────────────────────

type pairKey struct{ customerID, productID string }

type store struct {
	products  map[string]*entity.Product
	customers map[string]*entity.Customer
	openings  map[pairKey]int

	balanceTableCreated bool
	emptiesColumnAdded  bool
	viewRebuilds        int
}

func newStore() *store {
	return &store{
		products:  map[string]*entity.Product{},
		customers: map[string]*entity.Customer{},
		openings:  map[pairKey]int{},
	}
}

func (s *store) clone() *store {
	c := newStore()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.openings {
		c.openings[k] = v
	}
	c.balanceTableCreated = s.balanceTableCreated
	c.emptiesColumnAdded = s.emptiesColumnAdded
	c.viewRebuilds = s.viewRebuilds
	return c
}

// fakeSchema registra los pasos DDL; failOn fuerza el fallo de un paso
// concreto para probar la atomicidad.
type fakeSchema struct {
	s      *store
	failOn string
}

var errForced = errors.New("fallo forzado")

func (f *fakeSchema) EnsureBalanceTable(context.Context) error {
	if f.failOn == migration.StepEnsureStructure {
		return errForced
	}
	f.s.balanceTableCreated = true
	return nil
}

func (f *fakeSchema) EnsureEmptiesColumn(context.Context) error {
	if f.failOn == migration.StepEnsureEventSchema {
		return errForced
	}
	f.s.emptiesColumnAdded = true
	return nil
}

func (f *fakeSchema) RebuildBalanceView(context.Context) error {
	if f.failOn == migration.StepRebuildView {
		return errForced
	}
	f.s.viewRebuilds++
	return nil
}

type txProductRepo struct{ s *store }

func (r *txProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.products[p.ID] = p
	return nil
}
func (r *txProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return r.s.products[id], nil
}
func (r *txProductRepo) List(context.Context, int, int) ([]*entity.Product, error) { return nil, nil }
func (r *txProductRepo) ListAll(context.Context) ([]*entity.Product, error)        { return nil, nil }
func (r *txProductRepo) GetLowestID(context.Context) (*entity.Product, error) {
	var lowest *entity.Product
	for _, p := range r.s.products {
		if lowest == nil || p.ID < lowest.ID {
			lowest = p
		}
	}
	return lowest, nil
}
func (r *txProductRepo) Update(context.Context, *entity.Product) error { return nil }
func (r *txProductRepo) Delete(context.Context, string) error          { return nil }

type txCustomerRepo struct{ s *store }

func (r *txCustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	r.s.customers[c.ID] = c
	return nil
}
func (r *txCustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	return r.s.customers[id], nil
}
func (r *txCustomerRepo) List(context.Context, int, int) ([]*entity.Customer, error) { return nil, nil }
func (r *txCustomerRepo) ListAll(context.Context) ([]*entity.Customer, error)        { return nil, nil }
func (r *txCustomerRepo) ListWithLegacyBottles(context.Context) ([]*entity.Customer, error) {
	var out []*entity.Customer
	for _, c := range r.s.customers {
		if c.LegacyBottles > 0 {
			out = append(out, c)
		}
	}
	return out, nil
}
func (r *txCustomerRepo) Update(context.Context, *entity.Customer) error { return nil }
func (r *txCustomerRepo) Delete(context.Context, string) error           { return nil }

type txBalanceRepo struct{ s *store }

func (r *txBalanceRepo) Upsert(_ context.Context, b *entity.CustomerProductBalance) error {
	r.s.openings[pairKey{b.CustomerID, b.ProductID}] = b.OpeningBottles
	return nil
}
func (r *txBalanceRepo) Get(_ context.Context, customerID, productID string) (*entity.CustomerProductBalance, error) {
	v, ok := r.s.openings[pairKey{customerID, productID}]
	if !ok {
		return nil, nil
	}
	return &entity.CustomerProductBalance{CustomerID: customerID, ProductID: productID, OpeningBottles: v}, nil
}
func (r *txBalanceRepo) ListOpenings(context.Context, string, string) ([]*entity.CustomerProductBalance, error) {
	return nil, nil
}

// fakeTxRunner ejecuta fn sobre una copia del store: con éxito la copia
// reemplaza al original (commit), con error se descarta (rollback).
type fakeTxRunner struct {
	s      *store
	failOn string
}

func (r *fakeTxRunner) Run(_ context.Context, fn func(
	schema migration.Schema,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	balanceRepo repository.BalanceRepository,
) error) error {
	tx := r.s.clone()
	err := fn(&fakeSchema{s: tx, failOn: r.failOn}, &txProductRepo{tx}, &txCustomerRepo{tx}, &txBalanceRepo{tx})
	if err != nil {
		return err
	}
	*r.s = *tx
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestBackfill_AsignaSaldosLegadosAlProductoDeMenorID(t *testing.T) {
	s := newStore()
	s.products["p2"] = &entity.Product{ID: "p2", Name: "Botellón 10L"}
	s.products["p1"] = &entity.Product{ID: "p1", Name: "Botellón 20L"}
	s.customers["c7"] = &entity.Customer{ID: "c7", Name: "Cliente Legado", LegacyBottles: 12}
	s.customers["c8"] = &entity.Customer{ID: "c8", Name: "Cliente Sin Saldo", LegacyBottles: 0}

	uc := migration.NewBackfillUseCase(&fakeTxRunner{s: s}, testLogger())
	report, err := uc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "p1", report.DefaultProductID, "producto por defecto = menor id")
	assert.Equal(t, 1, report.CustomersBackfilled, "solo clientes con saldo legado > 0")
	assert.Equal(t, []string{
		migration.StepEnsureStructure,
		migration.StepEnsureEventSchema,
		migration.StepDefaultProduct,
		migration.StepBackfill,
		migration.StepRebuildView,
	}, report.StepsRun)

	require.Len(t, s.openings, 1)
	assert.Equal(t, 12, s.openings[pairKey{"c7", "p1"}])
	assert.True(t, s.balanceTableCreated)
	assert.True(t, s.emptiesColumnAdded)
	assert.Equal(t, 1, s.viewRebuilds)
}

// Correr la migración dos veces sin cambios legados no duplica filas ni
// altera valores.
func TestBackfill_Idempotente(t *testing.T) {
	s := newStore()
	s.products["p1"] = &entity.Product{ID: "p1", Name: "Botellón 20L"}
	s.customers["c7"] = &entity.Customer{ID: "c7", Name: "Cliente", LegacyBottles: 12}

	uc := migration.NewBackfillUseCase(&fakeTxRunner{s: s}, testLogger())

	_, err := uc.Run(context.Background())
	require.NoError(t, err)
	first := map[pairKey]int{}
	for k, v := range s.openings {
		first[k] = v
	}

	_, err = uc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, s.openings, "segunda corrida: contenido idéntico, sin doble aplicación")
	assert.Len(t, s.openings, 1)
}

// Si el valor legado cambió entre corridas, el upsert lo sobreescribe.
func TestBackfill_ValorLegadoCambiadoSobreescribe(t *testing.T) {
	s := newStore()
	s.products["p1"] = &entity.Product{ID: "p1", Name: "Botellón 20L"}
	s.customers["c7"] = &entity.Customer{ID: "c7", Name: "Cliente", LegacyBottles: 12}

	uc := migration.NewBackfillUseCase(&fakeTxRunner{s: s}, testLogger())
	_, err := uc.Run(context.Background())
	require.NoError(t, err)

	s.customers["c7"].LegacyBottles = 20
	_, err = uc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, s.openings, 1)
	assert.Equal(t, 20, s.openings[pairKey{"c7", "p1"}])
}

func TestBackfill_SinProductosFalla(t *testing.T) {
	s := newStore()
	s.customers["c7"] = &entity.Customer{ID: "c7", Name: "Cliente", LegacyBottles: 12}

	uc := migration.NewBackfillUseCase(&fakeTxRunner{s: s}, testLogger())
	report, err := uc.Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, report)

	var migErr *migration.Error
	require.ErrorAs(t, err, &migErr)
	assert.Equal(t, migration.StepDefaultProduct, migErr.Step)
	assert.ErrorIs(t, err, migration.ErrNoProducts)

	assert.Empty(t, s.openings, "nada confirmado tras el rollback")
	assert.False(t, s.balanceTableCreated, "ni siquiera los pasos estructurales previos sobreviven")
}

// Atomicidad: si el último paso (rebuild de la vista) falla, el backfill del
// paso 4 de esa corrida no queda confirmado.
func TestBackfill_FalloEnVistaRevierteBackfill(t *testing.T) {
	s := newStore()
	s.products["p1"] = &entity.Product{ID: "p1", Name: "Botellón 20L"}
	s.customers["c7"] = &entity.Customer{ID: "c7", Name: "Cliente", LegacyBottles: 12}

	uc := migration.NewBackfillUseCase(&fakeTxRunner{s: s, failOn: migration.StepRebuildView}, testLogger())
	_, err := uc.Run(context.Background())
	require.Error(t, err)

	var migErr *migration.Error
	require.ErrorAs(t, err, &migErr)
	assert.Equal(t, migration.StepRebuildView, migErr.Step)

	assert.Empty(t, s.openings, "las filas del paso 4 no deben quedar confirmadas")
	assert.False(t, s.balanceTableCreated)
	assert.Zero(t, s.viewRebuilds)
}

func TestBackfill_ErrorIncluyePasoYCausa(t *testing.T) {
	s := newStore()
	uc := migration.NewBackfillUseCase(&fakeTxRunner{s: s, failOn: migration.StepEnsureStructure}, testLogger())

	_, err := uc.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), migration.StepEnsureStructure)
	assert.ErrorIs(t, err, errForced, "la causa subyacente debe poder desenvolverse")
}
