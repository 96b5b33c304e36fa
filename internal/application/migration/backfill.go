// Package migration implementa la migración única del esquema legado de
// saldos (un valor por cliente) al esquema por (cliente, producto).
//
// La corrida es idempotente por estructura, no por banderas: la tabla se crea
// con IF NOT EXISTS, el backfill es un upsert por clave natural y la vista se
// reconstruye desde cero. Repetirla sin cambios en el campo legado deja el
// contenido de customer_product_balances idéntico byte a byte.
package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tu-usuario/distriagua-api/internal/domain/entity"
	"github.com/tu-usuario/distriagua-api/internal/domain/repository"
	"github.com/tu-usuario/distriagua-api/pkg/logger"
)

// Pasos de la migración, en orden de ejecución.
const (
	StepEnsureStructure   = "ensure_structure"
	StepEnsureEventSchema = "ensure_event_schema"
	StepDefaultProduct    = "choose_default_product"
	StepBackfill          = "backfill"
	StepRebuildView       = "rebuild_view"
)

// ErrNoProducts precondición dura del paso 3: sin productos no hay dónde
// asignar los saldos legados. No es recuperable automáticamente.
var ErrNoProducts = errors.New("no existen productos para asignar los saldos legados")

// Error señala el paso que falló dentro de la corrida. Siempre es fatal:
// la transacción completa se revierte y el operador corrige y reintenta.
type Error struct {
	Step string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("migración de saldos (paso %s): %v", e.Step, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Report resumen estructurado de una corrida exitosa.
type Report struct {
	StepsRun            []string  `json:"steps_run"`
	DefaultProductID    string    `json:"default_product_id"`
	DefaultProductName  string    `json:"default_product_name"`
	CustomersBackfilled int       `json:"customers_backfilled"`
	StartedAt           time.Time `json:"started_at"`
	FinishedAt          time.Time `json:"finished_at"`
}

// BackfillUseCase ejecuta la migración dentro de una sola transacción.
type BackfillUseCase struct {
	txRunner TxRunner
	log      *logger.Logger
}

// NewBackfillUseCase construye el caso de uso.
func NewBackfillUseCase(txRunner TxRunner, log *logger.Logger) *BackfillUseCase {
	return &BackfillUseCase{txRunner: txRunner, log: log}
}

// Run ejecuta los cinco pasos en orden dentro de una transacción. Cualquier
// fallo revierte todos los pasos de la corrida y sale envuelto en *Error con
// el nombre del paso.
func (uc *BackfillUseCase) Run(ctx context.Context) (*Report, error) {
	report := &Report{StartedAt: time.Now()}

	err := uc.txRunner.Run(ctx, func(
		schema Schema,
		productRepo repository.ProductRepository,
		customerRepo repository.CustomerRepository,
		balanceRepo repository.BalanceRepository,
	) error {
		// Paso 1: estructura de la tabla por par (idempotente por IF NOT EXISTS).
		if err := schema.EnsureBalanceTable(ctx); err != nil {
			return &Error{Step: StepEnsureStructure, Err: err}
		}
		report.StepsRun = append(report.StepsRun, StepEnsureStructure)

		// Paso 2: columna de recogidas en eventos (aditivo, idempotente).
		if err := schema.EnsureEmptiesColumn(ctx); err != nil {
			return &Error{Step: StepEnsureEventSchema, Err: err}
		}
		report.StepsRun = append(report.StepsRun, StepEnsureEventSchema)

		// Paso 3: producto por defecto = menor id. Desempate fijo; los saldos
		// legados no saben a qué producto pertenecían realmente.
		defaultProduct, err := productRepo.GetLowestID(ctx)
		if err != nil {
			return &Error{Step: StepDefaultProduct, Err: err}
		}
		if defaultProduct == nil {
			return &Error{Step: StepDefaultProduct, Err: ErrNoProducts}
		}
		report.DefaultProductID = defaultProduct.ID
		report.DefaultProductName = defaultProduct.Name
		report.StepsRun = append(report.StepsRun, StepDefaultProduct)

		// Paso 4: upsert por clave natural para cada cliente con saldo legado.
		// Repetir la corrida con el mismo valor legado deja la fila igual;
		// un valor legado cambiado la sobreescribe.
		customers, err := customerRepo.ListWithLegacyBottles(ctx)
		if err != nil {
			return &Error{Step: StepBackfill, Err: err}
		}
		for _, c := range customers {
			row := &entity.CustomerProductBalance{
				CustomerID:     c.ID,
				ProductID:      defaultProduct.ID,
				OpeningBottles: c.LegacyBottles,
			}
			if err := balanceRepo.Upsert(ctx, row); err != nil {
				return &Error{Step: StepBackfill, Err: fmt.Errorf("cliente %s: %w", c.ID, err)}
			}
		}
		report.CustomersBackfilled = len(customers)
		report.StepsRun = append(report.StepsRun, StepBackfill)

		// Paso 5: vista de saldos desde cero (drop-if-exists + create).
		if err := schema.RebuildBalanceView(ctx); err != nil {
			return &Error{Step: StepRebuildView, Err: err}
		}
		report.StepsRun = append(report.StepsRun, StepRebuildView)
		return nil
	})
	if err != nil {
		var migErr *Error
		if errors.As(err, &migErr) {
			uc.log.Error().Err(migErr.Err).Str("step", migErr.Step).Msg("migración revertida")
			return nil, err
		}
		return nil, &Error{Step: "transaction", Err: err}
	}

	report.FinishedAt = time.Now()
	uc.log.Info().
		Str("default_product", report.DefaultProductID).
		Int("customers_backfilled", report.CustomersBackfilled).
		Msg("migración de saldos completada")
	return report, nil
}
