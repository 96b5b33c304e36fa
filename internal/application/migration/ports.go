package migration

import (
	"context"

	"github.com/tu-usuario/distriagua-api/internal/domain/repository"
)

// Schema pasos DDL idempotentes del backfill. Cada método debe poder
// ejecutarse más de una vez sin efecto adicional (IF NOT EXISTS / drop-then-
// create); la implementación los ejecuta sobre la transacción del runner.
type Schema interface {
	// EnsureBalanceTable crea customer_product_balances y su clave natural
	// única si no existen.
	EnsureBalanceTable(ctx context.Context) error
	// EnsureEmptiesColumn añade empties_collected a delivery_events si falta
	// (cambio aditivo).
	EnsureEmptiesColumn(ctx context.Context) error
	// RebuildBalanceView descarta la vista de saldos si existe y la vuelve a
	// crear, para que una definición obsoleta nunca tape cambios
	// estructurales de los pasos anteriores.
	RebuildBalanceView(ctx context.Context) error
}

// TxRunner abre la única transacción del backfill y ata schema y repos a
// ella. Si fn devuelve error se hace Rollback de todo lo ejecutado en la
// corrida; no existen commits parciales.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		schema Schema,
		productRepo repository.ProductRepository,
		customerRepo repository.CustomerRepository,
		balanceRepo repository.BalanceRepository,
	) error) error
}
