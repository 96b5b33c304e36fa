package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tu-usuario/distriagua-api/internal/application/migration"
	"github.com/tu-usuario/distriagua-api/internal/domain/repository"
)

var _ migration.TxRunner = (*MigrationTxRunner)(nil)

// MigrationTxRunner abre la transacción única del backfill y ata el adaptador
// DDL y los repositorios a ella. Rollback diferido: si fn falla, ningún paso
// de la corrida queda confirmado (tampoco los DDL, que en PostgreSQL son
// transaccionales).
type MigrationTxRunner struct {
	pool *pgxpool.Pool
}

// NewMigrationTxRunner construye el runner con el pool.
func NewMigrationTxRunner(pool *pgxpool.Pool) *MigrationTxRunner {
	return &MigrationTxRunner{pool: pool}
}

// Run inicia la transacción, ejecuta fn con schema y repos atados a la tx y
// hace Commit o Rollback.
func (r *MigrationTxRunner) Run(ctx context.Context, fn func(
	schema migration.Schema,
	productRepo repository.ProductRepository,
	customerRepo repository.CustomerRepository,
	balanceRepo repository.BalanceRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	schema := NewMigrationSchema(tx)
	productRepo := NewProductRepository(tx)
	customerRepo := NewCustomerRepository(tx)
	balanceRepo := NewBalanceRepository(tx)

	if err := fn(schema, productRepo, customerRepo, balanceRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
