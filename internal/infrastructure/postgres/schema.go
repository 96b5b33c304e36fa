package postgres

import (
	"context"
	"fmt"

	"github.com/tu-usuario/distriagua-api/internal/application/migration"
)

var _ migration.Schema = (*MigrationSchema)(nil)

// MigrationSchema ejecuta los pasos DDL del backfill sobre un Querier
// (la transacción del runner). Cada sentencia es idempotente por sí misma.
type MigrationSchema struct {
	q Querier
}

// NewMigrationSchema construye el adaptador DDL. Pasar la tx del runner.
func NewMigrationSchema(q Querier) *MigrationSchema {
	return &MigrationSchema{q: q}
}

// EnsureBalanceTable crea la tabla de aperturas por (cliente, producto).
// La clave primaria compuesta es el constraint que hace seguro el upsert:
// a lo sumo una fila por par, también bajo escritores concurrentes.
func (s *MigrationSchema) EnsureBalanceTable(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS customer_product_balances (
			customer_id     UUID NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
			product_id      UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			opening_bottles INT  NOT NULL CHECK (opening_bottles >= 0),
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (customer_id, product_id)
		)`
	if _, err := s.q.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create customer_product_balances: %w", err)
	}
	return nil
}

// EnsureEmptiesColumn añade la columna de envases recogidos a los eventos de
// entrega si aún no existe (cambio aditivo, default 0 para filas históricas).
func (s *MigrationSchema) EnsureEmptiesColumn(ctx context.Context) error {
	const ddl = `
		ALTER TABLE delivery_events
		ADD COLUMN IF NOT EXISTS empties_collected INT NOT NULL DEFAULT 0 CHECK (empties_collected >= 0)`
	if _, err := s.q.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("add empties_collected column: %w", err)
	}
	return nil
}

// RebuildBalanceView descarta y vuelve a crear la vista SQL de saldos.
// La vista replica la derivación del dominio (apertura + entregas - recogidas
// sobre el producto cruzado) para consumidores SQL directos; la API no la
// lee, calcula en memoria sobre los dos agregados dispersos.
func (s *MigrationSchema) RebuildBalanceView(ctx context.Context) error {
	if _, err := s.q.Exec(ctx, `DROP VIEW IF EXISTS customer_product_balance_view`); err != nil {
		return fmt.Errorf("drop balance view: %w", err)
	}
	const ddl = `
		CREATE VIEW customer_product_balance_view AS
		SELECT
		    c.id                              AS customer_id,
		    c.name                            AS customer_name,
		    p.id                              AS product_id,
		    p.name                            AS product_name,
		    COALESCE(b.opening_bottles, 0)    AS opening_bottles,
		    COALESCE(e.delivered, 0)          AS total_delivered,
		    COALESCE(e.collected, 0)          AS total_empties_collected,
		    COALESCE(b.opening_bottles, 0)
		      + COALESCE(e.delivered, 0)
		      - COALESCE(e.collected, 0)      AS current_bottles
		FROM customers c
		CROSS JOIN products p
		LEFT JOIN customer_product_balances b
		       ON b.customer_id = c.id AND b.product_id = p.id
		LEFT JOIN (
		    SELECT customer_id, product_id,
		           SUM(quantity)          AS delivered,
		           SUM(empties_collected) AS collected
		    FROM delivery_events
		    GROUP BY customer_id, product_id
		) e ON e.customer_id = c.id AND e.product_id = p.id`
	if _, err := s.q.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create balance view: %w", err)
	}
	return nil
}
