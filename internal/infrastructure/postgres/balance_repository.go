package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tu-usuario/distriagua-api/internal/domain"
	"github.com/tu-usuario/distriagua-api/internal/domain/entity"
	"github.com/tu-usuario/distriagua-api/internal/domain/repository"
)

var _ repository.BalanceRepository = (*BalanceRepo)(nil)

// BalanceRepo implementación de BalanceRepository sobre PostgreSQL
// (usable con pool o tx).
type BalanceRepo struct {
	q Querier
}

// NewBalanceRepository construye el adaptador de aperturas. Pasar pool o tx.
func NewBalanceRepository(q Querier) *BalanceRepo {
	return &BalanceRepo{q: q}
}

// Upsert inserta o actualiza la apertura del par (ON CONFLICT por la clave
// natural). Dos upserts concurrentes del mismo par serializan sobre el
// constraint único: nunca quedan filas duplicadas. Un perdedor de carrera que
// aún así reciba 23505 se mapea a ErrConflict; reintentar es seguro porque la
// operación es idempotente por clave natural.
func (r *BalanceRepo) Upsert(ctx context.Context, balance *entity.CustomerProductBalance) error {
	query := `
		INSERT INTO customer_product_balances (customer_id, product_id, opening_bottles, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (customer_id, product_id)
		DO UPDATE SET opening_bottles = EXCLUDED.opening_bottles, updated_at = now()`
	_, err := r.q.Exec(ctx, query, balance.CustomerID, balance.ProductID, balance.OpeningBottles)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("upsert opening balance: %w", err)
	}
	return nil
}

// Get obtiene la fila de apertura del par. Devuelve nil si no existe
// (la apertura implícita es 0, eso lo resuelve el caller).
func (r *BalanceRepo) Get(ctx context.Context, customerID, productID string) (*entity.CustomerProductBalance, error) {
	const query = `
		SELECT customer_id, product_id, opening_bottles, created_at, updated_at
		FROM customer_product_balances
		WHERE customer_id = $1 AND product_id = $2`
	var b entity.CustomerProductBalance
	err := r.q.QueryRow(ctx, query, customerID, productID).Scan(
		&b.CustomerID, &b.ProductID, &b.OpeningBottles, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get opening balance: %w", err)
	}
	return &b, nil
}

// ListOpenings devuelve las filas de apertura con filtros opcionales
// ("" = sin filtro).
func (r *BalanceRepo) ListOpenings(ctx context.Context, customerID, productID string) ([]*entity.CustomerProductBalance, error) {
	const query = `
		SELECT customer_id, product_id, opening_bottles, created_at, updated_at
		FROM customer_product_balances
		WHERE ($1 = '' OR customer_id::text = $1)
		  AND ($2 = '' OR product_id::text = $2)`
	rows, err := r.q.Query(ctx, query, customerID, productID)
	if err != nil {
		return nil, fmt.Errorf("list opening balances: %w", err)
	}
	defer rows.Close()

	var list []*entity.CustomerProductBalance
	for rows.Next() {
		var b entity.CustomerProductBalance
		if err := rows.Scan(&b.CustomerID, &b.ProductID, &b.OpeningBottles, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan opening balance: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}
