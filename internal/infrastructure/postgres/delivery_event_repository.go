package postgres

import (
	"context"
	"fmt"

	"github.com/tu-usuario/distriagua-api/internal/domain"
	"github.com/tu-usuario/distriagua-api/internal/domain/entity"
	"github.com/tu-usuario/distriagua-api/internal/domain/repository"
)

var _ repository.DeliveryEventRepository = (*DeliveryEventRepo)(nil)

// DeliveryEventRepo implementación de DeliveryEventRepository (pool o tx).
// La tabla es append-only: solo INSERT y lecturas agregadas.
type DeliveryEventRepo struct {
	q Querier
}

// NewDeliveryEventRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDeliveryEventRepository(q Querier) *DeliveryEventRepo {
	return &DeliveryEventRepo{q: q}
}

// Create persiste un evento inmutable de entrega/recogida.
func (r *DeliveryEventRepo) Create(ctx context.Context, event *entity.DeliveryEvent) error {
	query := `
		INSERT INTO delivery_events (id, customer_id, product_id, quantity, empties_collected, date, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		event.ID, event.CustomerID, event.ProductID,
		event.Quantity, event.EmptiesCollected, event.Date, event.CreatedAt, event.CreatedBy,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert delivery event: %w", err)
	}
	return nil
}

// AggregateForPair suma entregas y recogidas del par. Una sola sentencia SQL:
// la lectura es un snapshot consistente, un INSERT concurrente se refleja
// completo o no se refleja. COALESCE devuelve ceros si el par no tiene eventos.
func (r *DeliveryEventRepo) AggregateForPair(ctx context.Context, customerID, productID string) (delivered, collected int, err error) {
	const query = `
		SELECT COALESCE(SUM(quantity), 0), COALESCE(SUM(empties_collected), 0)
		FROM delivery_events
		WHERE customer_id = $1 AND product_id = $2`
	err = r.q.QueryRow(ctx, query, customerID, productID).Scan(&delivered, &collected)
	if err != nil {
		return 0, 0, fmt.Errorf("aggregate events for pair: %w", err)
	}
	return delivered, collected, nil
}

// AggregateAll suma por par (cliente, producto), con filtros opcionales
// ("" = sin filtro). Solo devuelve pares con al menos un evento; los pares
// sin eventos los completa la capa de dominio con ceros.
func (r *DeliveryEventRepo) AggregateAll(ctx context.Context, customerID, productID string) ([]repository.PairFlow, error) {
	const query = `
		SELECT customer_id, product_id,
		       COALESCE(SUM(quantity), 0), COALESCE(SUM(empties_collected), 0)
		FROM delivery_events
		WHERE ($1 = '' OR customer_id::text = $1)
		  AND ($2 = '' OR product_id::text = $2)
		GROUP BY customer_id, product_id`
	rows, err := r.q.Query(ctx, query, customerID, productID)
	if err != nil {
		return nil, fmt.Errorf("aggregate events: %w", err)
	}
	defer rows.Close()

	var flows []repository.PairFlow
	for rows.Next() {
		var f repository.PairFlow
		if err := rows.Scan(&f.CustomerID, &f.ProductID, &f.Delivered, &f.Collected); err != nil {
			return nil, fmt.Errorf("scan event aggregate: %w", err)
		}
		flows = append(flows, f)
	}
	return flows, rows.Err()
}

// ListByCustomer lista los eventos de un cliente, más recientes primero.
func (r *DeliveryEventRepo) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*entity.DeliveryEvent, error) {
	const query = `
		SELECT id, customer_id, product_id, quantity, empties_collected, date, created_at, created_by
		FROM delivery_events
		WHERE customer_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list delivery events: %w", err)
	}
	defer rows.Close()

	var list []*entity.DeliveryEvent
	for rows.Next() {
		var e entity.DeliveryEvent
		if err := rows.Scan(&e.ID, &e.CustomerID, &e.ProductID, &e.Quantity, &e.EmptiesCollected, &e.Date, &e.CreatedAt, &e.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan delivery event: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
