package repository

import (
	"context"

	"github.com/tu-usuario/distriagua-api/internal/domain/entity"
)

// PairFlow agregado de eventos de un par (cliente, producto).
type PairFlow struct {
	CustomerID string
	ProductID  string
	Delivered  int
	Collected  int
}

// DeliveryEventRepository define el puerto del registro append-only de
// entregas y recogidas. No hay Update ni Delete: los eventos son inmutables.
type DeliveryEventRepository interface {
	Create(ctx context.Context, event *entity.DeliveryEvent) error
	// AggregateForPair suma entregas y recogidas del par en una sola sentencia
	// (lectura consistente: un evento concurrente se ve completo o no se ve).
	// Devuelve ceros si el par no tiene eventos.
	AggregateForPair(ctx context.Context, customerID, productID string) (delivered, collected int, err error)
	// AggregateAll suma por par, opcionalmente filtrado por cliente y/o
	// producto ("" = sin filtro). Solo devuelve pares con eventos.
	AggregateAll(ctx context.Context, customerID, productID string) ([]PairFlow, error)
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*entity.DeliveryEvent, error)
}
