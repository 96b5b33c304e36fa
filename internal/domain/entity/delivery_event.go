package entity

import "time"

// DeliveryEvent registra una entrega de botellones y/o una recogida de envases
// vacíos para un (cliente, producto) en una fecha de negocio. Es append-only:
// nunca se modifica después de creado; una corrección es un nuevo evento
// compensatorio, no una edición.
type DeliveryEvent struct {
	ID               string
	CustomerID       string
	ProductID        string
	Quantity         int // botellones entregados (>= 0)
	EmptiesCollected int // envases vacíos recogidos (>= 0)
	Date             time.Time
	CreatedAt        time.Time
	CreatedBy        string
}
