package dto

import "time"

// RecordEventRequest entrada para registrar una entrega/recogida.
// Date en formato 2006-01-02; vacío = hoy.
type RecordEventRequest struct {
	CustomerID       string `json:"customer_id" validate:"required,uuid"`
	ProductID        string `json:"product_id" validate:"required,uuid"`
	Quantity         int    `json:"quantity" validate:"min=0"`
	EmptiesCollected int    `json:"empties_collected" validate:"min=0"`
	Date             string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// RecordEventResponse salida con el id del evento creado.
type RecordEventResponse struct {
	EventID string `json:"event_id"`
}

// SetOpeningBalanceRequest entrada para fijar la apertura de un par.
type SetOpeningBalanceRequest struct {
	CustomerID     string `json:"customer_id" validate:"required,uuid"`
	ProductID      string `json:"product_id" validate:"required,uuid"`
	OpeningBottles int    `json:"opening_bottles" validate:"min=0"`
}

// BalanceFilter filtro opcional de la consulta de saldos.
type BalanceFilter struct {
	CustomerID string `query:"customer_id"`
	ProductID  string `query:"product_id"`
}

// BalanceRow fila visible de la consulta de saldos.
type BalanceRow struct {
	CustomerID            string `json:"customer_id"`
	CustomerName          string `json:"customer_name"`
	ProductID             string `json:"product_id"`
	ProductName           string `json:"product_name"`
	OpeningBottles        int    `json:"opening_bottles"`
	TotalDelivered        int    `json:"total_delivered"`
	TotalEmptiesCollected int    `json:"total_empties_collected"`
	CurrentBottleBalance  int    `json:"current_bottle_balance"`
}

// DeliveryEventResponse salida de un evento (historial del cliente).
type DeliveryEventResponse struct {
	ID               string    `json:"id"`
	CustomerID       string    `json:"customer_id"`
	ProductID        string    `json:"product_id"`
	Quantity         int       `json:"quantity"`
	EmptiesCollected int       `json:"empties_collected"`
	Date             time.Time `json:"date"`
	CreatedAt        time.Time `json:"created_at"`
}
