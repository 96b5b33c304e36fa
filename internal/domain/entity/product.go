package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa una presentación de agua (botellón 20L, pack 600ml, etc.).
// Returnable indica si la presentación usa envase retornable con depósito;
// solo esas participan del saldo de botellones.
type Product struct {
	ID         string
	Name       string
	Price      decimal.Decimal // precio de venta unitario
	Returnable bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
