package entity

import "time"

// Customer representa un cliente de la distribuidora (ruta de reparto de agua).
type Customer struct {
	ID      string
	Name    string
	Address string
	Phone   string
	// LegacyBottles es el saldo de botellones del esquema anterior: un solo
	// valor por cliente, sin distinguir producto. Solo lo lee la migración de
	// backfill; el camino de consultas usa customer_product_balances.
	LegacyBottles int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
