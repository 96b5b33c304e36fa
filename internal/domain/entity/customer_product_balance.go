package entity

import "time"

// CustomerProductBalance es el saldo de apertura de botellones por
// (cliente, producto): lo que el cliente ya debía antes del primer evento
// registrado. A lo sumo una fila por par; OpeningBottles >= 0.
//
// Solo se escribe por entrada administrativa o por la migración de backfill.
// La agregación de eventos nunca la modifica: el saldo actual se deriva en
// lectura como apertura + entregas - recogidas.
type CustomerProductBalance struct {
	CustomerID     string
	ProductID      string
	OpeningBottles int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
