package repository

import (
	"context"

	"github.com/tu-usuario/distriagua-api/internal/domain/entity"
)

// BalanceRepository define el puerto de la tabla de aperturas por
// (cliente, producto). Escritura solo vía Upsert: la clave natural garantiza
// a lo sumo una fila por par.
type BalanceRepository interface {
	Upsert(ctx context.Context, balance *entity.CustomerProductBalance) error
	// Get devuelve nil si no existe fila para el par (apertura implícita 0).
	Get(ctx context.Context, customerID, productID string) (*entity.CustomerProductBalance, error)
	// ListOpenings devuelve las filas de apertura, opcionalmente filtradas por
	// cliente y/o producto ("" = sin filtro).
	ListOpenings(ctx context.Context, customerID, productID string) ([]*entity.CustomerProductBalance, error)
}
