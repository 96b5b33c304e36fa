package repository

import (
	"context"

	"github.com/tu-usuario/distriagua-api/internal/domain/entity"
)

// CustomerRepository define el puerto de persistencia para Customer.
type CustomerRepository interface {
	Create(ctx context.Context, customer *entity.Customer) error
	GetByID(ctx context.Context, id string) (*entity.Customer, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Customer, error)
	// ListAll devuelve todos los clientes ordenados por nombre (vista de saldos).
	ListAll(ctx context.Context) ([]*entity.Customer, error)
	// ListWithLegacyBottles devuelve los clientes con saldo legado > 0
	// (solo lo consume la migración de backfill).
	ListWithLegacyBottles(ctx context.Context) ([]*entity.Customer, error)
	Update(ctx context.Context, customer *entity.Customer) error
	Delete(ctx context.Context, id string) error
}
