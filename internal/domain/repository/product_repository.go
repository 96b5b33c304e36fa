package repository

import (
	"context"

	"github.com/tu-usuario/distriagua-api/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product.
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	ListAll(ctx context.Context) ([]*entity.Product, error)
	// GetLowestID devuelve el producto con menor id, o nil si no hay productos.
	// Es el producto por defecto al que la migración asigna los saldos legados.
	GetLowestID(ctx context.Context) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id string) error
}
