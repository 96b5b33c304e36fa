package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	Name       string          `json:"name" validate:"required,min=1,max=200"`
	Price      decimal.Decimal `json:"price" validate:"required"`
	Returnable bool            `json:"returnable"`
}

// UpdateProductRequest entrada para actualizar un producto (campos opcionales).
type UpdateProductRequest struct {
	Name       *string          `json:"name"`
	Price      *decimal.Decimal `json:"price"`
	Returnable *bool            `json:"returnable"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Returnable bool            `json:"returnable"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
