package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleRepartidor = "repartidor"
	RoleVendedor   = "vendedor"
)

// User representa un usuario del sistema.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, repartidor, vendedor
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
