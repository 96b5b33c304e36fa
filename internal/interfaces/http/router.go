package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/distriagua-api/internal/application/auth"
	appbalance "github.com/tu-usuario/distriagua-api/internal/application/balance"
	"github.com/tu-usuario/distriagua-api/internal/application/report"
	"github.com/tu-usuario/distriagua-api/internal/application/usecase"
	"github.com/tu-usuario/distriagua-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	CustomerUC  *usecase.CustomerUseCase
	ProductUC   *usecase.ProductUseCase
	UserUC      *usecase.UserUseCase
	BalanceUC   *appbalance.UseCase
	StatementUC *report.StatementUseCase
	AuthUC      *auth.AuthUseCase
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Customers (protegido)
	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Post("/", customerHandler.Create)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Put("/:id", customerHandler.Update)
	customers.Delete("/:id", RequireRole(entity.RoleAdmin), customerHandler.Delete)

	// Products (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", RequireRole(entity.RoleAdmin), productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", RequireRole(entity.RoleAdmin), productHandler.Update)
	products.Delete("/:id", RequireRole(entity.RoleAdmin), productHandler.Delete)

	// Saldos de botellones (protegido)
	balanceHandler := NewBalanceHandler(deps.BalanceUC, deps.StatementUC)
	balances := protected.Group("/balances")
	balances.Get("/", balanceHandler.Query)
	// La apertura es una corrección administrativa, no una operación de ruta.
	balances.Put("/opening", RequireRole(entity.RoleAdmin), balanceHandler.SetOpening)
	balances.Get("/:customerId/statement.pdf", balanceHandler.Statement)

	// Eventos de entrega/recogida (protegido; los registra la operación de ruta)
	events := protected.Group("/events")
	events.Post("/", RequireRole(entity.RoleAdmin, entity.RoleRepartidor), balanceHandler.RecordEvent)
	events.Get("/", balanceHandler.ListEvents)

	// Users (solo admin)
	users := protected.Group("/users", RequireRole(entity.RoleAdmin))
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/", userHandler.List)
	users.Post("/:id/deactivate", userHandler.Deactivate)
}
