// Package report genera el estado de cuenta de botellones de un cliente
// (representación imprimible de la consulta de saldos).
package report

import (
	"context"
	"time"

	appbalance "github.com/tu-usuario/distriagua-api/internal/application/balance"
	"github.com/tu-usuario/distriagua-api/internal/application/dto"
	"github.com/tu-usuario/distriagua-api/internal/domain"
	"github.com/tu-usuario/distriagua-api/internal/domain/entity"
	"github.com/tu-usuario/distriagua-api/internal/domain/repository"
)

// StatementPDFGenerator puerto del generador PDF del estado de cuenta.
type StatementPDFGenerator interface {
	GenerateStatementPDF(ctx context.Context, customer *entity.Customer, rows []dto.BalanceRow, generatedAt time.Time) ([]byte, error)
}

// StatementUseCase arma el estado de cuenta: saldos actuales del cliente por
// producto, derivados en lectura, renderizados como PDF.
type StatementUseCase struct {
	customerRepo repository.CustomerRepository
	balances     *appbalance.UseCase
	generator    StatementPDFGenerator
}

// NewStatementUseCase construye el caso de uso.
func NewStatementUseCase(
	customerRepo repository.CustomerRepository,
	balances *appbalance.UseCase,
	generator StatementPDFGenerator,
) *StatementUseCase {
	return &StatementUseCase{customerRepo: customerRepo, balances: balances, generator: generator}
}

// GenerateForCustomer genera el PDF del estado de cuenta de un cliente.
func (uc *StatementUseCase) GenerateForCustomer(ctx context.Context, customerID string) ([]byte, error) {
	customer, err := uc.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	rows, err := uc.balances.QueryBalances(ctx, dto.BalanceFilter{CustomerID: customerID})
	if err != nil {
		return nil, err
	}
	return uc.generator.GenerateStatementPDF(ctx, customer, rows, time.Now())
}
