// Package balance expone la superficie de escritura y lectura del saldo de
// botellones: registrar eventos, fijar aperturas y consultar el estado.
package balance

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tu-usuario/distriagua-api/internal/application/dto"
	"github.com/tu-usuario/distriagua-api/internal/domain"
	domainbalance "github.com/tu-usuario/distriagua-api/internal/domain/balance"
	"github.com/tu-usuario/distriagua-api/internal/domain/entity"
	"github.com/tu-usuario/distriagua-api/internal/domain/repository"
)

// UseCase casos de uso del saldo de botellones. Lee aperturas y agregados de
// eventos; nunca persiste el saldo derivado.
type UseCase struct {
	customerRepo repository.CustomerRepository
	productRepo  repository.ProductRepository
	eventRepo    repository.DeliveryEventRepository
	balanceRepo  repository.BalanceRepository
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	customerRepo repository.CustomerRepository,
	productRepo repository.ProductRepository,
	eventRepo repository.DeliveryEventRepository,
	balanceRepo repository.BalanceRepository,
) *UseCase {
	return &UseCase{
		customerRepo: customerRepo,
		productRepo:  productRepo,
		eventRepo:    eventRepo,
		balanceRepo:  balanceRepo,
	}
}

// RecordEvent valida y persiste un evento inmutable de entrega/recogida.
// Falla con ErrInvalidInput si alguna cantidad es negativa y con ErrNotFound
// si cliente o producto no existen.
func (uc *UseCase) RecordEvent(ctx context.Context, createdBy string, in dto.RecordEventRequest) (*dto.RecordEventResponse, error) {
	if in.Quantity < 0 || in.EmptiesCollected < 0 {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.checkPairExists(ctx, in.CustomerID, in.ProductID); err != nil {
		return nil, err
	}

	date := time.Now()
	if in.Date != "" {
		parsed, err := time.Parse("2006-01-02", in.Date)
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		date = parsed
	}

	event := &entity.DeliveryEvent{
		ID:               uuid.New().String(),
		CustomerID:       in.CustomerID,
		ProductID:        in.ProductID,
		Quantity:         in.Quantity,
		EmptiesCollected: in.EmptiesCollected,
		Date:             date,
		CreatedAt:        time.Now(),
		CreatedBy:        createdBy,
	}
	if err := uc.eventRepo.Create(ctx, event); err != nil {
		return nil, err
	}
	return &dto.RecordEventResponse{EventID: event.ID}, nil
}

// SetOpeningBalance fija la apertura del par (upsert por clave natural).
// Corrección administrativa: no toca el log de eventos.
func (uc *UseCase) SetOpeningBalance(ctx context.Context, in dto.SetOpeningBalanceRequest) error {
	if in.OpeningBottles < 0 {
		return domain.ErrInvalidInput
	}
	if err := uc.checkPairExists(ctx, in.CustomerID, in.ProductID); err != nil {
		return err
	}
	return uc.balanceRepo.Upsert(ctx, &entity.CustomerProductBalance{
		CustomerID:     in.CustomerID,
		ProductID:      in.ProductID,
		OpeningBottles: in.OpeningBottles,
	})
}

// GetOpeningBalance devuelve la apertura del par; 0 si no hay fila.
func (uc *UseCase) GetOpeningBalance(ctx context.Context, customerID, productID string) (int, error) {
	if err := uc.checkPairExists(ctx, customerID, productID); err != nil {
		return 0, err
	}
	row, err := uc.balanceRepo.Get(ctx, customerID, productID)
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}
	return row.OpeningBottles, nil
}

// QueryBalances calcula el estado de saldos bajo el filtro dado. Sin filtro
// devuelve el producto cruzado completo clientes × productos; con ambos ids a
// lo sumo una fila. Ids de filtro desconocidos fallan con ErrNotFound; pares
// sin apertura ni eventos salen con ceros, nunca como error.
func (uc *UseCase) QueryBalances(ctx context.Context, filter dto.BalanceFilter) ([]dto.BalanceRow, error) {
	customers, err := uc.filterCustomers(ctx, filter.CustomerID)
	if err != nil {
		return nil, err
	}
	products, err := uc.filterProducts(ctx, filter.ProductID)
	if err != nil {
		return nil, err
	}

	// Con ambos filtros el resultado es un solo par: agregado puntual en vez
	// de los dos barridos dispersos.
	if filter.CustomerID != "" && filter.ProductID != "" {
		opening, err := uc.GetOpeningBalance(ctx, filter.CustomerID, filter.ProductID)
		if err != nil {
			return nil, err
		}
		delivered, collected, err := uc.eventRepo.AggregateForPair(ctx, filter.CustomerID, filter.ProductID)
		if err != nil {
			return nil, err
		}
		return []dto.BalanceRow{{
			CustomerID:            customers[0].ID,
			CustomerName:          customers[0].Name,
			ProductID:             products[0].ID,
			ProductName:           products[0].Name,
			OpeningBottles:        opening,
			TotalDelivered:        delivered,
			TotalEmptiesCollected: collected,
			CurrentBottleBalance:  domainbalance.Current(opening, delivered, collected),
		}}, nil
	}

	// Dos consultas dispersas independientes combinadas por clave natural en
	// memoria; el producto cruzado nunca se materializa en SQL.
	openingRows, err := uc.balanceRepo.ListOpenings(ctx, filter.CustomerID, filter.ProductID)
	if err != nil {
		return nil, err
	}
	flowRows, err := uc.eventRepo.AggregateAll(ctx, filter.CustomerID, filter.ProductID)
	if err != nil {
		return nil, err
	}

	openings := make(map[domainbalance.PairKey]int, len(openingRows))
	for _, o := range openingRows {
		openings[domainbalance.PairKey{CustomerID: o.CustomerID, ProductID: o.ProductID}] = o.OpeningBottles
	}
	flows := make(map[domainbalance.PairKey]domainbalance.FlowTotals, len(flowRows))
	for _, f := range flowRows {
		flows[domainbalance.PairKey{CustomerID: f.CustomerID, ProductID: f.ProductID}] = domainbalance.FlowTotals{
			Delivered: f.Delivered,
			Collected: f.Collected,
		}
	}

	rows := domainbalance.BuildRows(toParties(customers), productParties(products), openings, flows)
	out := make([]dto.BalanceRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.BalanceRow{
			CustomerID:            r.CustomerID,
			CustomerName:          r.CustomerName,
			ProductID:             r.ProductID,
			ProductName:           r.ProductName,
			OpeningBottles:        r.OpeningBottles,
			TotalDelivered:        r.TotalDelivered,
			TotalEmptiesCollected: r.TotalCollected,
			CurrentBottleBalance:  r.CurrentBottles,
		})
	}
	return out, nil
}

// ListEventsByCustomer devuelve el historial de eventos de un cliente.
func (uc *UseCase) ListEventsByCustomer(ctx context.Context, customerID string, limit, offset int) ([]dto.DeliveryEventResponse, error) {
	customer, err := uc.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	events, err := uc.eventRepo.ListByCustomer(ctx, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DeliveryEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, dto.DeliveryEventResponse{
			ID:               e.ID,
			CustomerID:       e.CustomerID,
			ProductID:        e.ProductID,
			Quantity:         e.Quantity,
			EmptiesCollected: e.EmptiesCollected,
			Date:             e.Date,
			CreatedAt:        e.CreatedAt,
		})
	}
	return out, nil
}

func (uc *UseCase) checkPairExists(ctx context.Context, customerID, productID string) error {
	customer, err := uc.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return err
	}
	if customer == nil {
		return domain.ErrNotFound
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	return nil
}

// filterCustomers devuelve el cliente del filtro o todos si no hay filtro.
func (uc *UseCase) filterCustomers(ctx context.Context, customerID string) ([]*entity.Customer, error) {
	if customerID == "" {
		return uc.customerRepo.ListAll(ctx)
	}
	customer, err := uc.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	return []*entity.Customer{customer}, nil
}

func (uc *UseCase) filterProducts(ctx context.Context, productID string) ([]*entity.Product, error) {
	if productID == "" {
		return uc.productRepo.ListAll(ctx)
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return []*entity.Product{product}, nil
}

func toParties(customers []*entity.Customer) []domainbalance.Party {
	out := make([]domainbalance.Party, 0, len(customers))
	for _, c := range customers {
		out = append(out, domainbalance.Party{ID: c.ID, Name: c.Name})
	}
	return out
}

func productParties(products []*entity.Product) []domainbalance.Party {
	out := make([]domainbalance.Party, 0, len(products))
	for _, p := range products {
		out = append(out, domainbalance.Party{ID: p.ID, Name: p.Name})
	}
	return out
}
