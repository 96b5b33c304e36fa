package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	appbalance "github.com/tu-usuario/distriagua-api/internal/application/balance"
	"github.com/tu-usuario/distriagua-api/internal/application/dto"
	"github.com/tu-usuario/distriagua-api/internal/application/report"
	"github.com/tu-usuario/distriagua-api/internal/domain"
)

// BalanceHandler maneja la consulta de saldos, las aperturas y el registro
// de eventos de entrega/recogida.
type BalanceHandler struct {
	uc        *appbalance.UseCase
	statement *report.StatementUseCase
}

// NewBalanceHandler construye el handler.
func NewBalanceHandler(uc *appbalance.UseCase, statement *report.StatementUseCase) *BalanceHandler {
	return &BalanceHandler{uc: uc, statement: statement}
}

// Query GET /api/balances?customer_id=&product_id=
// Sin filtros devuelve el producto cruzado completo clientes × productos;
// se espera que los consumidores filtren.
func (h *BalanceHandler) Query(c *fiber.Ctx) error {
	var filter dto.BalanceFilter
	if err := c.QueryParser(&filter); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "query inválida"})
	}
	rows, err := h.uc.QueryBalances(c.Context(), filter)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "cliente o producto del filtro no existe"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(rows)
}

// SetOpening PUT /api/balances/opening
// Corrección administrativa de la apertura de un par (upsert).
func (h *BalanceHandler) SetOpening(c *fiber.Ctx) error {
	var in dto.SetOpeningBalanceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.uc.SetOpeningBalance(c.Context(), in); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "opening_bottles no puede ser negativo"})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "cliente o producto no existe"})
		case errors.Is(err, domain.ErrConflict):
			// Carrera perdida contra otro upsert del mismo par: reintentar es
			// seguro, la operación es idempotente por clave natural.
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "escritura concurrente, reintente"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RecordEvent POST /api/events
func (h *BalanceHandler) RecordEvent(c *fiber.Ctx) error {
	var in dto.RecordEventRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.uc.RecordEvent(c.Context(), GetUserID(c), in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "cantidades negativas o fecha inválida"})
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "cliente o producto no existe"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListEvents GET /api/events?customer_id=&limit=&offset=
func (h *BalanceHandler) ListEvents(c *fiber.Ctx) error {
	customerID := c.Query("customer_id")
	if customerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "customer_id es requerido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "query inválida"})
	}
	page.DefaultPage()
	events, err := h.uc.ListEventsByCustomer(c.Context(), customerID, page.Limit, page.Offset)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "cliente no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(events)
}

// Statement GET /api/balances/:customerId/statement.pdf
func (h *BalanceHandler) Statement(c *fiber.Ctx) error {
	pdfBytes, err := h.statement.GenerateForCustomer(c.Context(), c.Params("customerId"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "cliente no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="estado-de-cuenta.pdf"`)
	return c.Send(pdfBytes)
}
