// Package pdf implementa la generación del estado de cuenta de botellones
// de un cliente (una fila por producto con apertura, entregas, recogidas y
// saldo actual).
package pdf

import (
	"context"
	"fmt"
	"strconv"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appreport "github.com/tu-usuario/distriagua-api/internal/application/report"
	"github.com/tu-usuario/distriagua-api/internal/application/dto"
	"github.com/tu-usuario/distriagua-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 90, Blue: 140}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 180, Green: 30, Blue: 30}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ appreport.StatementPDFGenerator = (*MarotoStatementGenerator)(nil)

// MarotoStatementGenerator implementa report.StatementPDFGenerator usando
// Maroto v2.
type MarotoStatementGenerator struct{}

// NewMarotoStatementGenerator construye el generador.
func NewMarotoStatementGenerator() *MarotoStatementGenerator {
	return &MarotoStatementGenerator{}
}

// GenerateStatementPDF genera el PDF y devuelve sus bytes.
func (g *MarotoStatementGenerator) GenerateStatementPDF(
	_ context.Context,
	customer *entity.Customer,
	rows []dto.BalanceRow,
	generatedAt time.Time,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Estado de cuenta de botellones", true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(customer, generatedAt))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(tableHeaderRow())
	for _, r := range tableRows(rows) {
		m.AddRows(r)
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalRow(rows))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar estado de cuenta: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: nombre del cliente (izq) y fecha de corte (der).
func headerRow(customer *entity.Customer, generatedAt time.Time) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("ESTADO DE CUENTA DE BOTELLONES", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(customer.Name, props.Text{
				Style: fontstyle.Bold, Size: 13, Top: 6,
			}),
			text.New(fmt.Sprintf("Dirección: %s   |   Tel: %s",
				nonEmpty(customer.Address, "—"),
				nonEmpty(customer.Phone, "—"),
			), props.Text{Size: 8, Top: 14, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("Fecha de corte: "+generatedAt.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 1, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de saldos por producto.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Producto", 5, align.Left),
		h("Apertura", 2, align.Right),
		h("Entregados", 2, align.Right),
		h("Recogidos", 2, align.Right),
		h("Saldo", 1, align.Right),
	)
}

// tableRows: una fila por producto. El saldo negativo se resalta en rojo,
// no se oculta: es un estado real (apertura cargada de menos).
func tableRows(rows []dto.BalanceRow) []core.Row {
	result := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		balanceColor := colorGray
		if r.CurrentBottleBalance < 0 {
			balanceColor = colorRed
		}
		result = append(result, row.New(7).Add(
			col.New(5).Add(text.New(
				r.ProductName,
				props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1},
			)),
			col.New(2).Add(text.New(
				strconv.Itoa(r.OpeningBottles),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				strconv.Itoa(r.TotalDelivered),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(2).Add(text.New(
				strconv.Itoa(r.TotalEmptiesCollected),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1},
			)),
			col.New(1).Add(text.New(
				strconv.Itoa(r.CurrentBottleBalance),
				props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1, Style: fontstyle.Bold, Color: balanceColor},
			)),
		))
	}
	return result
}

// totalRow: saldo total de botellones del cliente sumando productos.
func totalRow(rows []dto.BalanceRow) core.Row {
	total := 0
	for _, r := range rows {
		total += r.CurrentBottleBalance
	}
	return row.New(9).Add(
		col.New(11).Add(text.New("TOTAL BOTELLONES PENDIENTES", props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: 2,
		})),
		col.New(1).Add(text.New(strconv.Itoa(total), props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right, Right: 1, Top: 2, Color: colorPrimary,
		})),
	)
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
