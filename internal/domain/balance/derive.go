// Package balance implementa la derivación del saldo de botellones.
//
// El saldo nunca se persiste: el log de eventos es la única fuente de verdad
// del flujo (entregas y recogidas) y la tabla de aperturas solo aporta el
// offset inicial. El estado completo es el producto cruzado clientes ×
// productos, con cero por defecto donde no hay fila de apertura ni eventos.
package balance

import "sort"

// Party identifica a un cliente o producto por (id, nombre visible).
type Party struct {
	ID   string
	Name string
}

// PairKey clave natural (cliente, producto).
type PairKey struct {
	CustomerID string
	ProductID  string
}

// FlowTotals entregas y recogidas acumuladas de un par.
type FlowTotals struct {
	Delivered int
	Collected int
}

// Row fila visible del estado de saldos para un (cliente, producto).
type Row struct {
	CustomerID     string
	CustomerName   string
	ProductID      string
	ProductName    string
	OpeningBottles int
	TotalDelivered int
	TotalCollected int
	CurrentBottles int
}

// Current deriva el saldo actual. Puede ser negativo (más envases recogidos
// que entregados más la apertura); es un estado válido y no se recorta.
func Current(opening, delivered, collected int) int {
	return opening + delivered - collected
}

// BuildRows enumera el producto cruzado clientes × productos y lo combina con
// las dos tablas dispersas (aperturas y agregados de eventos) por clave
// natural, con cero por defecto. Evita el cross join materializado: los
// agregados llegan ya sumados por par.
//
// Orden determinista: nombre de cliente, luego nombre de producto; empates
// por id.
func BuildRows(customers, products []Party, openings map[PairKey]int, flows map[PairKey]FlowTotals) []Row {
	cs := sortedParties(customers)
	ps := sortedParties(products)

	rows := make([]Row, 0, len(cs)*len(ps))
	for _, c := range cs {
		for _, p := range ps {
			key := PairKey{CustomerID: c.ID, ProductID: p.ID}
			opening := openings[key]
			flow := flows[key]
			rows = append(rows, Row{
				CustomerID:     c.ID,
				CustomerName:   c.Name,
				ProductID:      p.ID,
				ProductName:    p.Name,
				OpeningBottles: opening,
				TotalDelivered: flow.Delivered,
				TotalCollected: flow.Collected,
				CurrentBottles: Current(opening, flow.Delivered, flow.Collected),
			})
		}
	}
	return rows
}

func sortedParties(in []Party) []Party {
	out := make([]Party, len(in))
	copy(out, in)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
