package balance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/distriagua-api/internal/domain/balance"
)

// Caso: saldo = apertura + entregado - recogido, incluido resultado negativo.
func TestCurrent_DerivacionExacta(t *testing.T) {
	assert.Equal(t, 2, balance.Current(0, 5, 3))
	assert.Equal(t, 14, balance.Current(12, 5, 3))
	assert.Equal(t, 0, balance.Current(0, 0, 0))
	// Negativo: más envases recogidos que entregados más la apertura.
	// Estado válido (ej. apertura cargada de menos), no se recorta.
	assert.Equal(t, -4, balance.Current(1, 2, 7))
}

func TestBuildRows_ProductoCruzadoConCeros(t *testing.T) {
	customers := []balance.Party{
		{ID: "c1", Name: "Tienda La Esquina"},
		{ID: "c2", Name: "Hotel Mar Azul"},
	}
	products := []balance.Party{
		{ID: "p1", Name: "Botellón 20L"},
		{ID: "p2", Name: "Botellón 10L"},
	}

	rows := balance.BuildRows(customers, products, nil, nil)
	require.Len(t, rows, 4, "producto cruzado completo: 2 clientes × 2 productos")
	for _, row := range rows {
		assert.Zero(t, row.OpeningBottles)
		assert.Zero(t, row.TotalDelivered)
		assert.Zero(t, row.TotalCollected)
		assert.Zero(t, row.CurrentBottles, "sin apertura ni eventos el saldo es cero")
	}
}

// El orden debe ser determinista: nombre de cliente, luego nombre de producto.
func TestBuildRows_OrdenPorNombre(t *testing.T) {
	customers := []balance.Party{
		{ID: "c9", Name: "Zapatería El Paso"},
		{ID: "c1", Name: "Café Central"},
	}
	products := []balance.Party{
		{ID: "p2", Name: "Botellón 20L"},
		{ID: "p7", Name: "Botellón 10L"},
	}

	rows := balance.BuildRows(customers, products, nil, nil)
	require.Len(t, rows, 4)
	assert.Equal(t, "Café Central", rows[0].CustomerName)
	assert.Equal(t, "Botellón 10L", rows[0].ProductName)
	assert.Equal(t, "Botellón 20L", rows[1].ProductName)
	assert.Equal(t, "Zapatería El Paso", rows[2].CustomerName)
}

// Empate de nombres: desempata por id.
func TestBuildRows_EmpateDeNombresDesempataPorID(t *testing.T) {
	customers := []balance.Party{{ID: "c1", Name: "Cliente"}}
	products := []balance.Party{
		{ID: "pB", Name: "Botellón 20L"},
		{ID: "pA", Name: "Botellón 20L"},
	}

	rows := balance.BuildRows(customers, products, nil, nil)
	require.Len(t, rows, 2)
	assert.Equal(t, "pA", rows[0].ProductID)
	assert.Equal(t, "pB", rows[1].ProductID)
}

func TestBuildRows_CombinaAperturasYFlujos(t *testing.T) {
	customers := []balance.Party{{ID: "c10", Name: "Restaurante Sol"}}
	products := []balance.Party{
		{ID: "p1", Name: "Botellón 20L"},
		{ID: "p2", Name: "Botellón 10L"},
	}
	openings := map[balance.PairKey]int{
		{CustomerID: "c10", ProductID: "p2"}: 4,
	}
	flows := map[balance.PairKey]balance.FlowTotals{
		{CustomerID: "c10", ProductID: "p1"}: {Delivered: 5, Collected: 3},
	}

	rows := balance.BuildRows(customers, products, openings, flows)
	require.Len(t, rows, 2)

	// p2 ("Botellón 10L") ordena primero: solo apertura, sin eventos.
	assert.Equal(t, "p2", rows[0].ProductID)
	assert.Equal(t, 4, rows[0].OpeningBottles)
	assert.Equal(t, 4, rows[0].CurrentBottles)

	// p1: sin apertura, 5 entregados y 3 recogidos.
	assert.Equal(t, "p1", rows[1].ProductID)
	assert.Equal(t, 0, rows[1].OpeningBottles)
	assert.Equal(t, 5, rows[1].TotalDelivered)
	assert.Equal(t, 3, rows[1].TotalCollected)
	assert.Equal(t, 2, rows[1].CurrentBottles)
}

func TestBuildRows_NoMutaLasListasDeEntrada(t *testing.T) {
	customers := []balance.Party{
		{ID: "c2", Name: "B"},
		{ID: "c1", Name: "A"},
	}
	products := []balance.Party{{ID: "p1", Name: "Botellón 20L"}}

	_ = balance.BuildRows(customers, products, nil, nil)
	assert.Equal(t, "c2", customers[0].ID, "el orden del slice del caller no debe cambiar")
}
