package analytics

import (
	"testing"

	"github.com/KotFed0t/portfolio_analyzer_bot/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLedger_FIFOPartialLot(t *testing.T) {
	ledger := BuildLedger([]model.Transaction{
		buy("INFY.NS", "10", "10", 0),
		buy("INFY.NS", "5", "20", 1),
		sell("INFY.NS", "12", "15", 2),
	})

	assertDecimal(t, "40", ledger.RealizedProfit)

	h := ledger.Holdings["INFY.NS"]
	assertDecimal(t, "3", h.Quantity)
	assertDecimal(t, "60", h.CostBasis)
	assertDecimal(t, "20", h.AvgUnitCost)
	require.Len(t, h.OpenLots, 1)
	assertDecimal(t, "3", h.OpenLots[0].Quantity)
	assertDecimal(t, "20", h.OpenLots[0].UnitCost)
}

func TestBuildLedger_OversellIsClamped(t *testing.T) {
	ledger := BuildLedger([]model.Transaction{
		buy("TCS.NS", "5", "10", 0),
		sell("TCS.NS", "8", "12", 1),
	})

	assertDecimal(t, "10", ledger.RealizedProfit)

	h := ledger.Holdings["TCS.NS"]
	assertDecimal(t, "0", h.Quantity)
	assertDecimal(t, "0", h.CostBasis)
	assertDecimal(t, "0", h.AvgUnitCost)
	assert.Empty(t, h.OpenLots)
	assert.Empty(t, ledger.OpenHoldings())
}

func TestBuildLedger_SellWithoutBuys(t *testing.T) {
	ledger := BuildLedger([]model.Transaction{sell("X", "3", "50", 0)})

	assertDecimal(t, "0", ledger.RealizedProfit)
	assertDecimal(t, "0", ledger.Holdings["X"].Quantity)
	assert.Empty(t, ledger.OpenHoldings())
}

func TestBuildLedger_ExactLotConsumption(t *testing.T) {
	ledger := BuildLedger([]model.Transaction{
		buy("A", "4", "10", 0),
		buy("A", "6", "12", 1),
		sell("A", "4", "11", 2),
	})

	assertDecimal(t, "4", ledger.RealizedProfit)
	h := ledger.Holdings["A"]
	require.Len(t, h.OpenLots, 1)
	assertDecimal(t, "6", h.OpenLots[0].Quantity)
	assertDecimal(t, "12", h.OpenLots[0].UnitCost)
	assertDecimal(t, "72", h.CostBasis)
}

func TestBuildLedger_AverageCostOnBuysOnly(t *testing.T) {
	ledger := BuildLedger([]model.Transaction{
		buy("A", "3", "10.10", 0),
		buy("A", "7", "11.37", 1),
		buy("A", "0.5", "9.99", 2),
	})

	h := ledger.Holdings["A"]
	assertDecimal(t, "10.5", h.Quantity)
	assertDecimal(t, "114.885", h.CostBasis)
	assert.True(t, h.AvgUnitCost.Equal(h.CostBasis.Div(h.Quantity)))
	assertDecimalNear(t, "114.885", h.AvgUnitCost.Mul(h.Quantity))
}

func TestBuildLedger_SortsByTimestamp(t *testing.T) {
	// the sell comes first in the input but last in time
	ledger := BuildLedger([]model.Transaction{
		sell("A", "5", "20", 3),
		buy("A", "5", "10", 1),
		buy("A", "5", "30", 2),
	})

	assertDecimal(t, "50", ledger.RealizedProfit)
	h := ledger.Holdings["A"]
	require.Len(t, h.OpenLots, 1)
	assertDecimal(t, "30", h.OpenLots[0].UnitCost)
}

func TestBuildLedger_TieKeepsInputOrder(t *testing.T) {
	first := buy("A", "1", "10", 0)
	second := buy("A", "1", "20", 0)

	ledger := BuildLedger([]model.Transaction{first, second, sell("A", "1", "15", 1)})

	assertDecimal(t, "5", ledger.RealizedProfit)
	assertDecimal(t, "20", ledger.Holdings["A"].OpenLots[0].UnitCost)
}

func TestBuildLedger_InstrumentsAreIndependent(t *testing.T) {
	ledger := BuildLedger([]model.Transaction{
		buy("A", "2", "10", 0),
		buy("B", "2", "100", 0),
		sell("B", "1", "90", 1),
		sell("A", "5", "20", 2),
	})

	assertDecimal(t, "10", ledger.RealizedProfit) // -10 on B, +20 on A
	assert.Equal(t, []string{"A", "B"}, ledger.Symbols)
	assertDecimal(t, "1", ledger.Holdings["B"].Quantity)
	assertDecimal(t, "100", ledger.Holdings["B"].CostBasis)

	open := ledger.OpenHoldings()
	require.Len(t, open, 1)
	assert.Equal(t, "B", open[0].Symbol)
}

func TestBuildLedger_ManyPartialFillsStayExact(t *testing.T) {
	txs := []model.Transaction{buy("A", "1", "0.1", 0)}
	for i := 1; i <= 10; i++ {
		txs = append(txs, sell("A", "0.1", "0.3", i))
	}

	ledger := BuildLedger(txs)

	assertDecimal(t, "0.2", ledger.RealizedProfit)
	assertDecimal(t, "0", ledger.Holdings["A"].Quantity)
	assertDecimal(t, "0", ledger.Holdings["A"].CostBasis)
	assert.Empty(t, ledger.Holdings["A"].OpenLots)
}

func TestBuildLedger_Empty(t *testing.T) {
	ledger := BuildLedger(nil)

	assert.Empty(t, ledger.Holdings)
	assert.Empty(t, ledger.Symbols)
	assertDecimal(t, "0", ledger.RealizedProfit)
}

func TestBuildLedger_Idempotent(t *testing.T) {
	txs := []model.Transaction{
		buy("A", "10", "10", 0),
		buy("B", "3", "7.5", 1),
		sell("A", "4", "12", 2),
		buy("A", "1", "9", 3),
		sell("B", "5", "8", 4),
	}

	assert.Equal(t, BuildLedger(txs), BuildLedger(txs))
}

func TestBuildLedger_DoesNotMutateInput(t *testing.T) {
	txs := []model.Transaction{
		sell("A", "1", "12", 2),
		buy("A", "2", "10", 1),
	}
	snapshot := append([]model.Transaction(nil), txs...)

	BuildLedger(txs)

	assert.Equal(t, snapshot, txs)
}
