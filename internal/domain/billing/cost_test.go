package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUsageCreditCost(t *testing.T) {
	tests := []struct {
		name         string
		inputTokens  int64
		outputTokens int64
		want         string
	}{
		{"zero usage costs nothing", 0, 0, "0"},
		{"single input token rounds up to one tenth", 1, 0, "0.1"},
		{"single output token rounds up to one tenth", 0, 1, "0.1"},
		{"exact block of input tokens", 3000, 0, "1"},
		{"output weighting makes 750 output tokens one credit", 0, 750, "1"},
		{"one token over a block bumps a tenth", 3001, 0, "1.1"},
		{"mixed usage weights output four times", 1000, 500, "1"},
		{"negative input clamps to zero", -500, 750, "1"},
		{"negative output clamps to zero", 3000, -10, "1"},
		{"both negative costs nothing", -1, -1, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UsageCreditCost(tt.inputTokens, tt.outputTokens)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"got %s, want %s", got, tt.want)
		})
	}

	t.Run("cost is monotonic in token counts", func(t *testing.T) {
		prev := decimal.Zero
		for tokens := int64(0); tokens <= 10000; tokens += 137 {
			cost := UsageCreditCost(tokens, 0)
			assert.True(t, cost.GreaterThanOrEqual(prev),
				"cost decreased at %d tokens: %s < %s", tokens, cost, prev)
			prev = cost
		}
	})

	t.Run("cost is always a multiple of one tenth", func(t *testing.T) {
		for tokens := int64(1); tokens < 5000; tokens += 211 {
			cost := UsageCreditCost(tokens, tokens)
			scaled := cost.Mul(decimal.NewFromInt(10))
			assert.True(t, scaled.Equal(scaled.Truncate(0)),
				"cost %s for %d tokens is not a multiple of 0.1", cost, tokens)
		}
	})
}

func TestCreditCostFromTotalTokens(t *testing.T) {
	assert.True(t, CreditCostFromTotalTokens(0).IsZero())
	assert.True(t, CreditCostFromTotalTokens(-100).IsZero())
	assert.True(t, CreditCostFromTotalTokens(3000).Equal(decimal.NewFromInt(1)))
	assert.True(t, CreditCostFromTotalTokens(1).Equal(decimal.RequireFromString("0.1")))
}

func TestSumUsageCosts(t *testing.T) {
	t.Run("rounds each row before summing", func(t *testing.T) {
		// Each one-token row rounds up to 0.1 on its own; summing raw
		// tokens first would price two tokens at 0.1 total.
		rows := []TokenUsage{
			{InputTokens: 1},
			{InputTokens: 1},
		}
		got := SumUsageCosts(rows)
		assert.True(t, got.Equal(decimal.RequireFromString("0.2")), "got %s", got)
	})

	t.Run("empty slice costs nothing", func(t *testing.T) {
		assert.True(t, SumUsageCosts(nil).IsZero())
	})

	t.Run("sums mixed rows", func(t *testing.T) {
		rows := []TokenUsage{
			{InputTokens: 3000},               // 1.0
			{OutputTokens: 750},               // 1.0
			{InputTokens: 1, OutputTokens: 1}, // 0.1
		}
		got := SumUsageCosts(rows)
		assert.True(t, got.Equal(decimal.RequireFromString("2.1")), "got %s", got)
	})
}
