package billing

import "github.com/shopspring/decimal"

// Credit pricing constants. Output tokens are weighted heavier than input
// tokens, and the weighted total is priced per block of tokens, rounded up
// to the nearest tenth of a credit so rounding never underpays the provider.
const (
	inputTokenWeight  = 1
	outputTokenWeight = 4
	tokensPerCredit   = 3000
)

var creditStep = decimal.NewFromFloat(0.1)

// TokenUsage is a single usage event as reported by the AI pipeline.
// Counts may be negative or otherwise garbage upstream and are clamped.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// UsageCreditCost converts an input/output token pair into a non-negative
// credit cost, rounded up to the nearest 0.1 credit.
func UsageCreditCost(inputTokens, outputTokens int64) decimal.Decimal {
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}
	weighted := inputTokens*inputTokenWeight + outputTokens*outputTokenWeight
	return costFromWeighted(weighted)
}

// CreditCostFromTotalTokens prices a bare total token count with the same
// formula, treating the total as the weighted sum.
func CreditCostFromTotalTokens(totalTokens int64) decimal.Decimal {
	if totalTokens < 0 {
		totalTokens = 0
	}
	return costFromWeighted(totalTokens)
}

// costFromWeighted applies ceil(weighted/3000*10)/10: divide by the block
// size, scale to tenths, round up, scale back.
func costFromWeighted(weighted int64) decimal.Decimal {
	if weighted <= 0 {
		return decimal.Zero
	}
	tenths := decimal.NewFromInt(weighted).
		Div(decimal.NewFromInt(tokensPerCredit)).
		Mul(decimal.NewFromInt(10)).
		Ceil()
	return tenths.Mul(creditStep)
}

// SumUsageCosts totals the credit cost of many usage rows. Each row is
// priced and rounded to one decimal individually before summation; summing
// raw weighted tokens and rounding once would under-bill many small calls.
func SumUsageCosts(rows []TokenUsage) decimal.Decimal {
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(UsageCreditCost(row.InputTokens, row.OutputTokens))
	}
	return total
}
