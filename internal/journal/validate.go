package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fortneer/fluxo/internal/model"
)

// Warning flags a record that loads fine but will likely be ignored or
// misreported by the aggregator.
type Warning struct {
	Row         int
	Description string
}

func (w Warning) String() string {
	return fmt.Sprintf("row %d: %s", w.Row, w.Description)
}

var hundred = decimal.NewFromInt(100)

// Check inspects a normalized set and reports suspicious records.
func Check(set model.RecordSet) []Warning {
	var warns []Warning
	seen := make(map[string]int)

	for _, txn := range set.Records {
		if txn.Unit == "" {
			warns = append(warns, Warning{Row: txn.Row, Description: "empty unit"})
		}

		if txn.AccrualDate.IsZero() && txn.CashDate.IsZero() {
			warns = append(warns, Warning{Row: txn.Row, Description: "no dates; record is ignored under both regimes"})
		}

		if txn.Amount.IsZero() {
			warns = append(warns, Warning{Row: txn.Row, Description: "zero amount"})
		}

		// Exact cents.
		if !txn.Amount.Mul(hundred).Equal(txn.Amount.Mul(hundred).Floor()) {
			warns = append(warns, Warning{
				Row:         txn.Row,
				Description: fmt.Sprintf("amount %s has more than 2 decimal places", txn.Amount),
			})
		}

		key := fmt.Sprintf("%s|%s|%s|%s|%s", txn.Unit, txn.Account, txn.Amount, formatDate(txn.AccrualDate), formatDate(txn.CashDate))
		if first, dup := seen[key]; dup {
			warns = append(warns, Warning{
				Row:         txn.Row,
				Description: fmt.Sprintf("possible duplicate of row %d", first),
			})
		} else {
			seen[key] = txn.Row
		}
	}
	return warns
}
