// Package costing holds the landed-cost and profit arithmetic shared by the
// API server and the record editor.
package costing

import (
	"vehicle-admin/internal/models"

	"github.com/shopspring/decimal"
)

// LCCostLKR: the letter of credit amount converted from JPY.
func LCCostLKR(p models.VehiclePurchase) decimal.Decimal {
	return p.LCCostJPY.Mul(p.ExchangeRate)
}

// TotalCost = tt + charges + duty + clearing + lc_cost_jpy*exchange_rate + sum(other_expenses)
func TotalCost(f models.VehicleFinancials, p models.VehiclePurchase) decimal.Decimal {
	return f.TTLKR.
		Add(f.ChargesLKR).
		Add(f.DutyLKR).
		Add(f.ClearingLKR).
		Add(LCCostLKR(p)).
		Add(f.OtherExpenses.Sum())
}

func Profit(revenue, totalCost decimal.Decimal) decimal.Decimal {
	return revenue.Sub(totalCost)
}

// Recompute returns a with financials.total_cost_lkr and sales.profit derived
// from its current inputs. It does not touch any other field.
func Recompute(a models.VehicleAggregate) models.VehicleAggregate {
	a.Financials.TotalCostLKR = TotalCost(a.Financials, a.Purchase)
	a.Sales.Profit = Profit(a.Sales.Revenue, a.Financials.TotalCostLKR)
	return a
}
