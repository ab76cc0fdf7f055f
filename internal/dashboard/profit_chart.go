package dashboard

import (
	"fmt"
	"log"
	"time"

	"vehicle-admin/internal/database"
	"vehicle-admin/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ProfitChartPoint struct {
	Label   string          `json:"label"` // month start, YYYY-MM
	Sold    int             `json:"sold"`
	Revenue decimal.Decimal `json:"revenue"`
	Cost    decimal.Decimal `json:"cost"`
	Profit  decimal.Decimal `json:"profit"`
}

type ProfitChartResponse struct {
	From        string             `json:"from"`
	To          string             `json:"to"`
	Points      []ProfitChartPoint `json:"points"`
	GrandTotals ProfitChartPoint   `json:"grand_totals"`
}

type Summary struct {
	Vehicles         int                           `json:"vehicles"`
	ByShippingStatus map[models.ShippingStatus]int `json:"by_shipping_status"`
	BySaleStatus     map[models.SaleStatus]int     `json:"by_sale_status"`
	StockCostLKR     decimal.Decimal               `json:"stock_cost_lkr"` // landed cost of unsold vehicles
	Revenue          decimal.Decimal               `json:"revenue"`
	Profit           decimal.Decimal               `json:"profit"`
}

// BuildSummary counts vehicles per status and sums costs. A vehicle without
// a sales row counts as available.
func BuildSummary(vehicleIDs []uint, shipping []models.VehicleShipping, financials []models.VehicleFinancials, sales []models.VehicleSales) Summary {
	s := Summary{
		Vehicles:         len(vehicleIDs),
		ByShippingStatus: map[models.ShippingStatus]int{},
		BySaleStatus:     map[models.SaleStatus]int{},
		StockCostLKR:     decimal.Zero,
		Revenue:          decimal.Zero,
		Profit:           decimal.Zero,
	}

	known := make(map[uint]bool, len(vehicleIDs))
	for _, id := range vehicleIDs {
		known[id] = true
	}

	shipStatus := make(map[uint]models.ShippingStatus, len(shipping))
	for _, sh := range shipping {
		shipStatus[sh.VehicleID] = sh.Status
	}
	saleStatus := make(map[uint]models.SaleStatus, len(sales))
	for _, sa := range sales {
		if !known[sa.VehicleID] {
			continue
		}
		saleStatus[sa.VehicleID] = sa.SaleStatus
		if sa.SaleStatus == models.SaleSold {
			s.Revenue = s.Revenue.Add(sa.Revenue)
			s.Profit = s.Profit.Add(sa.Profit)
		}
	}

	for _, id := range vehicleIDs {
		st := shipStatus[id]
		if st == "" {
			st = models.ShippingProcessing
		}
		s.ByShippingStatus[st]++

		ss := saleStatus[id]
		if ss == "" {
			ss = models.SaleAvailable
		}
		s.BySaleStatus[ss]++
	}

	for _, f := range financials {
		if known[f.VehicleID] && saleStatus[f.VehicleID] != models.SaleSold {
			s.StockCostLKR = s.StockCostLKR.Add(f.TotalCostLKR)
		}
	}
	return s
}

// BuildProfitChart buckets sold vehicles by the month of their sold date,
// for the months months ending with the month of now. Empty months are kept.
func BuildProfitChart(sales []models.VehicleSales, months int, now time.Time) ProfitChartResponse {
	now = now.UTC()
	last := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	first := last.AddDate(0, -(months - 1), 0)

	points := make([]ProfitChartPoint, months)
	for i := range points {
		points[i] = ProfitChartPoint{
			Label:   first.AddDate(0, i, 0).Format("2006-01"),
			Revenue: decimal.Zero,
			Cost:    decimal.Zero,
			Profit:  decimal.Zero,
		}
	}
	grand := ProfitChartPoint{Label: "total", Revenue: decimal.Zero, Cost: decimal.Zero, Profit: decimal.Zero}

	for _, sa := range sales {
		if sa.SaleStatus != models.SaleSold || sa.SoldDate == nil {
			continue
		}
		d := sa.SoldDate.UTC()
		idx := (d.Year()-first.Year())*12 + int(d.Month()) - int(first.Month())
		if idx < 0 || idx >= months {
			continue
		}
		// profit is revenue minus total cost, so cost follows from the stored pair
		cost := sa.Revenue.Sub(sa.Profit)
		for _, p := range []*ProfitChartPoint{&points[idx], &grand} {
			p.Sold++
			p.Revenue = p.Revenue.Add(sa.Revenue)
			p.Cost = p.Cost.Add(cost)
			p.Profit = p.Profit.Add(sa.Profit)
		}
	}

	return ProfitChartResponse{
		From:        first.Format("2006-01-02"),
		To:          last.AddDate(0, 1, -1).Format("2006-01-02"),
		Points:      points,
		GrandTotals: grand,
	}
}

// GET /api/dashboard/summary
func SummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var ids []uint
		if err := database.DB.Model(&models.Vehicle{}).Order("id").Pluck("id", &ids).Error; err != nil {
			log.Println("dashboard vehicles:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Dashboard could not be loaded")
		}

		var shipping []models.VehicleShipping
		var financials []models.VehicleFinancials
		var sales []models.VehicleSales
		for _, dst := range []any{&shipping, &financials, &sales} {
			if err := database.DB.Find(dst).Error; err != nil {
				log.Println("dashboard query:", err)
				return fiber.NewError(fiber.StatusInternalServerError, "Dashboard could not be loaded")
			}
		}

		return c.JSON(BuildSummary(ids, shipping, financials, sales))
	}
}

// GET /api/dashboard/profit-chart?months=6
func ProfitChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		months := 6
		if m := c.Query("months"); m != "" {
			if _, err := fmt.Sscan(m, &months); err != nil || months <= 0 || months > 36 {
				return fiber.NewError(fiber.StatusBadRequest, "months must be between 1 and 36")
			}
		}

		now := time.Now()
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

		var sales []models.VehicleSales
		if err := database.DB.
			Where("sale_status = ? AND sold_date >= ?", models.SaleSold, from).
			Find(&sales).Error; err != nil {
			log.Println("profit chart query:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Chart data could not be loaded")
		}

		return c.JSON(BuildProfitChart(sales, months, now))
	}
}
