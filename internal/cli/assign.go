package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"vehicle-admin/internal/editor"
	"vehicle-admin/internal/models"

	"github.com/shopspring/decimal"
)

// Assignment is one --set field=value. A nil Value clears the field.
type Assignment struct {
	Field string
	Value any
}

// ParseAssignment splits "field=value". "null" and an empty value clear the field.
func ParseAssignment(s string) (Assignment, error) {
	field, value, ok := strings.Cut(s, "=")
	field = strings.ToLower(strings.TrimSpace(field))
	if !ok || field == "" {
		return Assignment{}, fmt.Errorf("--set %q: want field=value", s)
	}
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "null") {
		return Assignment{Field: field}, nil
	}
	return Assignment{Field: field, Value: value}, nil
}

func parseID(s, what string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return uint(n), nil
}

func fmtMoney(d decimal.Decimal) string { return d.StringFixed(2) }

func fmtDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func fmtID(id *uint) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*id), 10)
}

// SectionValues lists the fields of one section with display values, in the
// order the editor shows them. Derived totals come last.
func SectionValues(a models.VehicleAggregate, sec editor.Section) [][2]string {
	switch sec {
	case editor.SectionVehicle:
		v := a.Vehicle
		return [][2]string{
			{"code", v.Code}, {"make", v.Make}, {"model", v.Model}, {"year", strconv.Itoa(v.Year)},
			{"color", v.Color}, {"trim", v.Trim}, {"mileage", strconv.Itoa(v.Mileage)},
			{"condition", v.Condition}, {"auction_grade", v.AuctionGrade}, {"chassis_id", v.ChassisID},
		}
	case editor.SectionShipping:
		s := a.Shipping
		return [][2]string{
			{"vessel_name", s.VesselName}, {"departure_harbour", s.DepartureHarbour},
			{"shipment_date", fmtDate(s.ShipmentDate)}, {"arrival_date", fmtDate(s.ArrivalDate)},
			{"clearing_date", fmtDate(s.ClearingDate)}, {"status", string(s.Status)},
		}
	case editor.SectionPurchase:
		p := a.Purchase
		return [][2]string{
			{"purchase_date", fmtDate(p.PurchaseDate)}, {"lc_cost_jpy", fmtMoney(p.LCCostJPY)},
			{"exchange_rate", p.ExchangeRate.String()}, {"supplier_id", fmtID(p.SupplierID)},
			{"remarks", p.Remarks},
		}
	case editor.SectionFinancials:
		f := a.Financials
		rows := [][2]string{
			{"currency", a.Vehicle.Currency}, {"quoted_price", fmtMoney(a.Vehicle.QuotedPrice)},
			{"auction_price", fmtMoney(a.Vehicle.AuctionPrice)},
			{"tt_lkr", fmtMoney(f.TTLKR)}, {"charges_lkr", fmtMoney(f.ChargesLKR)},
			{"duty_lkr", fmtMoney(f.DutyLKR)}, {"clearing_lkr", fmtMoney(f.ClearingLKR)},
		}
		names := make([]string, 0, len(f.OtherExpenses))
		for name := range f.OtherExpenses {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			rows = append(rows, [2]string{"other_expenses." + name, fmtMoney(f.OtherExpenses[name])})
		}
		return append(rows, [2]string{"total_cost_lkr", fmtMoney(f.TotalCostLKR)})
	case editor.SectionSales:
		s := a.Sales
		return [][2]string{
			{"sale_status", string(s.SaleStatus)}, {"sold_date", fmtDate(s.SoldDate)},
			{"revenue", fmtMoney(s.Revenue)}, {"customer_id", fmtID(s.CustomerID)},
			{"remarks", s.Remarks}, {"profit", fmtMoney(s.Profit)},
		}
	}
	return nil
}
