package vehicle

import (
	"fmt"
	"strings"
	"time"

	"vehicle-admin/internal/models"

	"github.com/shopspring/decimal"
)

// ValidationError is returned to the client as a 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func nonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return invalid(field, "must not be negative")
	}
	return nil
}

func utcDate(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	u := t.UTC().Truncate(time.Second)
	return &u
}

// NormalizeVehicle trims and upper-cases identifiers and fills the default currency.
func NormalizeVehicle(v *models.Vehicle) error {
	v.Code = strings.TrimSpace(v.Code)
	v.Make = strings.TrimSpace(v.Make)
	v.Model = strings.TrimSpace(v.Model)
	v.Color = strings.TrimSpace(v.Color)
	v.Trim = strings.TrimSpace(v.Trim)
	v.Condition = strings.TrimSpace(v.Condition)
	v.AuctionGrade = strings.TrimSpace(v.AuctionGrade)
	v.ChassisID = strings.ToUpper(strings.TrimSpace(v.ChassisID))
	v.Currency = strings.ToUpper(strings.TrimSpace(v.Currency))
	if v.Currency == "" {
		v.Currency = "JPY"
	}

	switch {
	case v.Code == "":
		return invalid("code", "is required")
	case v.Make == "":
		return invalid("make", "is required")
	case v.Model == "":
		return invalid("model", "is required")
	case v.Year != 0 && (v.Year < 1950 || v.Year > time.Now().Year()+1):
		return invalid("year", "%d is out of range", v.Year)
	case v.Mileage < 0:
		return invalid("mileage", "must not be negative")
	case len(v.Currency) != 3:
		return invalid("currency", "must be a 3-letter code")
	}
	if err := nonNegative("quoted_price", v.QuotedPrice); err != nil {
		return err
	}
	return nonNegative("auction_price", v.AuctionPrice)
}

func NormalizeShipping(s *models.VehicleShipping) error {
	s.VesselName = strings.TrimSpace(s.VesselName)
	s.DepartureHarbour = strings.TrimSpace(s.DepartureHarbour)
	s.Status = models.ShippingStatus(strings.ToUpper(string(s.Status)))
	if s.Status == "" {
		s.Status = models.ShippingProcessing
	}
	if !s.Status.Valid() {
		return invalid("status", "unknown shipping status %q", s.Status)
	}

	s.ShipmentDate = utcDate(s.ShipmentDate)
	s.ArrivalDate = utcDate(s.ArrivalDate)
	s.ClearingDate = utcDate(s.ClearingDate)
	if s.ShipmentDate != nil && s.ArrivalDate != nil && s.ArrivalDate.Before(*s.ShipmentDate) {
		return invalid("arrival_date", "is before the shipment date")
	}
	if s.ArrivalDate != nil && s.ClearingDate != nil && s.ClearingDate.Before(*s.ArrivalDate) {
		return invalid("clearing_date", "is before the arrival date")
	}
	return nil
}

func NormalizePurchase(p *models.VehiclePurchase) error {
	p.PurchaseDate = utcDate(p.PurchaseDate)
	p.Remarks = strings.TrimSpace(p.Remarks)
	if p.SupplierID != nil && *p.SupplierID == 0 {
		p.SupplierID = nil
	}
	if err := nonNegative("lc_cost_jpy", p.LCCostJPY); err != nil {
		return err
	}
	return nonNegative("exchange_rate", p.ExchangeRate)
}

func NormalizeFinancials(f *models.VehicleFinancials) error {
	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"tt_lkr", f.TTLKR},
		{"charges_lkr", f.ChargesLKR},
		{"duty_lkr", f.DutyLKR},
		{"clearing_lkr", f.ClearingLKR},
	}
	for _, a := range amounts {
		if err := nonNegative(a.field, a.value); err != nil {
			return err
		}
	}

	cleaned := make(models.OtherExpenses, len(f.OtherExpenses))
	for name, amount := range f.OtherExpenses {
		name = strings.TrimSpace(name)
		if name == "" {
			return invalid("other_expenses", "expense name is empty")
		}
		if err := nonNegative("other_expenses."+name, amount); err != nil {
			return err
		}
		cleaned[name] = amount
	}
	f.OtherExpenses = cleaned
	return nil
}

func NormalizeSales(s *models.VehicleSales) error {
	s.SaleStatus = models.SaleStatus(strings.ToUpper(string(s.SaleStatus)))
	if s.SaleStatus == "" {
		s.SaleStatus = models.SaleAvailable
	}
	if !s.SaleStatus.Valid() {
		return invalid("sale_status", "unknown sale status %q", s.SaleStatus)
	}
	s.SoldDate = utcDate(s.SoldDate)
	s.Remarks = strings.TrimSpace(s.Remarks)
	if s.CustomerID != nil && *s.CustomerID == 0 {
		s.CustomerID = nil
	}
	return nonNegative("revenue", s.Revenue)
}
