package editor

import (
	"fmt"
	"strings"
	"time"

	"vehicle-admin/internal/models"
	"vehicle-admin/internal/money"

	"github.com/shopspring/decimal"
)

const otherExpensePrefix = "other_expenses."

// Fields lists the editable field names of a section.
// "other_expenses.<name>" is also accepted for the Financial Summary.
func Fields(s Section) []string {
	switch s {
	case SectionVehicle:
		return []string{"code", "make", "model", "year", "color", "trim", "mileage", "condition", "auction_grade", "chassis_id"}
	case SectionShipping:
		return []string{"vessel_name", "departure_harbour", "shipment_date", "arrival_date", "clearing_date", "status"}
	case SectionPurchase:
		return []string{"purchase_date", "lc_cost_jpy", "exchange_rate", "supplier_id", "remarks"}
	case SectionFinancials:
		return []string{"currency", "quoted_price", "auction_price", "tt_lkr", "charges_lkr", "duty_lkr", "clearing_lkr", "other_expenses"}
	case SectionSales:
		return []string{"sale_status", "sold_date", "revenue", "customer_id", "remarks"}
	}
	return nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

func setField(a *models.VehicleAggregate, s Section, field string, v any) error {
	switch s {
	case SectionVehicle:
		return setVehicleField(&a.Vehicle, field, v)
	case SectionShipping:
		return setShippingField(&a.Shipping, field, v)
	case SectionPurchase:
		return setPurchaseField(&a.Purchase, field, v)
	case SectionFinancials:
		return setFinancialsField(a, field, v)
	case SectionSales:
		return setSalesField(&a.Sales, field, v)
	}
	return fmt.Errorf("%w: %s has no editable fields", ErrUnknownField, s)
}

func setVehicleField(veh *models.Vehicle, field string, v any) error {
	switch field {
	case "code":
		veh.Code = toString(v)
	case "make":
		veh.Make = toString(v)
	case "model":
		veh.Model = toString(v)
	case "year":
		veh.Year = toInt(v)
	case "color":
		veh.Color = toString(v)
	case "trim":
		veh.Trim = toString(v)
	case "mileage":
		veh.Mileage = toInt(v)
	case "condition":
		veh.Condition = toString(v)
	case "auction_grade":
		veh.AuctionGrade = toString(v)
	case "chassis_id":
		veh.ChassisID = strings.ToUpper(toString(v))
	default:
		return fmt.Errorf("%w: vehicle.%s", ErrUnknownField, field)
	}
	return nil
}

func setShippingField(sh *models.VehicleShipping, field string, v any) error {
	var err error
	switch field {
	case "vessel_name":
		sh.VesselName = toString(v)
	case "departure_harbour":
		sh.DepartureHarbour = toString(v)
	case "shipment_date":
		err = setDate(&sh.ShipmentDate, v)
	case "arrival_date":
		err = setDate(&sh.ArrivalDate, v)
	case "clearing_date":
		err = setDate(&sh.ClearingDate, v)
	case "status":
		status := models.ShippingStatus(strings.ToUpper(toString(v)))
		if !status.Valid() {
			return fmt.Errorf("%w: shipping status %q", ErrInvalidValue, status)
		}
		sh.Status = status
	default:
		return fmt.Errorf("%w: shipping.%s", ErrUnknownField, field)
	}
	return err
}

func setPurchaseField(p *models.VehiclePurchase, field string, v any) error {
	var err error
	switch field {
	case "purchase_date":
		err = setDate(&p.PurchaseDate, v)
	case "lc_cost_jpy":
		p.LCCostJPY = money.Coerce(v)
	case "exchange_rate":
		p.ExchangeRate = money.Coerce(v)
	case "supplier_id":
		p.SupplierID = toID(v)
	case "remarks":
		p.Remarks = toString(v)
	default:
		return fmt.Errorf("%w: purchase.%s", ErrUnknownField, field)
	}
	return err
}

// The Financial Summary card also shows the vehicle's price fields.
func setFinancialsField(a *models.VehicleAggregate, field string, v any) error {
	f := &a.Financials

	if name, ok := strings.CutPrefix(field, otherExpensePrefix); ok {
		name = strings.TrimSpace(name)
		if name == "" {
			return fmt.Errorf("%w: empty expense name", ErrInvalidValue)
		}
		f.OtherExpenses = f.OtherExpenses.Clone()
		if v == nil {
			delete(f.OtherExpenses, name)
			return nil
		}
		if f.OtherExpenses == nil {
			f.OtherExpenses = models.OtherExpenses{}
		}
		f.OtherExpenses[name] = money.Coerce(v)
		return nil
	}

	switch field {
	case "currency":
		a.Vehicle.Currency = strings.ToUpper(toString(v))
	case "quoted_price":
		a.Vehicle.QuotedPrice = money.Coerce(v)
	case "auction_price":
		a.Vehicle.AuctionPrice = money.Coerce(v)
	case "tt_lkr":
		f.TTLKR = money.Coerce(v)
	case "charges_lkr":
		f.ChargesLKR = money.Coerce(v)
	case "duty_lkr":
		f.DutyLKR = money.Coerce(v)
	case "clearing_lkr":
		f.ClearingLKR = money.Coerce(v)
	case "other_expenses":
		f.OtherExpenses = toOtherExpenses(v)
	case "total_cost_lkr":
		return fmt.Errorf("%w: financials.total_cost_lkr", ErrReadOnlyField)
	default:
		return fmt.Errorf("%w: financials.%s", ErrUnknownField, field)
	}
	return nil
}

func setSalesField(sa *models.VehicleSales, field string, v any) error {
	var err error
	switch field {
	case "sale_status":
		status := models.SaleStatus(strings.ToUpper(toString(v)))
		if !status.Valid() {
			return fmt.Errorf("%w: sale status %q", ErrInvalidValue, status)
		}
		sa.SaleStatus = status
	case "sold_date":
		err = setDate(&sa.SoldDate, v)
	case "revenue":
		sa.Revenue = money.Coerce(v)
	case "customer_id":
		sa.CustomerID = toID(v)
	case "remarks":
		sa.Remarks = toString(v)
	case "profit":
		return fmt.Errorf("%w: sales.profit", ErrReadOnlyField)
	default:
		return fmt.Errorf("%w: sales.%s", ErrUnknownField, field)
	}
	return err
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case fmt.Stringer:
		return strings.TrimSpace(x.String())
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func toInt(v any) int {
	return int(money.Coerce(v).IntPart())
}

// toID: nil, "", 0 and negatives clear the reference.
func toID(v any) *uint {
	n := money.Coerce(v).IntPart()
	if n <= 0 {
		return nil
	}
	id := uint(n)
	return &id
}

func setDate(dst **time.Time, v any) error {
	t, err := toDate(v)
	if err != nil {
		return err
	}
	*dst = t
	return nil
}

func toDate(v any) (*time.Time, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		if x.IsZero() {
			return nil, nil
		}
		return &x, nil
	case *time.Time:
		if x == nil || x.IsZero() {
			return nil, nil
		}
		t := *x
		return &t, nil
	}

	s := toString(v)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: date %q", ErrInvalidValue, s)
}

func toOtherExpenses(v any) models.OtherExpenses {
	switch x := v.(type) {
	case nil:
		return nil
	case models.OtherExpenses:
		return x.Clone()
	case map[string]decimal.Decimal:
		return models.OtherExpenses(x).Clone()
	case map[string]any:
		out := make(models.OtherExpenses, len(x))
		for k, val := range x {
			out[k] = money.Coerce(val)
		}
		return out
	case map[string]float64:
		out := make(models.OtherExpenses, len(x))
		for k, val := range x {
			out[k] = money.Coerce(val)
		}
		return out
	case map[string]string:
		out := make(models.OtherExpenses, len(x))
		for k, val := range x {
			out[k] = money.Coerce(val)
		}
		return out
	}

	// legacy single amount
	amount := money.Coerce(v)
	if amount.IsZero() {
		return models.OtherExpenses{}
	}
	return models.OtherExpenses{models.LegacyOtherExpenseKey: amount}
}
