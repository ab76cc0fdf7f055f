package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vehicle: identity and build details of an imported vehicle
type Vehicle struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	Code         string          `gorm:"size:50;uniqueIndex;not null" json:"code"` // internal stock code
	Make         string          `gorm:"size:100;not null" json:"make"`
	Model        string          `gorm:"size:100;not null" json:"model"`
	Year         int             `json:"year"`
	Color        string          `gorm:"size:50" json:"color"`
	Trim         string          `gorm:"size:100" json:"trim"`
	Mileage      int             `json:"mileage"` // km
	Condition    string          `gorm:"size:50" json:"condition"`
	AuctionGrade string          `gorm:"size:20" json:"auction_grade"`
	ChassisID    string          `gorm:"size:50;index" json:"chassis_id"`
	Currency     string          `gorm:"size:3;default:'JPY'" json:"currency"`
	QuotedPrice  decimal.Decimal `gorm:"type:numeric(16,2);not null;default:0" json:"quoted_price"`
	AuctionPrice decimal.Decimal `gorm:"type:numeric(16,2);not null;default:0" json:"auction_price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Vehicle) TableName() string { return "vehicles" }

type ShippingStatus string

const (
	ShippingProcessing ShippingStatus = "PROCESSING"
	ShippingShipped    ShippingStatus = "SHIPPED"
	ShippingArrived    ShippingStatus = "ARRIVED"
	ShippingCleared    ShippingStatus = "CLEARED"
	ShippingDelivered  ShippingStatus = "DELIVERED"
)

func (s ShippingStatus) Valid() bool {
	switch s {
	case ShippingProcessing, ShippingShipped, ShippingArrived, ShippingCleared, ShippingDelivered:
		return true
	}
	return false
}

// VehicleShipping: vessel and port-side dates
type VehicleShipping struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	VehicleID        uint           `gorm:"uniqueIndex;not null" json:"vehicle_id"`
	VesselName       string         `gorm:"size:100" json:"vessel_name"`
	DepartureHarbour string         `gorm:"size:100" json:"departure_harbour"`
	ShipmentDate     *time.Time     `json:"shipment_date"`
	ArrivalDate      *time.Time     `json:"arrival_date"`
	ClearingDate     *time.Time     `json:"clearing_date"`
	Status           ShippingStatus `gorm:"size:20;not null;default:'PROCESSING';index" json:"status"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (VehicleShipping) TableName() string { return "vehicle_shipping" }

// VehiclePurchase: LC cost is in JPY, converted with ExchangeRate (LKR per JPY)
type VehiclePurchase struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	VehicleID    uint            `gorm:"uniqueIndex;not null" json:"vehicle_id"`
	PurchaseDate *time.Time      `json:"purchase_date"`
	LCCostJPY    decimal.Decimal `gorm:"column:lc_cost_jpy;type:numeric(16,2);not null;default:0" json:"lc_cost_jpy"`
	ExchangeRate decimal.Decimal `gorm:"type:numeric(12,6);not null;default:0" json:"exchange_rate"`
	SupplierID   *uint           `gorm:"index" json:"supplier_id"`
	Remarks      string          `gorm:"size:1000" json:"remarks"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (VehiclePurchase) TableName() string { return "vehicle_purchases" }

// VehicleFinancials: local charges in LKR; TotalCostLKR is derived
type VehicleFinancials struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	VehicleID     uint            `gorm:"uniqueIndex;not null" json:"vehicle_id"`
	TTLKR         decimal.Decimal `gorm:"column:tt_lkr;type:numeric(16,2);not null;default:0" json:"tt_lkr"`
	ChargesLKR    decimal.Decimal `gorm:"column:charges_lkr;type:numeric(16,2);not null;default:0" json:"charges_lkr"`
	DutyLKR       decimal.Decimal `gorm:"column:duty_lkr;type:numeric(16,2);not null;default:0" json:"duty_lkr"`
	ClearingLKR   decimal.Decimal `gorm:"column:clearing_lkr;type:numeric(16,2);not null;default:0" json:"clearing_lkr"`
	OtherExpenses OtherExpenses   `gorm:"type:jsonb" json:"other_expenses"`
	TotalCostLKR  decimal.Decimal `gorm:"column:total_cost_lkr;type:numeric(16,2);not null;default:0" json:"total_cost_lkr"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (VehicleFinancials) TableName() string { return "vehicle_financials" }

type SaleStatus string

const (
	SaleAvailable SaleStatus = "AVAILABLE"
	SaleSold      SaleStatus = "SOLD"
	SaleReserved  SaleStatus = "RESERVED"
)

func (s SaleStatus) Valid() bool {
	switch s {
	case SaleAvailable, SaleSold, SaleReserved:
		return true
	}
	return false
}

// VehicleSales: Profit is derived from Revenue and the financials total
type VehicleSales struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	VehicleID  uint            `gorm:"uniqueIndex;not null" json:"vehicle_id"`
	SaleStatus SaleStatus      `gorm:"size:20;not null;default:'AVAILABLE';index" json:"sale_status"`
	SoldDate   *time.Time      `json:"sold_date"`
	Revenue    decimal.Decimal `gorm:"type:numeric(16,2);not null;default:0" json:"revenue"`
	Profit     decimal.Decimal `gorm:"type:numeric(16,2);not null;default:0" json:"profit"`
	CustomerID *uint           `gorm:"index" json:"customer_id"`
	Remarks    string          `gorm:"size:1000" json:"remarks"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (VehicleSales) TableName() string { return "vehicle_sales" }

// VehicleAggregate: the whole record as the dashboard fetches it.
// Each part is persisted through its own endpoint.
type VehicleAggregate struct {
	Vehicle    Vehicle           `json:"vehicle"`
	Shipping   VehicleShipping   `json:"shipping"`
	Purchase   VehiclePurchase   `json:"purchase"`
	Financials VehicleFinancials `json:"financials"`
	Sales      VehicleSales      `json:"sales"`
	Documents  []VehicleDocument `json:"documents"`
	Images     []VehicleImage    `json:"images"`
}

// Clone returns a copy that shares no maps, slices or pointers with a.
func (a VehicleAggregate) Clone() VehicleAggregate {
	out := a

	out.Shipping.ShipmentDate = cloneTime(a.Shipping.ShipmentDate)
	out.Shipping.ArrivalDate = cloneTime(a.Shipping.ArrivalDate)
	out.Shipping.ClearingDate = cloneTime(a.Shipping.ClearingDate)

	out.Purchase.PurchaseDate = cloneTime(a.Purchase.PurchaseDate)
	out.Purchase.SupplierID = cloneUint(a.Purchase.SupplierID)

	out.Financials.OtherExpenses = a.Financials.OtherExpenses.Clone()

	out.Sales.SoldDate = cloneTime(a.Sales.SoldDate)
	out.Sales.CustomerID = cloneUint(a.Sales.CustomerID)

	if a.Documents != nil {
		out.Documents = append([]VehicleDocument(nil), a.Documents...)
	}
	if a.Images != nil {
		out.Images = append([]VehicleImage(nil), a.Images...)
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneUint(u *uint) *uint {
	if u == nil {
		return nil
	}
	v := *u
	return &v
}
