package models

import "time"

// Customer: buyer of a vehicle, referenced by VehicleSales.CustomerID
type Customer struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:200;not null"`
	Phone     string `gorm:"size:50"`
	Email     string `gorm:"size:100"`
	Address   string `gorm:"size:500"`
	NIC       string `gorm:"column:nic;size:20;index"` // national identity card no.
	Notes     string `gorm:"size:1000"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Supplier: auction house or exporter, referenced by VehiclePurchase.SupplierID
type Supplier struct {
	ID            uint   `gorm:"primaryKey"`
	Name          string `gorm:"size:200;not null;unique"`
	Country       string `gorm:"size:100"`
	ContactPerson string `gorm:"size:100"`
	Phone         string `gorm:"size:50"`
	Email         string `gorm:"size:100"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
