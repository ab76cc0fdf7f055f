package models

import "time"

type DocumentType string

const (
	DocumentInvoice        DocumentType = "invoice"
	DocumentBillOfLading   DocumentType = "bill_of_lading"
	DocumentExportCert     DocumentType = "export_certificate"
	DocumentAuctionSheet   DocumentType = "auction_sheet"
	DocumentCustomsRelease DocumentType = "customs_release"
	DocumentOther          DocumentType = "other"
)

func (t DocumentType) Valid() bool {
	switch t {
	case DocumentInvoice, DocumentBillOfLading, DocumentExportCert, DocumentAuctionSheet, DocumentCustomsRelease, DocumentOther:
		return true
	}
	return false
}

// VehicleDocument: an uploaded file attached to a vehicle
type VehicleDocument struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	VehicleID   uint         `gorm:"index;not null" json:"vehicle_id"`
	Filename    string       `gorm:"size:255;not null" json:"filename"`
	Type        DocumentType `gorm:"size:30;not null" json:"type"`
	Size        int64        `gorm:"not null" json:"size"` // bytes
	StoragePath string       `gorm:"size:500;not null" json:"-"`
	UploadedAt  time.Time    `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (VehicleDocument) TableName() string { return "vehicle_documents" }

// VehicleImage: at most one image per vehicle has IsPrimary (unique partial index)
type VehicleImage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	VehicleID    uint      `gorm:"index;not null" json:"vehicle_id"`
	Filename     string    `gorm:"size:255;not null" json:"filename"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	IsPrimary    bool      `gorm:"not null;default:false" json:"is_primary"`
	StoragePath  string    `gorm:"size:500;not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (VehicleImage) TableName() string { return "vehicle_images" }
