// Package repository loads and stores the vehicle aggregate. Functions take
// the *gorm.DB to run on so callers can pass a transaction.
package repository

import (
	"errors"
	"fmt"

	"vehicle-admin/internal/costing"
	"vehicle-admin/internal/models"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// LoadAggregate reads the vehicle and every sub-record. Missing sub-records
// come back empty with VehicleID set.
func LoadAggregate(db *gorm.DB, vehicleID uint) (models.VehicleAggregate, error) {
	var a models.VehicleAggregate

	if err := db.First(&a.Vehicle, vehicleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a, ErrNotFound
		}
		return a, fmt.Errorf("load vehicle %d: %w", vehicleID, err)
	}

	sections := []any{&a.Shipping, &a.Purchase, &a.Financials, &a.Sales}
	for _, dst := range sections {
		err := db.Where("vehicle_id = ?", vehicleID).Limit(1).Find(dst).Error
		if err != nil {
			return a, fmt.Errorf("load vehicle %d: %w", vehicleID, err)
		}
	}
	a.Shipping.VehicleID = vehicleID
	a.Purchase.VehicleID = vehicleID
	a.Financials.VehicleID = vehicleID
	a.Sales.VehicleID = vehicleID

	a.Documents = []models.VehicleDocument{}
	if err := db.Where("vehicle_id = ?", vehicleID).Order("uploaded_at, id").Find(&a.Documents).Error; err != nil {
		return a, fmt.Errorf("load documents: %w", err)
	}
	a.Images = []models.VehicleImage{}
	if err := db.Where("vehicle_id = ?", vehicleID).Order("display_order, id").Find(&a.Images).Error; err != nil {
		return a, fmt.Errorf("load images: %w", err)
	}
	return a, nil
}

// CreateVehicle inserts v with empty sub-records (PROCESSING, AVAILABLE).
func CreateVehicle(tx *gorm.DB, v *models.Vehicle) error {
	if err := tx.Create(v).Error; err != nil {
		return err
	}
	records := []any{
		&models.VehicleShipping{VehicleID: v.ID, Status: models.ShippingProcessing},
		&models.VehiclePurchase{VehicleID: v.ID},
		&models.VehicleFinancials{VehicleID: v.ID, OtherExpenses: models.OtherExpenses{}},
		&models.VehicleSales{VehicleID: v.ID, SaleStatus: models.SaleAvailable},
	}
	for _, r := range records {
		if err := tx.Create(r).Error; err != nil {
			return err
		}
	}
	return nil
}

// RecomputeTotals stores total_cost_lkr and profit derived from the current
// purchase, financials and sales rows.
func RecomputeTotals(tx *gorm.DB, vehicleID uint) error {
	a, err := LoadAggregate(tx, vehicleID)
	if err != nil {
		return err
	}
	a = costing.Recompute(a)

	if err := tx.Model(&models.VehicleFinancials{}).
		Where("vehicle_id = ?", vehicleID).
		Update("total_cost_lkr", a.Financials.TotalCostLKR).Error; err != nil {
		return fmt.Errorf("update total cost: %w", err)
	}
	if err := tx.Model(&models.VehicleSales{}).
		Where("vehicle_id = ?", vehicleID).
		Update("profit", a.Sales.Profit).Error; err != nil {
		return fmt.Errorf("update profit: %w", err)
	}
	return nil
}

// DeleteVehicle removes the vehicle and everything attached to it and
// returns the storage paths of its files so the caller can remove them.
func DeleteVehicle(tx *gorm.DB, vehicleID uint) ([]string, error) {
	var paths []string

	var docs []models.VehicleDocument
	if err := tx.Where("vehicle_id = ?", vehicleID).Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	for _, d := range docs {
		paths = append(paths, d.StoragePath)
	}
	var images []models.VehicleImage
	if err := tx.Where("vehicle_id = ?", vehicleID).Find(&images).Error; err != nil {
		return nil, fmt.Errorf("load images: %w", err)
	}
	for _, img := range images {
		paths = append(paths, img.StoragePath)
	}

	children := []any{
		&models.VehicleDocument{}, &models.VehicleImage{},
		&models.VehicleShipping{}, &models.VehiclePurchase{},
		&models.VehicleFinancials{}, &models.VehicleSales{},
	}
	for _, m := range children {
		if err := tx.Where("vehicle_id = ?", vehicleID).Delete(m).Error; err != nil {
			return nil, err
		}
	}

	res := tx.Delete(&models.Vehicle{}, vehicleID)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return paths, nil
}

// NextDisplayOrder is one past the highest display order of the vehicle's images.
func NextDisplayOrder(tx *gorm.DB, vehicleID uint) (int, error) {
	var max int64
	err := tx.Model(&models.VehicleImage{}).
		Where("vehicle_id = ?", vehicleID).
		Select("COALESCE(MAX(display_order), -1)").
		Row().Scan(&max)
	if err != nil {
		return 0, err
	}
	return int(max) + 1, nil
}

// SetPrimaryImage clears the primary flag of the vehicle's images and sets it
// on imageID. Run it inside a transaction.
func SetPrimaryImage(tx *gorm.DB, vehicleID, imageID uint) error {
	var img models.VehicleImage
	if err := tx.Where("id = ? AND vehicle_id = ?", imageID, vehicleID).First(&img).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := tx.Model(&models.VehicleImage{}).
		Where("vehicle_id = ? AND is_primary = ?", vehicleID, true).
		Update("is_primary", false).Error; err != nil {
		return err
	}
	return tx.Model(&img).Update("is_primary", true).Error
}
