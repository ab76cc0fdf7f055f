package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"vehicle-admin/internal/models"
	"vehicle-admin/internal/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entity types written to audit_logs.entity_type.
const (
	EntityVehicle    = "vehicle"
	EntityShipping   = "vehicle_shipping"
	EntityPurchase   = "vehicle_purchase"
	EntityFinancials = "vehicle_financials"
	EntitySales      = "vehicle_sales"
	EntityDocument   = "vehicle_document"
	EntityImage      = "vehicle_image"
	EntityCustomer   = "customer"
	EntitySupplier   = "supplier"
	EntityUser       = "user"
)

var ErrAlreadyUndone = errors.New("this action has already been undone")

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	VehicleID   *uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// WriteLog stores one audit entry on db (pass the transaction of the change).
func WriteLog(db *gorm.DB, opts LogOptions) error {
	before, err := toJSON(opts.Before)
	if err != nil {
		return fmt.Errorf("audit before data: %w", err)
	}
	after, err := toJSON(opts.After)
	if err != nil {
		return fmt.Errorf("audit after data: %w", err)
	}

	entry := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		VehicleID:   opts.VehicleID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  before,
		AfterData:   after,
	}

	if err := db.Create(&entry).Error; err != nil {
		return fmt.Errorf("audit log could not be saved: %w", err)
	}
	return nil
}

// jsonb needs "null" rather than an empty value
func toJSON(v any) (datatypes.JSON, error) {
	if v == nil {
		return datatypes.JSON("null"), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// UndoLog reverts one audit entry and records the undo as a new entry.
func UndoLog(db *gorm.DB, logID uint, userID uint, userName string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var entry models.AuditLog
		if err := tx.First(&entry, "id = ?", logID).Error; err != nil {
			return fmt.Errorf("log not found: %w", err)
		}
		if entry.IsUndone {
			return ErrAlreadyUndone
		}

		switch entry.Action {
		case models.AuditActionCreate:
			if err := deleteEntity(tx, entry.EntityType, entry.EntityID); err != nil {
				return fmt.Errorf("entity could not be deleted: %w", err)
			}
		case models.AuditActionUpdate:
			if err := restoreEntity(tx, entry.EntityType, entry.EntityID, entry.BeforeData); err != nil {
				return fmt.Errorf("entity could not be restored: %w", err)
			}
		case models.AuditActionDelete:
			if err := recreateEntity(tx, entry.EntityType, entry.BeforeData); err != nil {
				return fmt.Errorf("entity could not be recreated: %w", err)
			}
		default:
			return fmt.Errorf("%s actions cannot be undone", entry.Action)
		}

		if entry.VehicleID != nil {
			if err := repository.RecomputeTotals(tx, *entry.VehicleID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
		}

		now := time.Now()
		entry.IsUndone = true
		entry.UndoneBy = &userID
		entry.UndoneAt = &now
		if err := tx.Save(&entry).Error; err != nil {
			return fmt.Errorf("log could not be updated: %w", err)
		}

		undo := models.AuditLog{
			UserID:      userID,
			UserName:    userName,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			VehicleID:   entry.VehicleID,
			Action:      models.AuditActionUndo,
			Description: fmt.Sprintf("Undone: %s", entry.Description),
			BeforeData:  entry.AfterData,
			AfterData:   entry.BeforeData,
		}
		if err := tx.Create(&undo).Error; err != nil {
			return fmt.Errorf("undo log could not be saved: %w", err)
		}
		return nil
	})
}

func deleteEntity(tx *gorm.DB, entityType string, entityID uint) error {
	switch entityType {
	case EntityCustomer:
		return tx.Delete(&models.Customer{}, "id = ?", entityID).Error
	case EntitySupplier:
		return tx.Delete(&models.Supplier{}, "id = ?", entityID).Error
	case EntityVehicle:
		_, err := repository.DeleteVehicle(tx, entityID)
		return err
	default:
		return fmt.Errorf("%s entries cannot be undone", entityType)
	}
}

func recreateEntity(tx *gorm.DB, entityType string, data datatypes.JSON) error {
	switch entityType {
	case EntityCustomer:
		var c models.Customer
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		return tx.Create(&c).Error
	case EntitySupplier:
		var s models.Supplier
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return tx.Create(&s).Error
	default:
		return fmt.Errorf("deleted %s entries cannot be restored", entityType)
	}
}

// restoreEntity writes the before-image back over the current row, keeping
// its primary key and vehicle link.
func restoreEntity(tx *gorm.DB, entityType string, entityID uint, data datatypes.JSON) error {
	switch entityType {
	case EntityVehicle:
		var v models.Vehicle
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		v.ID = entityID
		return tx.Save(&v).Error
	case EntityShipping:
		var s models.VehicleShipping
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s.ID = entityID
		return tx.Save(&s).Error
	case EntityPurchase:
		var p models.VehiclePurchase
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		p.ID = entityID
		return tx.Save(&p).Error
	case EntityFinancials:
		var f models.VehicleFinancials
		if err := json.Unmarshal(data, &f); err != nil {
			return err
		}
		f.ID = entityID
		return tx.Save(&f).Error
	case EntitySales:
		var s models.VehicleSales
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s.ID = entityID
		return tx.Save(&s).Error
	case EntityCustomer:
		var c models.Customer
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		c.ID = entityID
		return tx.Save(&c).Error
	case EntitySupplier:
		var s models.Supplier
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s.ID = entityID
		return tx.Save(&s).Error
	default:
		return fmt.Errorf("%s entries cannot be undone", entityType)
	}
}
