package vehicle

import (
	"errors"
	"fmt"
	"log"

	"vehicle-admin/internal/audit"
	"vehicle-admin/internal/auth"
	"vehicle-admin/internal/database"
	"vehicle-admin/internal/models"
	"vehicle-admin/internal/permission"
	"vehicle-admin/internal/repository"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// section describes how one sub-record is replaced by a PUT.
type section[T any] struct {
	entity    string
	title     string
	normalize func(*T) error
	// find loads the current row of the vehicle into dst
	find func(tx *gorm.DB, vehicleID uint, dst *T) error
	// keep copies keys, server-owned fields and whatever actor may not
	// change from cur into next
	keep func(next *T, cur T, actor auth.Actor)
	// check runs extra lookups (referenced supplier, unique code, ...)
	check     func(tx *gorm.DB, vehicleID uint, next *T) error
	entityID  func(T) uint
	recompute bool
}

func findByVehicle[T any](tx *gorm.DB, vehicleID uint, dst *T) error {
	return tx.Where("vehicle_id = ?", vehicleID).First(dst).Error
}

func updateSectionHandler[T any](s section[T]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vehicleID, err := parseID(c, "id")
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var next T
		if err := c.BodyParser(&next); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var saved T
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var cur T
			if err := s.find(tx, vehicleID, &cur); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Vehicle not found")
				}
				return err
			}
			s.keep(&next, cur, actor)
			if err := s.normalize(&next); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}

			if s.check != nil {
				if err := s.check(tx, vehicleID, &next); err != nil {
					return err
				}
			}
			if err := tx.Save(&next).Error; err != nil {
				return err
			}
			if s.recompute {
				if err := repository.RecomputeTotals(tx, vehicleID); err != nil {
					return err
				}
			}
			if err := s.find(tx, vehicleID, &saved); err != nil {
				return err
			}

			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  s.entity,
				EntityID:    s.entityID(saved),
				VehicleID:   &vehicleID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("%s updated", s.title),
				Before:      cur,
				After:       saved,
			})
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			log.Printf("%s update failed for vehicle %d: %v", s.title, vehicleID, err)
			return fiber.NewError(fiber.StatusInternalServerError, s.title+" could not be saved")
		}

		return c.JSON(saved)
	}
}

// PUT /api/vehicles/:id/vehicle
// Callers without vehicle.update reach this route through the Financial
// Summary and may only change the currency and prices.
func UpdateVehicleHandler() fiber.Handler {
	return updateSectionHandler(section[models.Vehicle]{
		entity:    audit.EntityVehicle,
		title:     "Vehicle details",
		normalize: NormalizeVehicle,
		find: func(tx *gorm.DB, id uint, dst *models.Vehicle) error {
			return tx.First(dst, id).Error
		},
		keep: func(next *models.Vehicle, cur models.Vehicle, actor auth.Actor) {
			if !permission.Has(actor.Permissions, permission.VehicleUpdate) {
				priced := cur
				priced.Currency = next.Currency
				priced.QuotedPrice = next.QuotedPrice
				priced.AuctionPrice = next.AuctionPrice
				*next = priced
			}
			next.ID = cur.ID
			next.CreatedAt = cur.CreatedAt
		},
		check: func(tx *gorm.DB, id uint, next *models.Vehicle) error {
			return ensureUniqueCode(tx, next.Code, id)
		},
		entityID: func(v models.Vehicle) uint { return v.ID },
	})
}

// PUT /api/vehicles/:id/shipping
func UpdateShippingHandler() fiber.Handler {
	return updateSectionHandler(section[models.VehicleShipping]{
		entity:    audit.EntityShipping,
		title:     "Shipping",
		normalize: NormalizeShipping,
		find:      findByVehicle[models.VehicleShipping],
		keep: func(next *models.VehicleShipping, cur models.VehicleShipping, _ auth.Actor) {
			next.ID, next.VehicleID = cur.ID, cur.VehicleID
		},
		entityID: func(s models.VehicleShipping) uint { return s.ID },
	})
}

// PUT /api/vehicles/:id/purchase
func UpdatePurchaseHandler() fiber.Handler {
	return updateSectionHandler(section[models.VehiclePurchase]{
		entity:    audit.EntityPurchase,
		title:     "Purchase",
		normalize: NormalizePurchase,
		find:      findByVehicle[models.VehiclePurchase],
		keep: func(next *models.VehiclePurchase, cur models.VehiclePurchase, _ auth.Actor) {
			next.ID, next.VehicleID = cur.ID, cur.VehicleID
		},
		check: func(tx *gorm.DB, _ uint, next *models.VehiclePurchase) error {
			if next.SupplierID == nil {
				return nil
			}
			return ensureExists(tx, &models.Supplier{}, *next.SupplierID, "Supplier")
		},
		entityID:  func(p models.VehiclePurchase) uint { return p.ID },
		recompute: true,
	})
}

// PUT /api/vehicles/:id/financials
// total_cost_lkr in the body is ignored; it is derived.
func UpdateFinancialsHandler() fiber.Handler {
	return updateSectionHandler(section[models.VehicleFinancials]{
		entity:    audit.EntityFinancials,
		title:     "Financials",
		normalize: NormalizeFinancials,
		find:      findByVehicle[models.VehicleFinancials],
		keep: func(next *models.VehicleFinancials, cur models.VehicleFinancials, _ auth.Actor) {
			next.ID, next.VehicleID = cur.ID, cur.VehicleID
			next.TotalCostLKR = cur.TotalCostLKR
		},
		entityID:  func(f models.VehicleFinancials) uint { return f.ID },
		recompute: true,
	})
}

// PUT /api/vehicles/:id/sales
// profit in the body is ignored; it is derived.
func UpdateSalesHandler() fiber.Handler {
	return updateSectionHandler(section[models.VehicleSales]{
		entity:    audit.EntitySales,
		title:     "Sales",
		normalize: NormalizeSales,
		find:      findByVehicle[models.VehicleSales],
		keep: func(next *models.VehicleSales, cur models.VehicleSales, _ auth.Actor) {
			next.ID, next.VehicleID = cur.ID, cur.VehicleID
			next.Profit = cur.Profit
		},
		check: func(tx *gorm.DB, _ uint, next *models.VehicleSales) error {
			if next.CustomerID == nil {
				return nil
			}
			return ensureExists(tx, &models.Customer{}, *next.CustomerID, "Customer")
		},
		entityID:  func(s models.VehicleSales) uint { return s.ID },
		recompute: true,
	})
}

func ensureExists(tx *gorm.DB, model any, id uint, name string) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s %d does not exist", name, id))
	}
	return nil
}

func ensureUniqueCode(tx *gorm.DB, code string, exceptID uint) error {
	var count int64
	if err := tx.Model(&models.Vehicle{}).Where("code = ? AND id <> ?", code, exceptID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Vehicle code %s is already used", code))
	}
	return nil
}

func parseID(c *fiber.Ctx, param string) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params(param), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+param)
	}
	return id, nil
}
