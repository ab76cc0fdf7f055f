package vehicle

import (
	"errors"
	"log"
	"strings"

	"vehicle-admin/internal/audit"
	"vehicle-admin/internal/auth"
	"vehicle-admin/internal/database"
	"vehicle-admin/internal/models"
	"vehicle-admin/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// FileRemover deletes stored media files.
type FileRemover interface {
	Remove(path string) error
}

type ListItem struct {
	ID             uint            `json:"id"`
	Code           string          `json:"code"`
	Make           string          `json:"make"`
	Model          string          `json:"model"`
	Year           int             `json:"year"`
	ChassisID      string          `json:"chassis_id"`
	ShippingStatus string          `json:"shipping_status"`
	SaleStatus     string          `json:"sale_status"`
	TotalCostLKR   decimal.Decimal `json:"total_cost_lkr"`
	Revenue        decimal.Decimal `json:"revenue"`
	Profit         decimal.Decimal `json:"profit"`
	PrimaryImageID *uint           `json:"primary_image_id"`
}

type ListResponse struct {
	Items    []ListItem `json:"items"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

func listQuery(c *fiber.Ctx) *gorm.DB {
	q := database.DB.Table("vehicles v").
		Joins("LEFT JOIN vehicle_shipping s ON s.vehicle_id = v.id").
		Joins("LEFT JOIN vehicle_financials f ON f.vehicle_id = v.id").
		Joins("LEFT JOIN vehicle_sales sa ON sa.vehicle_id = v.id")

	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		like := "%" + search + "%"
		q = q.Where("LOWER(v.code) LIKE ? OR LOWER(v.make) LIKE ? OR LOWER(v.model) LIKE ? OR LOWER(v.chassis_id) LIKE ?",
			like, like, like, like)
	}
	if st := strings.ToUpper(c.Query("shipping_status")); st != "" {
		q = q.Where("s.status = ?", st)
	}
	if st := strings.ToUpper(c.Query("sale_status")); st != "" {
		q = q.Where("sa.sale_status = ?", st)
	}
	return q
}

// GET /api/vehicles?search=aqua&shipping_status=SHIPPED&sale_status=AVAILABLE&page=1&page_size=20
func ListVehiclesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		page := c.QueryInt("page", 1)
		if page < 1 {
			page = 1
		}
		pageSize := c.QueryInt("page_size", 20)
		if pageSize < 1 || pageSize > 100 {
			pageSize = 20
		}

		var total int64
		if err := listQuery(c).Count(&total).Error; err != nil {
			log.Println("vehicle count failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Vehicles could not be listed")
		}

		items := []ListItem{}
		err := listQuery(c).
			Select(`v.id, v.code, v.make, v.model, v.year, v.chassis_id,
				COALESCE(s.status, '') AS shipping_status,
				COALESCE(sa.sale_status, '') AS sale_status,
				COALESCE(f.total_cost_lkr, 0) AS total_cost_lkr,
				COALESCE(sa.revenue, 0) AS revenue,
				COALESCE(sa.profit, 0) AS profit`).
			Order("v.id DESC").
			Offset((page - 1) * pageSize).
			Limit(pageSize).
			Scan(&items).Error
		if err != nil {
			log.Println("vehicle list failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Vehicles could not be listed")
		}

		if len(items) > 0 {
			ids := make([]uint, len(items))
			for i, it := range items {
				ids[i] = it.ID
			}
			var primaries []models.VehicleImage
			database.DB.Where("vehicle_id IN ? AND is_primary = ?", ids, true).Find(&primaries)
			byVehicle := make(map[uint]uint, len(primaries))
			for _, img := range primaries {
				byVehicle[img.VehicleID] = img.ID
			}
			for i := range items {
				if id, ok := byVehicle[items[i].ID]; ok {
					items[i].PrimaryImageID = &id
				}
			}
		}

		return c.JSON(ListResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
	}
}

// POST /api/vehicles
func CreateVehicleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var v models.Vehicle
		if err := c.BodyParser(&v); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		v.ID = 0
		if err := NormalizeVehicle(&v); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var agg models.VehicleAggregate
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := ensureUniqueCode(tx, v.Code, 0); err != nil {
				return err
			}
			if err := repository.CreateVehicle(tx, &v); err != nil {
				return err
			}
			var err error
			if agg, err = repository.LoadAggregate(tx, v.ID); err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  audit.EntityVehicle,
				EntityID:    v.ID,
				VehicleID:   &v.ID,
				Action:      models.AuditActionCreate,
				Description: "Vehicle " + v.Code + " created",
				After:       agg.Vehicle,
			})
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			log.Println("vehicle create failed:", err)
			return fiber.NewError(fiber.StatusInternalServerError, "Vehicle could not be created")
		}

		return c.Status(fiber.StatusCreated).JSON(agg)
	}
}

// GET /api/vehicles/:id
func GetVehicleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		agg, err := repository.LoadAggregate(database.DB, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Vehicle not found")
			}
			log.Printf("vehicle %d load failed: %v", id, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Vehicle could not be loaded")
		}
		return c.JSON(agg)
	}
}

// DELETE /api/vehicles/:id
// Stored files are removed after the rows are gone.
func DeleteVehicleHandler(files FileRemover) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var paths []string
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			agg, err := repository.LoadAggregate(tx, id)
			if err != nil {
				return err
			}
			if paths, err = repository.DeleteVehicle(tx, id); err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  audit.EntityVehicle,
				EntityID:    id,
				VehicleID:   &id,
				Action:      models.AuditActionDelete,
				Description: "Vehicle " + agg.Vehicle.Code + " deleted",
				Before:      agg,
			})
		})
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Vehicle not found")
			}
			log.Printf("vehicle %d delete failed: %v", id, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Vehicle could not be deleted")
		}

		for _, p := range paths {
			if err := files.Remove(p); err != nil {
				log.Printf("file %s of vehicle %d could not be removed: %v", p, id, err)
			}
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
