// Package contacts manages the customers and suppliers that vehicle sales
// and purchases point at.
package contacts

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"vehicle-admin/internal/audit"
	"vehicle-admin/internal/auth"
	"vehicle-admin/internal/database"
	"vehicle-admin/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

type CustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	NIC     string `json:"nic"`
	Notes   string `json:"notes"`
}

type CustomerResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	NIC       string `json:"nic"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type SupplierRequest struct {
	Name          string `json:"name"`
	Country       string `json:"country"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
}

type SupplierResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Country       string `json:"country"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toCustomerResponse(c models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
		NIC:       c.NIC,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}

func toSupplierResponse(s models.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:            s.ID,
		Name:          s.Name,
		Country:       s.Country,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Email:         s.Email,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     s.UpdatedAt.Format(time.RFC3339),
	}
}

func (r *CustomerRequest) apply(c *models.Customer) error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Name is required")
	}
	email := strings.ToLower(strings.TrimSpace(r.Email))
	if email != "" && !strings.Contains(email, "@") {
		return fiber.NewError(fiber.StatusBadRequest, "Email is not valid")
	}
	c.Name = name
	c.Phone = strings.TrimSpace(r.Phone)
	c.Email = email
	c.Address = strings.TrimSpace(r.Address)
	c.NIC = strings.ToUpper(strings.TrimSpace(r.NIC))
	c.Notes = strings.TrimSpace(r.Notes)
	return nil
}

func (r *SupplierRequest) apply(s *models.Supplier) error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Name is required")
	}
	email := strings.ToLower(strings.TrimSpace(r.Email))
	if email != "" && !strings.Contains(email, "@") {
		return fiber.NewError(fiber.StatusBadRequest, "Email is not valid")
	}
	s.Name = name
	s.Country = strings.TrimSpace(r.Country)
	s.ContactPerson = strings.TrimSpace(r.ContactPerson)
	s.Phone = strings.TrimSpace(r.Phone)
	s.Email = email
	return nil
}

func parseID(c *fiber.Ctx) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params("id"), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return id, nil
}

func failed(err error, msg string) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	log.Println(msg+":", err)
	return fiber.NewError(fiber.StatusInternalServerError, msg)
}

func writeLog(tx *gorm.DB, actor auth.Actor, entity string, id uint, action models.AuditAction, desc string, before, after any) error {
	return audit.WriteLog(tx, audit.LogOptions{
		UserID:      actor.ID,
		UserName:    actor.Name,
		EntityType:  entity,
		EntityID:    id,
		Action:      action,
		Description: desc,
		Before:      before,
		After:       after,
	})
}

// -------------------------
// Customers
// -------------------------

// GET /api/customers?search=...
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Model(&models.Customer{})
		if s := strings.ToLower(strings.TrimSpace(c.Query("search"))); s != "" {
			like := "%" + s + "%"
			q = q.Where("LOWER(name) LIKE ? OR LOWER(phone) LIKE ? OR LOWER(nic) LIKE ?", like, like, like)
		}

		var customers []models.Customer
		if err := q.Order("name asc").Find(&customers).Error; err != nil {
			return failed(err, "Customers could not be listed")
		}

		resp := make([]CustomerResponse, 0, len(customers))
		for _, cu := range customers {
			resp = append(resp, toCustomerResponse(cu))
		}
		return c.JSON(resp)
	}
}

// GET /api/customers/:id
func GetCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		var cu models.Customer
		if err := database.DB.First(&cu, id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Customer not found")
		}
		return c.JSON(toCustomerResponse(cu))
	}
}

// POST /api/customers
func CreateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		var cu models.Customer
		if err := body.apply(&cu); err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&cu).Error; err != nil {
				return err
			}
			return writeLog(tx, actor, audit.EntityCustomer, cu.ID, models.AuditActionCreate,
				"Customer "+cu.Name+" created", nil, cu)
		})
		if err != nil {
			return failed(err, "Customer could not be saved")
		}
		return c.Status(fiber.StatusCreated).JSON(toCustomerResponse(cu))
	}
}

// PUT /api/customers/:id
func UpdateCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body CustomerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var cu models.Customer
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&cu, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Customer not found")
				}
				return err
			}
			before := cu
			if err := body.apply(&cu); err != nil {
				return err
			}
			if err := tx.Save(&cu).Error; err != nil {
				return err
			}
			return writeLog(tx, actor, audit.EntityCustomer, cu.ID, models.AuditActionUpdate,
				"Customer "+cu.Name+" updated", before, cu)
		})
		if err != nil {
			return failed(err, "Customer could not be updated")
		}
		return c.JSON(toCustomerResponse(cu))
	}
}

// DELETE /api/customers/:id
// A customer that is still on a sale cannot be deleted.
func DeleteCustomerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var cu models.Customer
			if err := tx.First(&cu, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Customer not found")
				}
				return err
			}
			var used int64
			if err := tx.Model(&models.VehicleSales{}).Where("customer_id = ?", id).Count(&used).Error; err != nil {
				return err
			}
			if used > 0 {
				return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Customer is linked to %d sale(s)", used))
			}
			if err := tx.Delete(&cu).Error; err != nil {
				return err
			}
			return writeLog(tx, actor, audit.EntityCustomer, cu.ID, models.AuditActionDelete,
				"Customer "+cu.Name+" deleted", cu, nil)
		})
		if err != nil {
			return failed(err, "Customer could not be deleted")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// -------------------------
// Suppliers
// -------------------------

// GET /api/suppliers
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Model(&models.Supplier{})
		if s := strings.ToLower(strings.TrimSpace(c.Query("search"))); s != "" {
			like := "%" + s + "%"
			q = q.Where("LOWER(name) LIKE ? OR LOWER(country) LIKE ?", like, like)
		}

		var suppliers []models.Supplier
		if err := q.Order("name asc").Find(&suppliers).Error; err != nil {
			return failed(err, "Suppliers could not be listed")
		}

		resp := make([]SupplierResponse, 0, len(suppliers))
		for _, s := range suppliers {
			resp = append(resp, toSupplierResponse(s))
		}
		return c.JSON(resp)
	}
}

func ensureUniqueSupplier(tx *gorm.DB, name string, exceptID uint) error {
	var count int64
	if err := tx.Model(&models.Supplier{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), exceptID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fiber.NewError(fiber.StatusConflict, "A supplier named "+name+" already exists")
	}
	return nil
}

// POST /api/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		var s models.Supplier
		if err := body.apply(&s); err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := ensureUniqueSupplier(tx, s.Name, 0); err != nil {
				return err
			}
			if err := tx.Create(&s).Error; err != nil {
				return err
			}
			return writeLog(tx, actor, audit.EntitySupplier, s.ID, models.AuditActionCreate,
				"Supplier "+s.Name+" created", nil, s)
		})
		if err != nil {
			return failed(err, "Supplier could not be saved")
		}
		return c.Status(fiber.StatusCreated).JSON(toSupplierResponse(s))
	}
}

// PUT /api/suppliers/:id
func UpdateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var s models.Supplier
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&s, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
				}
				return err
			}
			before := s
			if err := body.apply(&s); err != nil {
				return err
			}
			if err := ensureUniqueSupplier(tx, s.Name, s.ID); err != nil {
				return err
			}
			if err := tx.Save(&s).Error; err != nil {
				return err
			}
			return writeLog(tx, actor, audit.EntitySupplier, s.ID, models.AuditActionUpdate,
				"Supplier "+s.Name+" updated", before, s)
		})
		if err != nil {
			return failed(err, "Supplier could not be updated")
		}
		return c.JSON(toSupplierResponse(s))
	}
}

// DELETE /api/suppliers/:id
func DeleteSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var s models.Supplier
			if err := tx.First(&s, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
				}
				return err
			}
			var used int64
			if err := tx.Model(&models.VehiclePurchase{}).Where("supplier_id = ?", id).Count(&used).Error; err != nil {
				return err
			}
			if used > 0 {
				return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("Supplier is linked to %d purchase(s)", used))
			}
			if err := tx.Delete(&s).Error; err != nil {
				return err
			}
			return writeLog(tx, actor, audit.EntitySupplier, s.ID, models.AuditActionDelete,
				"Supplier "+s.Name+" deleted", s, nil)
		})
		if err != nil {
			return failed(err, "Supplier could not be deleted")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
