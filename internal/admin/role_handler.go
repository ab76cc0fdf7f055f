package admin

import (
	"errors"
	"strings"

	"vehicle-admin/internal/database"
	"vehicle-admin/internal/models"
	"vehicle-admin/internal/permission"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type RoleResponse struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

func toRoleResponse(r models.Role) RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: r.PermissionCodes(),
	}
}

// ValidCode accepts the known codes and "resource.*" for a known resource.
func ValidCode(code string) bool {
	if permission.Known(code) {
		return true
	}
	resource, ok := strings.CutSuffix(code, ".*")
	if !ok || resource == "" {
		return false
	}
	for _, known := range permission.Codes() {
		if strings.HasPrefix(known, resource+".") {
			return true
		}
	}
	return false
}

// permissionRows returns the rows for codes, creating wildcard rows on demand.
func permissionRows(tx *gorm.DB, codes []string) ([]models.Permission, error) {
	seen := make(map[string]bool, len(codes))
	perms := make([]models.Permission, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if seen[code] {
			continue
		}
		seen[code] = true
		if !ValidCode(code) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Unknown permission "+code)
		}
		var p models.Permission
		if err := tx.Where(models.Permission{Code: code}).FirstOrCreate(&p).Error; err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, nil
}

// GET /api/admin/permissions
func ListPermissionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(permission.Codes())
	}
}

// GET /api/admin/roles
func ListRolesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var roles []models.Role
		if err := database.DB.Preload("Permissions").Order("name asc").Find(&roles).Error; err != nil {
			return failed(err, "Roles could not be listed")
		}
		resp := make([]RoleResponse, 0, len(roles))
		for _, r := range roles {
			resp = append(resp, toRoleResponse(r))
		}
		return c.JSON(resp)
	}
}

// POST /api/admin/roles
func CreateRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RoleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		name := strings.ToLower(strings.TrimSpace(body.Name))
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Role name is required")
		}

		var role models.Role
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			var count int64
			tx.Model(&models.Role{}).Where("name = ?", name).Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, "Role "+name+" already exists")
			}
			perms, err := permissionRows(tx, body.Permissions)
			if err != nil {
				return err
			}
			role = models.Role{Name: name, Description: strings.TrimSpace(body.Description), Permissions: perms}
			return tx.Create(&role).Error
		})
		if err != nil {
			return failed(err, "Role could not be created")
		}
		return c.Status(fiber.StatusCreated).JSON(toRoleResponse(role))
	}
}

// PUT /api/admin/roles/:id
// The permission list replaces the role's current permissions.
func UpdateRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		var body RoleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var role models.Role
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&role, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Role not found")
				}
				return err
			}
			if d := strings.TrimSpace(body.Description); d != "" {
				role.Description = d
				if err := tx.Model(&role).Update("description", d).Error; err != nil {
					return err
				}
			}
			perms, err := permissionRows(tx, body.Permissions)
			if err != nil {
				return err
			}
			if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
				return err
			}
			role.Permissions = perms
			return nil
		})
		if err != nil {
			return failed(err, "Role could not be updated")
		}
		return c.JSON(toRoleResponse(role))
	}
}

// DELETE /api/admin/roles/:id
func DeleteRoleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var role models.Role
			if err := tx.First(&role, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Role not found")
				}
				return err
			}
			var users int64
			tx.Model(&models.User{}).Where("role_id = ?", id).Count(&users)
			if users > 0 {
				return fiber.NewError(fiber.StatusConflict, "Role is assigned to users")
			}
			if err := tx.Model(&role).Association("Permissions").Clear(); err != nil {
				return err
			}
			return tx.Delete(&role).Error
		})
		if err != nil {
			return failed(err, "Role could not be deleted")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
