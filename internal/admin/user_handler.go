package admin

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"vehicle-admin/internal/audit"
	"vehicle-admin/internal/auth"
	"vehicle-admin/internal/database"
	"vehicle-admin/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   uint   `json:"role_id"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
	RoleID   *uint   `json:"role_id"`
	Active   *bool   `json:"active"`
}

type UserResponse struct {
	auth.UserResponse
	RoleID    uint   `json:"role_id"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		UserResponse: auth.NewUserResponse(u),
		RoleID:       u.RoleID,
		Active:       u.Active,
		CreatedAt:    u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// userSnapshot is the audit view of a user; the password hash never goes to the log.
func userSnapshot(u models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":      u.ID,
		"name":    u.Name,
		"email":   u.Email,
		"role_id": u.RoleID,
		"active":  u.Active,
	}
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

// ----------------------------------------
// USERS
// ----------------------------------------

// GET /api/admin/users
func ListUsersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := database.DB.Preload("Role.Permissions").Order("name asc").Find(&users).Error; err != nil {
			return failed(err, "Users could not be listed")
		}
		resp := make([]UserResponse, 0, len(users))
		for _, u := range users {
			resp = append(resp, toUserResponse(u))
		}
		return c.JSON(resp)
	}
}

// POST /api/admin/users
func CreateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Email = strings.TrimSpace(strings.ToLower(body.Email))
		if body.Name == "" || body.Email == "" || body.RoleID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Name, email and role are required")
		}
		hash, err := auth.HashPassword(body.Password)
		if err != nil {
			return err
		}

		var user models.User
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var count int64
			tx.Model(&models.User{}).Where("email = ?", body.Email).Count(&count)
			if count > 0 {
				return fiber.NewError(fiber.StatusConflict, "This email is already in use")
			}
			var role models.Role
			if err := tx.Preload("Permissions").First(&role, body.RoleID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Role not found")
			}

			user = models.User{
				Name:         body.Name,
				Email:        body.Email,
				PasswordHash: hash,
				RoleID:       role.ID,
				Active:       true,
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
			user.Role = role
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  audit.EntityUser,
				EntityID:    user.ID,
				Action:      models.AuditActionCreate,
				Description: "User " + user.Email + " created",
				After:       userSnapshot(user),
			})
		})
		if err != nil {
			return failed(err, "User could not be created")
		}
		return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
	}
}

// PUT /api/admin/users/:id
// A user cannot deactivate themself or drop their own role.
func UpdateUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		var body UpdateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if id == actor.ID && ((body.Active != nil && !*body.Active) || body.RoleID != nil) {
			return fiber.NewError(fiber.StatusBadRequest, "You cannot change your own role or status")
		}

		var user models.User
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&user, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "User not found")
				}
				return err
			}
			before := userSnapshot(user)

			if body.Name != nil {
				name := strings.TrimSpace(*body.Name)
				if name == "" {
					return fiber.NewError(fiber.StatusBadRequest, "Name cannot be empty")
				}
				user.Name = name
			}
			if body.Password != nil {
				hash, err := auth.HashPassword(*body.Password)
				if err != nil {
					return err
				}
				user.PasswordHash = hash
			}
			if body.RoleID != nil {
				var count int64
				tx.Model(&models.Role{}).Where("id = ?", *body.RoleID).Count(&count)
				if count == 0 {
					return fiber.NewError(fiber.StatusBadRequest, "Role not found")
				}
				user.RoleID = *body.RoleID
			}
			if body.Active != nil {
				user.Active = *body.Active
			}

			if err := tx.Omit("Role").Save(&user).Error; err != nil {
				return err
			}
			if err := tx.Preload("Role.Permissions").First(&user, id).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  audit.EntityUser,
				EntityID:    user.ID,
				Action:      models.AuditActionUpdate,
				Description: "User " + user.Email + " updated",
				Before:      before,
				After:       userSnapshot(user),
			})
		})
		if err != nil {
			return failed(err, "User could not be updated")
		}
		return c.JSON(toUserResponse(user))
	}
}

// DELETE /api/admin/users/:id
func DeleteUserHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}
		if id == actor.ID {
			return fiber.NewError(fiber.StatusBadRequest, "You cannot delete yourself")
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var user models.User
			if err := tx.First(&user, id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "User not found")
				}
				return err
			}
			if err := tx.Delete(&user).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  audit.EntityUser,
				EntityID:    user.ID,
				Action:      models.AuditActionDelete,
				Description: "User " + user.Email + " deleted",
				Before:      userSnapshot(user),
			})
		})
		if err != nil {
			return failed(err, "User could not be deleted")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
