package audit

import (
	"errors"
	"fmt"

	"vehicle-admin/internal/auth"
	"vehicle-admin/internal/database"
	"vehicle-admin/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

type AuditLogResponse struct {
	ID          uint               `json:"id"`
	CreatedAt   string             `json:"created_at"`
	UserID      uint               `json:"user_id"`
	UserName    string             `json:"user_name"`
	EntityType  string             `json:"entity_type"`
	EntityID    uint               `json:"entity_id"`
	VehicleID   *uint              `json:"vehicle_id"`
	Action      models.AuditAction `json:"action"`
	Description string             `json:"description"`
	BeforeData  datatypes.JSON     `json:"before_data,omitempty"`
	AfterData   datatypes.JSON     `json:"after_data,omitempty"`
	IsUndone    bool               `json:"is_undone"`
	UndoneBy    *uint              `json:"undone_by"`
	UndoneAt    *string            `json:"undone_at"`
}

const timeLayout = "2006-01-02 15:04:05"

// GET /api/audit-logs?entity_type=vehicle_sales&entity_id=1&vehicle_id=3&user_id=2&details=true
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.AuditLog{})

		if v := c.Query("entity_type"); v != "" {
			dbq = dbq.Where("entity_type = ?", v)
		}
		filters := map[string]string{
			"entity_id":  c.Query("entity_id"),
			"vehicle_id": c.Query("vehicle_id"),
			"user_id":    c.Query("user_id"),
		}
		for column, raw := range filters {
			if raw == "" {
				continue
			}
			var id uint
			if _, err := fmt.Sscan(raw, &id); err != nil || id == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid "+column)
			}
			dbq = dbq.Where(column+" = ?", id)
		}

		limit := c.QueryInt("limit", 100)
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Logs could not be listed")
		}

		details := c.QueryBool("details", false)
		resp := make([]AuditLogResponse, 0, len(logs))
		for _, l := range logs {
			var undoneAt *string
			if l.UndoneAt != nil {
				formatted := l.UndoneAt.Format(timeLayout)
				undoneAt = &formatted
			}

			r := AuditLogResponse{
				ID:          l.ID,
				CreatedAt:   l.CreatedAt.Format(timeLayout),
				UserID:      l.UserID,
				UserName:    l.UserName,
				EntityType:  l.EntityType,
				EntityID:    l.EntityID,
				VehicleID:   l.VehicleID,
				Action:      l.Action,
				Description: l.Description,
				IsUndone:    l.IsUndone,
				UndoneBy:    l.UndoneBy,
				UndoneAt:    undoneAt,
			}
			if details {
				r.BeforeData, r.AfterData = l.BeforeData, l.AfterData
			}
			resp = append(resp, r)
		}

		return c.JSON(resp)
	}
}

// POST /api/audit-logs/:id/undo
func UndoAuditLogHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var logID uint
		if _, err := fmt.Sscan(c.Params("id"), &logID); err != nil || logID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid log ID")
		}

		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		if err := UndoLog(database.DB, logID, actor.ID, actor.Name); err != nil {
			if errors.Is(err, ErrAlreadyUndone) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(fiber.Map{
			"message": "Action undone",
		})
	}
}
