package media

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"

	"vehicle-admin/internal/audit"
	"vehicle-admin/internal/auth"
	"vehicle-admin/internal/database"
	"vehicle-admin/internal/models"
	"vehicle-admin/internal/repository"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	kindDocuments = "documents"
	kindImages    = "images"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

func parseID(c *fiber.Ctx, param string) (uint, error) {
	var id uint
	if _, err := fmt.Sscan(c.Params(param), &id); err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+param)
	}
	return id, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > MaxFileSize {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, fmt.Sprintf("%s is larger than 10 MB", fh.Filename))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, fh.Filename+" could not be read")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, fh.Filename+" could not be read")
	}
	if len(data) > MaxFileSize {
		return nil, fiber.NewError(fiber.StatusRequestEntityTooLarge, fmt.Sprintf("%s is larger than 10 MB", fh.Filename))
	}
	return data, nil
}

func ensureVehicle(id uint) error {
	var count int64
	if err := database.DB.Model(&models.Vehicle{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("vehicle lookup: %w", err)
	}
	if count == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Vehicle not found")
	}
	return nil
}

func asFiberError(err error, fallback string) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe
	}
	log.Println(fallback+":", err)
	return fiber.NewError(fiber.StatusInternalServerError, fallback)
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

// POST /api/vehicles/:id/documents (multipart: file, type)
func UploadDocumentHandler(store *Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vehicleID, err := parseID(c, "id")
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		docType := models.DocumentType(strings.ToLower(strings.TrimSpace(c.FormValue("type"))))
		if docType == "" {
			docType = models.DocumentOther
		}
		if !docType.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "Unknown document type "+string(docType))
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "File is required")
		}
		data, err := readUpload(fh)
		if err != nil {
			return err
		}
		if err := ensureVehicle(vehicleID); err != nil {
			return asFiberError(err, "Vehicle could not be loaded")
		}

		rel, err := store.Save(kindDocuments, vehicleID, fh.Filename, data)
		if err != nil {
			log.Printf("document store failed for vehicle %d: %v", vehicleID, err)
			return fiber.NewError(fiber.StatusInternalServerError, "Document could not be stored")
		}

		doc := models.VehicleDocument{
			VehicleID:   vehicleID,
			Filename:    filepath.Base(fh.Filename),
			Type:        docType,
			Size:        int64(len(data)),
			StoragePath: rel,
		}
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&doc).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  audit.EntityDocument,
				EntityID:    doc.ID,
				VehicleID:   &vehicleID,
				Action:      models.AuditActionCreate,
				Description: "Document " + doc.Filename + " uploaded",
				After:       doc,
			})
		})
		if err != nil {
			store.Remove(rel)
			return asFiberError(err, "Document could not be saved")
		}

		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// DELETE /api/vehicles/:id/documents/:docId
func DeleteDocumentHandler(store *Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vehicleID, err := parseID(c, "id")
		if err != nil {
			return err
		}
		docID, err := parseID(c, "docId")
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var doc models.VehicleDocument
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("id = ? AND vehicle_id = ?", docID, vehicleID).First(&doc).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Document not found")
				}
				return err
			}
			if err := tx.Delete(&doc).Error; err != nil {
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  audit.EntityDocument,
				EntityID:    doc.ID,
				VehicleID:   &vehicleID,
				Action:      models.AuditActionDelete,
				Description: "Document " + doc.Filename + " deleted",
				Before:      doc,
			})
		})
		if err != nil {
			return asFiberError(err, "Document could not be deleted")
		}

		if err := store.Remove(doc.StoragePath); err != nil {
			log.Printf("document file %s could not be removed: %v", doc.StoragePath, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/vehicles/:id/documents/:docId/url
func DocumentURLHandler(signer *Signer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vehicleID, err := parseID(c, "id")
		if err != nil {
			return err
		}
		docID, err := parseID(c, "docId")
		if err != nil {
			return err
		}

		var doc models.VehicleDocument
		if err := database.DB.Where("id = ? AND vehicle_id = ?", docID, vehicleID).First(&doc).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Document not found")
		}
		signed, err := signer.Sign(doc.StoragePath, doc.Filename, false)
		if err != nil {
			return asFiberError(err, "Link could not be created")
		}
		return c.JSON(signed)
	}
}

// ---------------------------------------------------------------------------
// Images
// ---------------------------------------------------------------------------

// POST /api/vehicles/:id/images (multipart: images, repeated)
// New images continue the display order; the first image of a vehicle becomes primary.
func UploadImagesHandler(store *Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vehicleID, err := parseID(c, "id")
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		form, err := c.MultipartForm()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Multipart form is required")
		}
		files := form.File["images"]
		if len(files) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "At least one image is required")
		}

		contents := make([][]byte, len(files))
		for i, fh := range files {
			if !imageExtensions[strings.ToLower(filepath.Ext(fh.Filename))] {
				return fiber.NewError(fiber.StatusBadRequest, fh.Filename+" is not a supported image")
			}
			if contents[i], err = readUpload(fh); err != nil {
				return err
			}
		}
		if err := ensureVehicle(vehicleID); err != nil {
			return asFiberError(err, "Vehicle could not be loaded")
		}

		var stored []string
		cleanup := func() {
			for _, rel := range stored {
				store.Remove(rel)
			}
		}
		for i, fh := range files {
			rel, err := store.Save(kindImages, vehicleID, fh.Filename, contents[i])
			if err != nil {
				cleanup()
				log.Printf("image store failed for vehicle %d: %v", vehicleID, err)
				return fiber.NewError(fiber.StatusInternalServerError, "Images could not be stored")
			}
			stored = append(stored, rel)
		}

		added := make([]models.VehicleImage, 0, len(files))
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			order, err := repository.NextDisplayOrder(tx, vehicleID)
			if err != nil {
				return err
			}
			var primaries int64
			if err := tx.Model(&models.VehicleImage{}).Where("vehicle_id = ? AND is_primary = ?", vehicleID, true).Count(&primaries).Error; err != nil {
				return err
			}

			for i, fh := range files {
				img := models.VehicleImage{
					VehicleID:    vehicleID,
					Filename:     filepath.Base(fh.Filename),
					DisplayOrder: order + i,
					IsPrimary:    primaries == 0 && i == 0,
					StoragePath:  stored[i],
				}
				if err := tx.Create(&img).Error; err != nil {
					return err
				}
				added = append(added, img)
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  audit.EntityImage,
				EntityID:    added[0].ID,
				VehicleID:   &vehicleID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("%d image(s) uploaded", len(added)),
				After:       added,
			})
		})
		if err != nil {
			cleanup()
			return asFiberError(err, "Images could not be saved")
		}

		return c.Status(fiber.StatusCreated).JSON(added)
	}
}

// PUT /api/vehicles/:id/images/:imageId/primary
func SetPrimaryImageHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		vehicleID, err := parseID(c, "id")
		if err != nil {
			return err
		}
		imageID, err := parseID(c, "imageId")
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := repository.SetPrimaryImage(tx, vehicleID, imageID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Image not found")
				}
				return err
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  audit.EntityImage,
				EntityID:    imageID,
				VehicleID:   &vehicleID,
				Action:      models.AuditActionUpdate,
				Description: "Primary image changed",
			})
		})
		if err != nil {
			return asFiberError(err, "Primary image could not be changed")
		}

		return c.JSON(fiber.Map{
			"message": "Primary image updated",
		})
	}
}

// DELETE /api/vehicles/:id/images/:imageId
// Deleting the primary image promotes the next one in display order.
func DeleteImageHandler(store *Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vehicleID, err := parseID(c, "id")
		if err != nil {
			return err
		}
		imageID, err := parseID(c, "imageId")
		if err != nil {
			return err
		}
		actor, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var img models.VehicleImage
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("id = ? AND vehicle_id = ?", imageID, vehicleID).First(&img).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "Image not found")
				}
				return err
			}
			if err := tx.Delete(&img).Error; err != nil {
				return err
			}
			if img.IsPrimary {
				var next models.VehicleImage
				err := tx.Where("vehicle_id = ?", vehicleID).Order("display_order, id").First(&next).Error
				if err == nil {
					if err := tx.Model(&next).Update("is_primary", true).Error; err != nil {
						return err
					}
				} else if !errors.Is(err, gorm.ErrRecordNotFound) {
					return err
				}
			}
			return audit.WriteLog(tx, audit.LogOptions{
				UserID:      actor.ID,
				UserName:    actor.Name,
				EntityType:  audit.EntityImage,
				EntityID:    img.ID,
				VehicleID:   &vehicleID,
				Action:      models.AuditActionDelete,
				Description: "Image " + img.Filename + " deleted",
				Before:      img,
			})
		})
		if err != nil {
			return asFiberError(err, "Image could not be deleted")
		}

		if err := store.Remove(img.StoragePath); err != nil {
			log.Printf("image file %s could not be removed: %v", img.StoragePath, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/vehicles/:id/images/:imageId/url
func ImageURLHandler(signer *Signer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vehicleID, err := parseID(c, "id")
		if err != nil {
			return err
		}
		imageID, err := parseID(c, "imageId")
		if err != nil {
			return err
		}

		var img models.VehicleImage
		if err := database.DB.Where("id = ? AND vehicle_id = ?", imageID, vehicleID).First(&img).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Image not found")
		}
		signed, err := signer.Sign(img.StoragePath, img.Filename, true)
		if err != nil {
			return asFiberError(err, "Link could not be created")
		}
		return c.JSON(signed)
	}
}

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

// GET /api/files/:token
// Public: the signed token is the credential.
func ServeFileHandler(store *Storage, signer *Signer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := signer.Verify(c.Params("token"))
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, "Link is invalid or has expired")
		}
		full, err := store.Path(claims.Path)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, "Link is invalid or has expired")
		}

		if !claims.Inline {
			c.Attachment(claims.Filename)
		}
		if err := c.SendFile(full); err != nil {
			return fiber.NewError(fiber.StatusNotFound, "File not found")
		}
		return nil
	}
}
