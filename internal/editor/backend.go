package editor

import (
	"context"
	"log/slog"

	"vehicle-admin/internal/models"
)

// MaxUploadSize is checked before any document or image is submitted.
const MaxUploadSize = 10 << 20

// FileUpload: a file picked by the user. Type is only used for documents.
type FileUpload struct {
	Filename string
	Type     models.DocumentType
	Content  []byte
}

// SectionStore persists one sub-record per call and returns the stored version.
type SectionStore interface {
	FetchVehicle(ctx context.Context, vehicleID uint) (models.VehicleAggregate, error)
	UpdateVehicle(ctx context.Context, vehicleID uint, v models.Vehicle) (models.Vehicle, error)
	UpdateShipping(ctx context.Context, vehicleID uint, s models.VehicleShipping) (models.VehicleShipping, error)
	UpdatePurchase(ctx context.Context, vehicleID uint, p models.VehiclePurchase) (models.VehiclePurchase, error)
	UpdateFinancials(ctx context.Context, vehicleID uint, f models.VehicleFinancials) (models.VehicleFinancials, error)
	UpdateSales(ctx context.Context, vehicleID uint, s models.VehicleSales) (models.VehicleSales, error)
}

type DocumentStore interface {
	UploadDocument(ctx context.Context, vehicleID uint, f FileUpload) (models.VehicleDocument, error)
	DeleteDocument(ctx context.Context, vehicleID, documentID uint) error
	DocumentURL(ctx context.Context, vehicleID, documentID uint) (string, error)
}

// ImageStore: ImageURL is expected to be memoized; InvalidateImageURLs drops
// the memoized URLs of one vehicle.
type ImageStore interface {
	UploadImages(ctx context.Context, vehicleID uint, files []FileUpload) ([]models.VehicleImage, error)
	SetPrimaryImage(ctx context.Context, vehicleID, imageID uint) error
	ImageURL(ctx context.Context, vehicleID, imageID uint) (string, error)
	InvalidateImageURLs(vehicleID uint)
}

// Backend is everything the editor needs from the remote API.
type Backend interface {
	SectionStore
	DocumentStore
	ImageStore
}

type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyWarning NotificationKind = "warning"
	NotifyInfo    NotificationKind = "info"
)

// Notifier is fire-and-forget; implementations must not block.
type Notifier interface {
	Notify(kind NotificationKind, title, message string)
}

type NotifierFunc func(kind NotificationKind, title, message string)

func (f NotifierFunc) Notify(kind NotificationKind, title, message string) {
	f(kind, title, message)
}

type logNotifier struct {
	logger *slog.Logger
}

func (n logNotifier) Notify(kind NotificationKind, title, message string) {
	level := slog.LevelInfo
	switch kind {
	case NotifyError:
		level = slog.LevelError
	case NotifyWarning:
		level = slog.LevelWarn
	}
	n.logger.Log(context.Background(), level, title, "kind", string(kind), "message", message)
}
