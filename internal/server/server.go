// Package server assembles the Fiber application and its routes.
package server

import (
	"log"
	"strings"

	"vehicle-admin/internal/admin"
	"vehicle-admin/internal/audit"
	"vehicle-admin/internal/auth"
	"vehicle-admin/internal/config"
	"vehicle-admin/internal/contacts"
	"vehicle-admin/internal/dashboard"
	"vehicle-admin/internal/media"
	"vehicle-admin/internal/permission"
	"vehicle-admin/internal/vehicle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// ErrorHandler renders every error as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"error": e.Message,
		})
	}
	log.Println("Unexpected error:", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Unexpected server error",
	})
}

// New builds the app. database.DB must be initialised first.
func New(cfg *config.Config, store *media.Storage, signer *media.Signer) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler,
		// several images per request, each up to media.MaxFileSize
		BodyLimit: 64 << 20,
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))
	api.Get("/files/:token", media.ServeFileHandler(store, signer))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Vehicles
	protected.Get("/vehicles", vehicle.ListVehiclesHandler())
	protected.Get("/vehicles/export", vehicle.ExportVehiclesHandler())
	protected.Post("/vehicles/import", auth.RequirePermission(permission.VehiclesCreate), vehicle.ImportVehiclesHandler())
	protected.Post("/vehicles", auth.RequirePermission(permission.VehiclesCreate), vehicle.CreateVehicleHandler())
	protected.Get("/vehicles/:id", vehicle.GetVehicleHandler())
	protected.Delete("/vehicles/:id", auth.RequirePermission(permission.VehiclesDelete), vehicle.DeleteVehicleHandler(store))

	// Sections
	// the Financial Summary card saves the vehicle prices through this route too
	protected.Put("/vehicles/:id/vehicle", auth.RequireAnyPermission(permission.VehicleUpdate, permission.FinancialsUpdate), vehicle.UpdateVehicleHandler())
	protected.Put("/vehicles/:id/shipping", auth.RequirePermission(permission.ShippingUpdate), vehicle.UpdateShippingHandler())
	protected.Put("/vehicles/:id/purchase", auth.RequirePermission(permission.PurchaseUpdate), vehicle.UpdatePurchaseHandler())
	protected.Put("/vehicles/:id/financials", auth.RequirePermission(permission.FinancialsUpdate), vehicle.UpdateFinancialsHandler())
	protected.Put("/vehicles/:id/sales", auth.RequirePermission(permission.SalesUpdate), vehicle.UpdateSalesHandler())

	// Documents
	docs := auth.RequirePermission(permission.DocumentsManage)
	protected.Post("/vehicles/:id/documents", docs, media.UploadDocumentHandler(store))
	protected.Delete("/vehicles/:id/documents/:docId", docs, media.DeleteDocumentHandler(store))
	protected.Get("/vehicles/:id/documents/:docId/url", media.DocumentURLHandler(signer))

	// Images
	images := auth.RequirePermission(permission.ImagesManage)
	protected.Post("/vehicles/:id/images", images, media.UploadImagesHandler(store))
	protected.Put("/vehicles/:id/images/:imageId/primary", images, media.SetPrimaryImageHandler())
	protected.Delete("/vehicles/:id/images/:imageId", images, media.DeleteImageHandler(store))
	protected.Get("/vehicles/:id/images/:imageId/url", media.ImageURLHandler(signer))

	// Customers
	protected.Get("/customers", contacts.ListCustomersHandler())
	protected.Get("/customers/:id", contacts.GetCustomerHandler())
	customers := auth.RequirePermission(permission.CustomersManage)
	protected.Post("/customers", customers, contacts.CreateCustomerHandler())
	protected.Put("/customers/:id", customers, contacts.UpdateCustomerHandler())
	protected.Delete("/customers/:id", customers, contacts.DeleteCustomerHandler())

	// Suppliers
	protected.Get("/suppliers", contacts.ListSuppliersHandler())
	suppliers := auth.RequirePermission(permission.SuppliersManage)
	protected.Post("/suppliers", suppliers, contacts.CreateSupplierHandler())
	protected.Put("/suppliers/:id", suppliers, contacts.UpdateSupplierHandler())
	protected.Delete("/suppliers/:id", suppliers, contacts.DeleteSupplierHandler())

	// Dashboard
	protected.Get("/dashboard/summary", dashboard.SummaryHandler())
	protected.Get("/dashboard/profit-chart", dashboard.ProfitChartHandler())

	// Audit
	protected.Get("/audit-logs", auth.RequirePermission(permission.AuditRead), audit.ListAuditLogsHandler())
	protected.Post("/audit-logs/:id/undo", auth.RequirePermission(permission.AuditUndo), audit.UndoAuditLogHandler())

	// Users and roles
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequirePermission(permission.UsersManage))

	adminRoutes.Get("/users", admin.ListUsersHandler())
	adminRoutes.Post("/users", admin.CreateUserHandler())
	adminRoutes.Put("/users/:id", admin.UpdateUserHandler())
	adminRoutes.Delete("/users/:id", admin.DeleteUserHandler())
	adminRoutes.Get("/roles", admin.ListRolesHandler())
	adminRoutes.Post("/roles", admin.CreateRoleHandler())
	adminRoutes.Put("/roles/:id", admin.UpdateRoleHandler())
	adminRoutes.Delete("/roles/:id", admin.DeleteRoleHandler())
	adminRoutes.Get("/permissions", admin.ListPermissionsHandler())

	return app
}
