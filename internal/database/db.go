package database

import (
	"fmt"
	"log"

	"vehicle-admin/internal/config"
	"vehicle-admin/internal/models"
	"vehicle-admin/internal/permission"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var DB *gorm.DB

func Init(cfg *config.Config) {
	var err error

	DB, err = gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not connect to the database: %v", err)
	}

	if err := Migrate(DB); err != nil {
		log.Fatalf("Migration error: %v", err)
	}

	log.Println("Database connection established. Migration complete.")
}

// Migrate creates the schema and seeds permissions and the default roles.
// It is safe to run on every start.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Permission{},
		&models.Role{},
		&models.User{},
		&models.Customer{},
		&models.Supplier{},
		&models.Vehicle{},
		&models.VehicleShipping{},
		&models.VehiclePurchase{},
		&models.VehicleFinancials{},
		&models.VehicleSales{},
		&models.VehicleDocument{},
		&models.VehicleImage{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	// one primary image per vehicle
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_vehicle_images_one_primary
		ON vehicle_images (vehicle_id) WHERE is_primary`).Error; err != nil {
		return fmt.Errorf("primary image index: %w", err)
	}

	return seedRoles(db)
}

// DefaultRoles: role name -> permission codes.
var DefaultRoles = map[string][]string{
	"admin": {permission.All},
	"sales": {
		permission.SalesUpdate, permission.CustomersManage,
	},
	"logistics": {
		permission.ShippingUpdate, permission.PurchaseUpdate,
		permission.DocumentsManage, permission.ImagesManage, permission.SuppliersManage,
	},
}

var roleDescriptions = map[string]string{
	"admin":     "Full access",
	"sales":     "Sales records and customers",
	"logistics": "Shipping, purchase, documents and images",
}

func seedRoles(db *gorm.DB) error {
	for _, code := range permission.Codes() {
		p := models.Permission{Code: code}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
			return fmt.Errorf("seed permission %s: %w", code, err)
		}
	}

	for name, codes := range DefaultRoles {
		var count int64
		db.Model(&models.Role{}).Where("name = ?", name).Count(&count)
		if count > 0 {
			continue
		}

		var perms []models.Permission
		if err := db.Where("code IN ?", codes).Find(&perms).Error; err != nil {
			return fmt.Errorf("load permissions for %s: %w", name, err)
		}
		role := models.Role{Name: name, Description: roleDescriptions[name], Permissions: perms}
		if err := db.Create(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
		log.Printf("Role %q created with %d permission(s)", name, len(perms))
	}
	return nil
}
