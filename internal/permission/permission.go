// Package permission holds the capability codes and the pure check used by
// both the API middleware and the record editor.
package permission

import "strings"

const (
	All = "*"

	VehicleUpdate    = "vehicle.update"
	ShippingUpdate   = "shipping.update"
	PurchaseUpdate   = "purchase.update"
	FinancialsUpdate = "financials.update"
	SalesUpdate      = "sales.update"
	DocumentsManage  = "documents.manage"
	ImagesManage     = "images.manage"
	VehiclesCreate   = "vehicles.create"
	VehiclesDelete   = "vehicles.delete"
	CustomersManage  = "customers.manage"
	SuppliersManage  = "suppliers.manage"
	UsersManage      = "users.manage"
	AuditRead        = "audit.read"
	AuditUndo        = "audit.undo"
)

// Codes lists every known code, "*" included.
func Codes() []string {
	return []string{
		All,
		VehicleUpdate, ShippingUpdate, PurchaseUpdate, FinancialsUpdate, SalesUpdate,
		DocumentsManage, ImagesManage, VehiclesCreate, VehiclesDelete,
		CustomersManage, SuppliersManage, UsersManage, AuditRead, AuditUndo,
	}
}

func Known(code string) bool {
	for _, c := range Codes() {
		if c == code {
			return true
		}
	}
	return false
}

// Has reports whether set grants required. "*" grants everything and
// "resource.*" grants every action on resource.
func Has(set []string, required string) bool {
	if required == "" {
		return true
	}
	resource, _, _ := strings.Cut(required, ".")
	for _, p := range set {
		switch {
		case p == All, p == required:
			return true
		case strings.HasSuffix(p, ".*") && strings.TrimSuffix(p, ".*") == resource:
			return true
		}
	}
	return false
}

// Resolve evaluates every required code once; view code reads the map.
func Resolve(set []string, required ...string) map[string]bool {
	out := make(map[string]bool, len(required))
	for _, r := range required {
		out[r] = Has(set, r)
	}
	return out
}
