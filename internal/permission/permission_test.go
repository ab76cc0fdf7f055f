package permission

import "testing"

func TestHas(t *testing.T) {
	testCases := []struct {
		name     string
		set      []string
		required string
		want     bool
	}{
		{"exact match", []string{SalesUpdate}, SalesUpdate, true},
		{"missing", []string{SalesUpdate}, ShippingUpdate, false},
		{"wildcard", []string{All}, UsersManage, true},
		{"resource wildcard", []string{"sales.*"}, SalesUpdate, true},
		{"resource wildcard other resource", []string{"sales.*"}, PurchaseUpdate, false},
		{"empty set", nil, VehicleUpdate, false},
		{"empty requirement", nil, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Has(tc.set, tc.required); got != tc.want {
				t.Errorf("Expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	caps := Resolve([]string{ShippingUpdate, "documents.*"}, ShippingUpdate, DocumentsManage, SalesUpdate)
	if !caps[ShippingUpdate] || !caps[DocumentsManage] {
		t.Errorf("Expected shipping and documents capabilities, got %v", caps)
	}
	if caps[SalesUpdate] {
		t.Error("Expected no sales capability")
	}
	if len(caps) != 3 {
		t.Errorf("Expected 3 entries, got %d", len(caps))
	}
}

func TestKnown(t *testing.T) {
	if !Known(AuditUndo) || Known("vehicle.fly") {
		t.Error("Unexpected Known result")
	}
}
