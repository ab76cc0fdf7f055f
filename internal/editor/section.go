package editor

import (
	"fmt"
	"strings"

	"vehicle-admin/internal/permission"
)

// Section: one independently editable part of the vehicle record, in display order.
type Section int

const (
	SectionVehicle Section = iota
	SectionShipping
	SectionPurchase
	SectionFinancials
	SectionSales
	SectionDocuments
)

type sectionInfo struct {
	key        string
	title      string
	permission string
}

var sectionTable = []sectionInfo{
	SectionVehicle:    {"vehicle", "Vehicle Details", permission.VehicleUpdate},
	SectionShipping:   {"shipping", "Shipping", permission.ShippingUpdate},
	SectionPurchase:   {"purchase", "Purchase", permission.PurchaseUpdate},
	SectionFinancials: {"financials", "Financial Summary", permission.FinancialsUpdate},
	SectionSales:      {"sales", "Sales", permission.SalesUpdate},
	SectionDocuments:  {"documents", "Documents", permission.DocumentsManage},
}

// Sections returns every section in display order.
func Sections() []Section {
	out := make([]Section, len(sectionTable))
	for i := range sectionTable {
		out[i] = Section(i)
	}
	return out
}

func (s Section) valid() bool {
	return s >= 0 && int(s) < len(sectionTable)
}

// Title is the heading shown on the section card.
func (s Section) Title() string {
	if !s.valid() {
		return fmt.Sprintf("Section(%d)", int(s))
	}
	return sectionTable[s].title
}

// Key is the short machine name ("financials", "sales", ...).
func (s Section) Key() string {
	if !s.valid() {
		return ""
	}
	return sectionTable[s].key
}

// Permission is the capability required to edit the section.
func (s Section) Permission() string {
	if !s.valid() {
		return ""
	}
	return sectionTable[s].permission
}

func (s Section) String() string { return s.Title() }

// ParseSection accepts a key ("financials") or a title ("Financial Summary"), case-insensitively.
func ParseSection(name string) (Section, error) {
	name = strings.TrimSpace(name)
	for i, info := range sectionTable {
		if strings.EqualFold(name, info.key) || strings.EqualFold(name, info.title) {
			return Section(i), nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownSection, name)
}
