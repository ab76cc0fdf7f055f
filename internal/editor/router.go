package editor

import (
	"context"
	"time"

	"vehicle-admin/internal/models"
)

// applyFunc writes one persisted sub-record back into an aggregate.
type applyFunc func(a *models.VehicleAggregate)

// saveFunc issues the update requests of one section. It returns an applyFunc
// for every request that succeeded, also when a later request fails.
type saveFunc func(ctx context.Context, b SectionStore, vehicleID uint, draft models.VehicleAggregate) ([]applyFunc, error)

func defaultRoutes() map[Section]saveFunc {
	return map[Section]saveFunc{
		SectionVehicle:    saveVehicle,
		SectionShipping:   saveShipping,
		SectionPurchase:   savePurchase,
		SectionFinancials: saveFinancialSummary,
		SectionSales:      saveSales,
	}
}

func saveVehicle(ctx context.Context, b SectionStore, id uint, draft models.VehicleAggregate) ([]applyFunc, error) {
	v, err := b.UpdateVehicle(ctx, id, draft.Vehicle)
	if err != nil {
		return nil, err
	}
	return []applyFunc{func(a *models.VehicleAggregate) { a.Vehicle = v }}, nil
}

func saveShipping(ctx context.Context, b SectionStore, id uint, draft models.VehicleAggregate) ([]applyFunc, error) {
	sh := draft.Shipping
	sh.ShipmentDate = normalizeDate(sh.ShipmentDate)
	sh.ArrivalDate = normalizeDate(sh.ArrivalDate)
	sh.ClearingDate = normalizeDate(sh.ClearingDate)

	saved, err := b.UpdateShipping(ctx, id, sh)
	if err != nil {
		return nil, err
	}
	return []applyFunc{func(a *models.VehicleAggregate) { a.Shipping = saved }}, nil
}

func savePurchase(ctx context.Context, b SectionStore, id uint, draft models.VehicleAggregate) ([]applyFunc, error) {
	p := draft.Purchase
	p.PurchaseDate = normalizeDate(p.PurchaseDate)

	saved, err := b.UpdatePurchase(ctx, id, p)
	if err != nil {
		return nil, err
	}
	return []applyFunc{func(a *models.VehicleAggregate) { a.Purchase = saved }}, nil
}

// The Financial Summary card spans the vehicle's prices and the financials
// record: vehicle first, then financials.
func saveFinancialSummary(ctx context.Context, b SectionStore, id uint, draft models.VehicleAggregate) ([]applyFunc, error) {
	applied, err := saveVehicle(ctx, b, id, draft)
	if err != nil {
		return nil, err
	}

	f, err := b.UpdateFinancials(ctx, id, draft.Financials)
	if err != nil {
		return applied, err
	}
	return append(applied, func(a *models.VehicleAggregate) { a.Financials = f }), nil
}

func saveSales(ctx context.Context, b SectionStore, id uint, draft models.VehicleAggregate) ([]applyFunc, error) {
	sa := draft.Sales
	sa.SoldDate = normalizeDate(sa.SoldDate)

	saved, err := b.UpdateSales(ctx, id, sa)
	if err != nil {
		return nil, err
	}
	return []applyFunc{func(a *models.VehicleAggregate) { a.Sales = saved }}, nil
}

// normalizeDate: UTC, second precision.
func normalizeDate(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	n := t.UTC().Truncate(time.Second)
	return &n
}
