package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vehicle-admin/internal/models"

	"github.com/shopspring/decimal"
)

// fakeBackend is an in-memory Backend. failOn makes the named call fail.
type fakeBackend struct {
	mu sync.Mutex

	agg    models.VehicleAggregate
	calls  []string
	failOn map[string]error

	urlErr      map[uint]error
	invalidated int
	nextID      uint

	// block, when set, is waited on by every section update
	block chan struct{}
}

func newFakeBackend() *fakeBackend {
	shipped := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return &fakeBackend{
		agg: models.VehicleAggregate{
			Vehicle: models.Vehicle{
				ID: 7, Code: "V-0007", Make: "Toyota", Model: "Aqua", Year: 2019,
				Currency: "JPY", QuotedPrice: decimal.NewFromInt(900000), AuctionPrice: decimal.NewFromInt(850000),
			},
			Shipping: models.VehicleShipping{ID: 1, VehicleID: 7, VesselName: "Morning Lily", Status: models.ShippingShipped, ShipmentDate: &shipped},
			Purchase: models.VehiclePurchase{ID: 1, VehicleID: 7, LCCostJPY: decimal.NewFromInt(1000), ExchangeRate: decimal.RequireFromString("2.5")},
			Financials: models.VehicleFinancials{
				ID: 1, VehicleID: 7,
				TTLKR: decimal.NewFromInt(100000), ChargesLKR: decimal.NewFromInt(5000),
				DutyLKR: decimal.NewFromInt(20000), ClearingLKR: decimal.NewFromInt(1000),
				OtherExpenses: models.OtherExpenses{"transport": decimal.NewFromInt(400)},
				TotalCostLKR:  decimal.NewFromInt(128900),
			},
			Sales: models.VehicleSales{ID: 1, VehicleID: 7, SaleStatus: models.SaleAvailable, Revenue: decimal.NewFromInt(150000), Profit: decimal.NewFromInt(21100)},
			Documents: []models.VehicleDocument{
				{ID: 1, VehicleID: 7, Filename: "invoice.pdf", Type: models.DocumentInvoice, Size: 1024},
			},
			Images: []models.VehicleImage{
				{ID: 1, VehicleID: 7, Filename: "front.jpg", DisplayOrder: 2},
				{ID: 2, VehicleID: 7, Filename: "side.jpg", DisplayOrder: 5, IsPrimary: true},
				{ID: 3, VehicleID: 7, Filename: "rear.jpg", DisplayOrder: 1},
			},
		},
		failOn: map[string]error{},
		urlErr: map[uint]error{},
		nextID: 100,
	}
}

func (f *fakeBackend) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failOn[call]
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) wait() {
	if f.block != nil {
		<-f.block
	}
}

func (f *fakeBackend) FetchVehicle(ctx context.Context, id uint) (models.VehicleAggregate, error) {
	if err := f.record("fetch"); err != nil {
		return models.VehicleAggregate{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.agg.Clone(), nil
}

func (f *fakeBackend) UpdateVehicle(ctx context.Context, id uint, v models.Vehicle) (models.Vehicle, error) {
	f.wait()
	if err := f.record("vehicle"); err != nil {
		return models.Vehicle{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agg.Vehicle = v
	return v, nil
}

func (f *fakeBackend) UpdateShipping(ctx context.Context, id uint, s models.VehicleShipping) (models.VehicleShipping, error) {
	f.wait()
	if err := f.record("shipping"); err != nil {
		return models.VehicleShipping{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agg.Shipping = s
	return s, nil
}

func (f *fakeBackend) UpdatePurchase(ctx context.Context, id uint, p models.VehiclePurchase) (models.VehiclePurchase, error) {
	f.wait()
	if err := f.record("purchase"); err != nil {
		return models.VehiclePurchase{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agg.Purchase = p
	return p, nil
}

func (f *fakeBackend) UpdateFinancials(ctx context.Context, id uint, fin models.VehicleFinancials) (models.VehicleFinancials, error) {
	f.wait()
	if err := f.record("financials"); err != nil {
		return models.VehicleFinancials{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agg.Financials = fin
	return fin, nil
}

func (f *fakeBackend) UpdateSales(ctx context.Context, id uint, s models.VehicleSales) (models.VehicleSales, error) {
	f.wait()
	if err := f.record("sales"); err != nil {
		return models.VehicleSales{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agg.Sales = s
	return s, nil
}

func (f *fakeBackend) UploadDocument(ctx context.Context, id uint, up FileUpload) (models.VehicleDocument, error) {
	if err := f.record("upload-document"); err != nil {
		return models.VehicleDocument{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	doc := models.VehicleDocument{ID: f.nextID, VehicleID: id, Filename: up.Filename, Type: up.Type, Size: int64(len(up.Content))}
	f.agg.Documents = append(f.agg.Documents, doc)
	return doc, nil
}

func (f *fakeBackend) DeleteDocument(ctx context.Context, id, docID uint) error {
	if err := f.record("delete-document"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agg.Documents = withoutDocument(f.agg.Documents, docID)
	return nil
}

func (f *fakeBackend) DocumentURL(ctx context.Context, id, docID uint) (string, error) {
	if err := f.record("document-url"); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://files.test/doc/%d", docID), nil
}

func (f *fakeBackend) UploadImages(ctx context.Context, id uint, files []FileUpload) ([]models.VehicleImage, error) {
	if err := f.record("upload-images"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var added []models.VehicleImage
	for i, up := range files {
		f.nextID++
		img := models.VehicleImage{ID: f.nextID, VehicleID: id, Filename: up.Filename, DisplayOrder: 10 + i}
		added = append(added, img)
	}
	f.agg.Images = append(f.agg.Images, added...)
	return added, nil
}

func (f *fakeBackend) SetPrimaryImage(ctx context.Context, id, imageID uint) error {
	if err := f.record("set-primary"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	found := false
	for i := range f.agg.Images {
		f.agg.Images[i].IsPrimary = f.agg.Images[i].ID == imageID
		found = found || f.agg.Images[i].ID == imageID
	}
	if !found {
		return errors.New("image not found")
	}
	return nil
}

func (f *fakeBackend) ImageURL(ctx context.Context, id, imageID uint) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "image-url")
	if err := f.urlErr[imageID]; err != nil {
		return "", err
	}
	return fmt.Sprintf("https://files.test/img/%d", imageID), nil
}

func (f *fakeBackend) InvalidateImageURLs(id uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
}

type notification struct {
	Kind    NotificationKind
	Title   string
	Message string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (r *recordingNotifier) Notify(kind NotificationKind, title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, notification{kind, title, message})
}

func (r *recordingNotifier) last() (notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return notification{}, false
	}
	return r.sent[len(r.sent)-1], true
}
