package editor

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"vehicle-admin/internal/models"
	"vehicle-admin/internal/permission"

	"github.com/shopspring/decimal"
)

func imageIDs(images []models.VehicleImage) []uint {
	ids := make([]uint, len(images))
	for i, img := range images {
		ids[i] = img.ID
	}
	return ids
}

func TestSortImages(t *testing.T) {
	images := []models.VehicleImage{
		{ID: 1, DisplayOrder: 2},
		{ID: 2, DisplayOrder: 5, IsPrimary: true},
		{ID: 3, DisplayOrder: 1},
	}
	if got := imageIDs(SortImages(images)); !reflect.DeepEqual(got, []uint{2, 3, 1}) {
		t.Errorf("Expected [2 3 1], got %v", got)
	}
	if images[0].ID != 1 {
		t.Error("SortImages reordered its input")
	}

	ties := []models.VehicleImage{{ID: 9, DisplayOrder: 1}, {ID: 4, DisplayOrder: 1}}
	if got := imageIDs(SortImages(ties)); !reflect.DeepEqual(got, []uint{4, 9}) {
		t.Errorf("Expected ties broken by id, got %v", got)
	}
}

func TestSetPrimaryImageRefetches(t *testing.T) {
	s, b, n := newTestSession(t)

	if err := s.SetPrimaryImage(context.Background(), 3); err != nil {
		t.Fatalf("SetPrimaryImage failed: %v", err)
	}
	calls := b.Calls()
	if !reflect.DeepEqual(calls[len(calls)-2:], []string{"set-primary", "fetch"}) {
		t.Errorf("Expected set-primary then fetch, got %v", calls)
	}
	if b.invalidated != 1 {
		t.Errorf("Expected URL cache invalidated once, got %d", b.invalidated)
	}
	if got := imageIDs(s.Images()); !reflect.DeepEqual(got, []uint{3, 1, 2}) {
		t.Errorf("Expected [3 1 2], got %v", got)
	}
	if last, _ := n.last(); last.Kind != NotifySuccess {
		t.Errorf("Expected success notification, got %+v", last)
	}
}

func TestSetPrimaryImageKeepsOpenDraft(t *testing.T) {
	s, _, _ := newTestSession(t)
	editSection(t, s, SectionSales)
	_ = s.Update(SectionSales, "revenue", 200000)

	if err := s.SetPrimaryImage(context.Background(), 1); err != nil {
		t.Fatalf("SetPrimaryImage failed: %v", err)
	}
	if !s.IsEditing(SectionSales) {
		t.Fatal("Expected Sales still in edit mode")
	}
	a := s.Aggregate()
	if !a.Sales.Revenue.Equal(decimal.NewFromInt(200000)) {
		t.Errorf("Draft edit lost, revenue=%s", a.Sales.Revenue)
	}
	if got := imageIDs(SortImages(a.Images)); got[0] != 1 {
		t.Errorf("Expected image 1 primary, got %v", got)
	}
}

func TestSetPrimaryImageFailure(t *testing.T) {
	s, b, n := newTestSession(t)
	b.failOn["set-primary"] = errors.New("image not found")

	if err := s.SetPrimaryImage(context.Background(), 42); err == nil {
		t.Fatal("Expected error")
	}
	if b.invalidated != 0 || s.Busy() {
		t.Errorf("Unexpected state after failure: invalidated=%d busy=%v", b.invalidated, s.Busy())
	}
	if last, _ := n.last(); last.Kind != NotifyError {
		t.Errorf("Expected error notification, got %+v", last)
	}
}

func TestImageOpsRequireCapability(t *testing.T) {
	s, _, _ := newTestSession(t, permission.SalesUpdate)
	if err := s.SetPrimaryImage(context.Background(), 1); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
	_, err := s.UploadImages(context.Background(), []FileUpload{{Filename: "a.jpg", Content: []byte("x")}})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
}

func TestUploadImagesAppendsAndInvalidates(t *testing.T) {
	s, b, _ := newTestSession(t)

	added, err := s.UploadImages(context.Background(), []FileUpload{
		{Filename: "interior.jpg", Content: []byte("jpeg")},
		{Filename: "engine.jpg", Content: []byte("jpeg")},
	})
	if err != nil {
		t.Fatalf("UploadImages failed: %v", err)
	}
	if len(added) != 2 || len(s.Images()) != 5 {
		t.Errorf("Expected 2 added and 5 total, got %d and %d", len(added), len(s.Images()))
	}
	if b.invalidated != 1 {
		t.Errorf("Expected URL cache invalidated once, got %d", b.invalidated)
	}
}

func TestUploadImagesTooLarge(t *testing.T) {
	s, b, _ := newTestSession(t)
	_, err := s.UploadImages(context.Background(), []FileUpload{
		{Filename: "ok.jpg", Content: []byte("jpeg")},
		{Filename: "huge.jpg", Content: make([]byte, MaxUploadSize+1)},
	})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("Expected ErrFileTooLarge, got %v", err)
	}
	if len(b.Calls()) != 1 {
		t.Errorf("Expected no upload request, got %v", b.Calls())
	}
}

func TestResolveImageURLsOmitsFailures(t *testing.T) {
	s, b, _ := newTestSession(t)
	b.urlErr[3] = errors.New("signing failed")

	urls := s.ResolveImageURLs(context.Background())
	if len(urls) != 2 {
		t.Fatalf("Expected 2 urls, got %d", len(urls))
	}
	if urls[0].Image.ID != 2 || urls[1].Image.ID != 1 {
		t.Errorf("Expected display order [2 1], got [%d %d]", urls[0].Image.ID, urls[1].Image.ID)
	}
	if urls[0].URL != "https://files.test/img/2" {
		t.Errorf("Unexpected url %q", urls[0].URL)
	}
}

func TestDocumentsRequireEditMode(t *testing.T) {
	s, b, _ := newTestSession(t)

	_, err := s.UploadDocument(context.Background(), FileUpload{Filename: "bl.pdf", Type: models.DocumentBillOfLading, Content: []byte("%PDF")})
	if !errors.Is(err, ErrNotDocuments) {
		t.Errorf("Expected ErrNotDocuments, got %v", err)
	}
	if err := s.DeleteDocument(context.Background(), 1); !errors.Is(err, ErrNotDocuments) {
		t.Errorf("Expected ErrNotDocuments, got %v", err)
	}
	if err := s.Done(); !errors.Is(err, ErrNotDocuments) {
		t.Errorf("Expected ErrNotDocuments from Done, got %v", err)
	}
	if len(b.Calls()) != 1 {
		t.Errorf("Expected no requests, got %v", b.Calls())
	}
}

func TestDocumentUploadAndDelete(t *testing.T) {
	s, b, _ := newTestSession(t)
	editSection(t, s, SectionDocuments)

	doc, err := s.UploadDocument(context.Background(), FileUpload{Filename: "bl.pdf", Type: models.DocumentBillOfLading, Content: []byte("%PDF")})
	if err != nil {
		t.Fatalf("UploadDocument failed: %v", err)
	}
	if err := s.DeleteDocument(context.Background(), 1); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}

	// persisted immediately, so cancel keeps them
	if err := s.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	docs := s.Documents()
	if len(docs) != 1 || docs[0].ID != doc.ID {
		t.Errorf("Expected only the uploaded document, got %+v", docs)
	}

	editSection(t, s, SectionDocuments)
	if err := s.Done(); err != nil {
		t.Fatalf("Done failed: %v", err)
	}
	if s.State().Editing {
		t.Error("Expected Viewing after Done")
	}
	if got := b.Calls(); !reflect.DeepEqual(got, []string{"fetch", "upload-document", "delete-document"}) {
		t.Errorf("Unexpected requests %v", got)
	}
}

func TestSaveOnDocumentsSubmitsNothing(t *testing.T) {
	s, b, _ := newTestSession(t)
	editSection(t, s, SectionDocuments)
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if s.State().Editing || len(b.Calls()) != 1 {
		t.Errorf("Expected Viewing and no requests, got %s %v", s.State(), b.Calls())
	}
}

func TestDocumentTooLarge(t *testing.T) {
	s, b, n := newTestSession(t)
	editSection(t, s, SectionDocuments)

	_, err := s.UploadDocument(context.Background(), FileUpload{Filename: "scan.pdf", Content: make([]byte, MaxUploadSize+1)})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("Expected ErrFileTooLarge, got %v", err)
	}
	if len(b.Calls()) != 1 {
		t.Errorf("Expected no upload request, got %v", b.Calls())
	}
	if last, _ := n.last(); last.Kind != NotifyError {
		t.Errorf("Expected error notification, got %+v", last)
	}
}

func TestDocumentsForbidden(t *testing.T) {
	s, _, _ := newTestSession(t, permission.SalesUpdate)
	s.JumpTo(int(SectionDocuments))
	if err := s.BeginEdit(); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
}
