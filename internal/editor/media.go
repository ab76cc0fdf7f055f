package editor

import (
	"context"
	"fmt"
	"sort"

	"vehicle-admin/internal/models"
)

// SortImages returns a copy ordered primary first, then by display order, then by id.
func SortImages(images []models.VehicleImage) []models.VehicleImage {
	out := append([]models.VehicleImage(nil), images...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsPrimary != b.IsPrimary {
			return a.IsPrimary
		}
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder < b.DisplayOrder
		}
		return a.ID < b.ID
	})
	return out
}

func (s *Session) Images() []models.VehicleImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SortImages(s.draft.Images)
}

func (s *Session) Documents() []models.VehicleDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.VehicleDocument(nil), s.draft.Documents...)
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

// UploadDocument persists immediately; the Documents section must be in edit mode.
func (s *Session) UploadDocument(ctx context.Context, f FileUpload) (models.VehicleDocument, error) {
	if len(f.Content) > MaxUploadSize {
		s.notifier.Notify(NotifyError, "Upload failed", fmt.Sprintf("%s is larger than 10 MB", f.Filename))
		return models.VehicleDocument{}, fmt.Errorf("%w: %s", ErrFileTooLarge, f.Filename)
	}
	if f.Type == "" {
		f.Type = models.DocumentOther
	}
	if !f.Type.Valid() {
		return models.VehicleDocument{}, fmt.Errorf("%w: document type %q", ErrInvalidValue, f.Type)
	}
	if err := s.acquireDocuments(); err != nil {
		return models.VehicleDocument{}, err
	}

	doc, err := s.backend.UploadDocument(ctx, s.vehicleID, f)

	s.mu.Lock()
	s.busy = false
	if err == nil {
		s.draft.Documents = append(s.draft.Documents, doc)
		s.snapshot.Documents = append(s.snapshot.Documents, doc)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("document upload failed", "vehicle_id", s.vehicleID, "filename", f.Filename, "error", err)
		s.notifier.Notify(NotifyError, "Upload failed", reason(err))
		return models.VehicleDocument{}, fmt.Errorf("upload %s: %w", f.Filename, err)
	}
	s.notifier.Notify(NotifySuccess, "Document uploaded", doc.Filename)
	return doc, nil
}

func (s *Session) DeleteDocument(ctx context.Context, documentID uint) error {
	if err := s.acquireDocuments(); err != nil {
		return err
	}

	err := s.backend.DeleteDocument(ctx, s.vehicleID, documentID)

	s.mu.Lock()
	s.busy = false
	if err == nil {
		s.draft.Documents = withoutDocument(s.draft.Documents, documentID)
		s.snapshot.Documents = withoutDocument(s.snapshot.Documents, documentID)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("document delete failed", "vehicle_id", s.vehicleID, "document_id", documentID, "error", err)
		s.notifier.Notify(NotifyError, "Delete failed", reason(err))
		return fmt.Errorf("delete document %d: %w", documentID, err)
	}
	s.notifier.Notify(NotifySuccess, "Document deleted", "")
	return nil
}

// DocumentURL resolves a download link. Viewing is enough.
func (s *Session) DocumentURL(ctx context.Context, documentID uint) (string, error) {
	u, err := s.backend.DocumentURL(ctx, s.vehicleID, documentID)
	if err != nil {
		s.logger.Warn("document url failed", "vehicle_id", s.vehicleID, "document_id", documentID, "error", err)
		return "", fmt.Errorf("document %d url: %w", documentID, err)
	}
	return u, nil
}

func (s *Session) acquireDocuments() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.busy:
		return ErrBusy
	case !s.state.Editing || s.state.Section != SectionDocuments:
		return ErrNotDocuments
	}
	s.busy = true
	return nil
}

func withoutDocument(docs []models.VehicleDocument, id uint) []models.VehicleDocument {
	out := make([]models.VehicleDocument, 0, len(docs))
	for _, d := range docs {
		if d.ID != id {
			out = append(out, d)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Images
// ---------------------------------------------------------------------------

// UploadImages appends the stored images to the set and drops the memoized URLs.
func (s *Session) UploadImages(ctx context.Context, files []FileUpload) ([]models.VehicleImage, error) {
	if len(files) == 0 {
		return nil, nil
	}
	for _, f := range files {
		if len(f.Content) > MaxUploadSize {
			s.notifier.Notify(NotifyError, "Upload failed", fmt.Sprintf("%s is larger than 10 MB", f.Filename))
			return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, f.Filename)
		}
	}
	if err := s.acquireImages(); err != nil {
		return nil, err
	}

	added, err := s.backend.UploadImages(ctx, s.vehicleID, files)
	if err == nil {
		s.backend.InvalidateImageURLs(s.vehicleID)
	}

	s.mu.Lock()
	s.busy = false
	if err == nil {
		s.draft.Images = append(s.draft.Images, added...)
		s.snapshot.Images = append(s.snapshot.Images, added...)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("image upload failed", "vehicle_id", s.vehicleID, "count", len(files), "error", err)
		s.notifier.Notify(NotifyError, "Upload failed", reason(err))
		return nil, fmt.Errorf("upload images: %w", err)
	}
	s.notifier.Notify(NotifySuccess, "Images uploaded", fmt.Sprintf("%d image(s) added", len(added)))
	return added, nil
}

// SetPrimaryImage marks one image primary, drops the memoized URLs and
// refetches the vehicle so the flags match the server.
func (s *Session) SetPrimaryImage(ctx context.Context, imageID uint) error {
	if err := s.acquireImages(); err != nil {
		return err
	}

	err := s.backend.SetPrimaryImage(ctx, s.vehicleID, imageID)
	if err != nil {
		s.release()
		s.logger.Warn("set primary image failed", "vehicle_id", s.vehicleID, "image_id", imageID, "error", err)
		s.notifier.Notify(NotifyError, "Update failed", reason(err))
		return fmt.Errorf("set primary image %d: %w", imageID, err)
	}
	s.backend.InvalidateImageURLs(s.vehicleID)

	agg, err := s.backend.FetchVehicle(ctx, s.vehicleID)

	s.mu.Lock()
	s.busy = false
	if err == nil {
		if s.state.Editing {
			// keep the open draft; only the media lists are refreshed
			s.draft.Images, s.draft.Documents = agg.Images, agg.Documents
			s.snapshot.Images, s.snapshot.Documents = cloneMedia(agg)
		} else {
			s.draft = agg
			s.snapshot = agg.Clone()
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("vehicle refetch failed", "vehicle_id", s.vehicleID, "error", err)
		s.notifier.Notify(NotifyWarning, "Primary image updated", "Reload to see the latest images")
		return nil
	}
	s.notifier.Notify(NotifySuccess, "Primary image updated", "")
	return nil
}

// ImageURL pairs an image with its signed URL.
type ImageURL struct {
	Image models.VehicleImage
	URL   string
}

// ResolveImageURLs returns the signed URL of every image in display order.
// Images whose URL cannot be resolved are left out.
func (s *Session) ResolveImageURLs(ctx context.Context) []ImageURL {
	images := s.Images()
	out := make([]ImageURL, 0, len(images))
	for _, img := range images {
		u, err := s.backend.ImageURL(ctx, s.vehicleID, img.ID)
		if err != nil {
			s.logger.Warn("image url failed", "vehicle_id", s.vehicleID, "image_id", img.ID, "error", err)
			continue
		}
		out = append(out, ImageURL{Image: img, URL: u})
	}
	return out
}

func (s *Session) acquireImages() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.loaded:
		return ErrNotLoaded
	case s.busy:
		return ErrBusy
	case !s.canImages:
		return fmt.Errorf("%w: images.manage", ErrForbidden)
	}
	s.busy = true
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func cloneMedia(a models.VehicleAggregate) ([]models.VehicleImage, []models.VehicleDocument) {
	c := a.Clone()
	return c.Images, c.Documents
}
