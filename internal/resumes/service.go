package resumes

import (
	"context"
	"errors"
	"fmt"
	"io"

	"resumind-backend/internal/blobstore"
	"resumind-backend/internal/kvstore"
	"resumind-backend/internal/records"
	"resumind-backend/internal/shared/telemetry"
)

// ErrNotFound is returned when no record exists for an id.
var ErrNotFound = errors.New("resume not found")

// Service reads and deletes persisted analysis records and resolves their
// stored artifacts. Writes go exclusively through the pipeline.
type Service struct {
	Records kvstore.Store
	Blobs   blobstore.Store
}

// List returns every stored record. Values that no longer deserialize are
// skipped and logged rather than failing the whole listing.
func (s *Service) List(ctx context.Context) ([]records.AnalysisRecord, error) {
	entries, err := s.Records.List(ctx, records.KeyPrefix+"*", true)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	out := make([]records.AnalysisRecord, 0, len(entries))
	for _, entry := range entries {
		rec, err := records.Deserialize(entry.Value)
		if err != nil {
			telemetry.Error("resumes.skip_invalid", map[string]any{
				"key":   entry.Key,
				"error": err.Error(),
			})
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Get returns one record by id.
func (s *Service) Get(ctx context.Context, id string) (records.AnalysisRecord, error) {
	if id == "" {
		return records.AnalysisRecord{}, ErrNotFound
	}
	value, err := s.Records.Get(ctx, records.KeyPrefix+id)
	if errors.Is(err, kvstore.ErrNotFound) {
		return records.AnalysisRecord{}, ErrNotFound
	}
	if err != nil {
		return records.AnalysisRecord{}, fmt.Errorf("get record: %w", err)
	}
	return records.Deserialize(value)
}

// Delete removes one record. Stored blobs are left in place.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrNotFound
	}
	if err := s.Records.Delete(ctx, records.KeyPrefix+id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Wipe removes every stored record.
func (s *Service) Wipe(ctx context.Context) error {
	entries, err := s.Records.List(ctx, records.KeyPrefix+"*", false)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	for _, entry := range entries {
		if err := s.Records.Delete(ctx, entry.Key); err != nil {
			return fmt.Errorf("delete %s: %w", entry.Key, err)
		}
	}
	return nil
}

// OpenResume streams the originally submitted document for a record.
func (s *Service) OpenResume(ctx context.Context, id string) (io.ReadCloser, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Blobs.Open(ctx, rec.ResumePath)
}

// OpenImage streams the rendered preview image for a record.
func (s *Service) OpenImage(ctx context.Context, id string) (io.ReadCloser, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Blobs.Open(ctx, rec.ImagePath)
}
