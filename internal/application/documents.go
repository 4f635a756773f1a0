package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cafetrace/exportflow/internal/domain"
	"github.com/cafetrace/exportflow/internal/ports"
)

// AddDocument stores the upload in the blob store and records its content
// hash on the ledger under the next version for the category. The version
// sequence per category is gapless from 1 and counts deactivated documents,
// so a version is never reused.
func (s *Service) AddDocument(ctx context.Context, actor domain.Actor, exportID string, req AddDocumentRequest) (domain.Document, error) {
	if err := requireActor(actor); err != nil {
		return domain.Document{}, err
	}
	if err := domain.ValidateExportID(exportID); err != nil {
		return domain.Document{}, err
	}
	if !domain.KnownDocumentCategory(req.Category) {
		return domain.Document{}, fmt.Errorf("%w: unknown document category %q", domain.ErrValidationFailed, req.Category)
	}
	if len(req.Data) == 0 {
		return domain.Document{}, fmt.Errorf("%w: document is empty", domain.ErrValidationFailed)
	}

	record, err := s.loadFromLedger(ctx, exportID)
	if err != nil {
		return domain.Document{}, err
	}
	if record.Status.IsTerminal() {
		return domain.Document{}, fmt.Errorf("%w: export %s is %s", domain.ErrValidationFailed, exportID, record.Status)
	}

	hash, err := s.blobs.Put(ctx, req.Data, req.ContentType)
	if err != nil {
		return domain.Document{}, err
	}
	doc := domain.Document{
		Category:    req.Category,
		ContentHash: hash,
		Version:     record.NextDocumentVersion(req.Category),
		Timestamp:   s.nowFn(),
		IsActive:    true,
		UploadedBy:  actor.ID,
	}
	record.Documents = append(record.Documents, doc)
	if err := s.putRecord(ctx, record); err != nil {
		return domain.Document{}, err
	}
	s.invalidate(ctx, exportID)
	return doc, nil
}

// DeactivateDocument flips the document inactive. The row stays on the
// ledger for history and its version is never reassigned.
func (s *Service) DeactivateDocument(ctx context.Context, actor domain.Actor, exportID string, category domain.DocumentCategory, version int) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if err := domain.ValidateExportID(exportID); err != nil {
		return err
	}
	record, err := s.loadFromLedger(ctx, exportID)
	if err != nil {
		return err
	}
	found := false
	for i := range record.Documents {
		d := &record.Documents[i]
		if d.Category == category && d.Version == version {
			if !d.IsActive {
				return fmt.Errorf("%w: document %s v%d is already inactive", domain.ErrValidationFailed, category, version)
			}
			d.IsActive = false
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: document %s v%d", domain.ErrNotFound, category, version)
	}
	if err := s.putRecord(ctx, record); err != nil {
		return err
	}
	s.invalidate(ctx, exportID)
	return nil
}

// GetDocument returns the stored bytes for a recorded document version.
func (s *Service) GetDocument(ctx context.Context, exportID string, category domain.DocumentCategory, version int) ([]byte, error) {
	record, err := s.GetCurrent(ctx, exportID)
	if err != nil {
		return nil, err
	}
	for _, d := range record.Documents {
		if d.Category == category && d.Version == version {
			return s.blobs.Get(ctx, d.ContentHash)
		}
	}
	return nil, fmt.Errorf("%w: document %s v%d", domain.ErrNotFound, category, version)
}

func (s *Service) putRecord(ctx context.Context, record domain.ExportRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: marshal export: %v", domain.ErrInternal, err)
	}
	_, err = s.ledger.Submit(ctx, ports.LedgerFnPutExport, string(raw))
	return err
}
