// Package service implements report CRUD and attachment handling, with
// mutations gated through the policy engine.
package service

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	accountdomain "report-api/internal/account/domain"
	"report-api/internal/audit"
	"report-api/internal/policy/engine"
	"report-api/internal/report/domain"
)

// Sentinel errors for the report service; handlers map them to HTTP statuses.
var (
	ErrReportNotFound     = errors.New("report not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrPermissionDenied   = errors.New("account may not perform this action")
)

// ReportRepo is the minimal report repository needed by the service.
type ReportRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	Create(ctx context.Context, r *domain.Report) error
	Update(ctx context.Context, r *domain.Report) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]*domain.Report, error)
}

// Storage persists attachment content.
type Storage interface {
	Save(r io.Reader) (storedName string, size int64, err error)
	Open(storedName string) (io.ReadCloser, error)
	Remove(storedName string) error
}

// ReportService implements report operations on behalf of an authenticated
// account.
type ReportService struct {
	repo    ReportRepo
	storage Storage
	policy  engine.Evaluator
	audit   audit.AuditLogger
	now     func() time.Time
}

// NewReportService returns a ReportService with the given dependencies.
// storage and auditLogger may be nil (attachments disabled, audit disabled).
func NewReportService(repo ReportRepo, storage Storage, policy engine.Evaluator, auditLogger audit.AuditLogger) *ReportService {
	return &ReportService{
		repo:    repo,
		storage: storage,
		policy:  policy,
		audit:   auditLogger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *ReportService) allow(ctx context.Context, account *accountdomain.Account, action string, ownerID string) error {
	ok, err := s.policy.Allow(ctx, account, action, engine.Resource{Kind: "report", OwnerID: ownerID})
	if err != nil {
		return err
	}
	if !ok {
		return ErrPermissionDenied
	}
	return nil
}

// Create stores a new report authored by account.
func (s *ReportService) Create(ctx context.Context, account *accountdomain.Account, title, body string) (*domain.Report, error) {
	if err := s.allow(ctx, account, engine.ActionReportCreate, account.ID); err != nil {
		return nil, err
	}
	now := s.now()
	rep := &domain.Report{
		ID:        uuid.New().String(),
		Title:     title,
		Body:      body,
		AuthorID:  account.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := rep.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, err
	}
	if s.audit != nil {
		s.audit.LogEvent(ctx, account.ID, audit.ActionReportCreated, "report/"+rep.ID, "")
	}
	return rep, nil
}

// Get returns a report by ID. Any approved session may read reports.
func (s *ReportService) Get(ctx context.Context, id string) (*domain.Report, error) {
	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, ErrReportNotFound
	}
	return rep, nil
}

// List returns all reports.
func (s *ReportService) List(ctx context.Context) ([]*domain.Report, error) {
	return s.repo.List(ctx)
}

// Update replaces the title and body of an existing report. Only the author
// or an admin may update it.
func (s *ReportService) Update(ctx context.Context, account *accountdomain.Account, id, title, body string) (*domain.Report, error) {
	rep, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, account, engine.ActionReportUpdate, rep.AuthorID); err != nil {
		return nil, err
	}
	rep.Title = title
	rep.Body = body
	rep.UpdatedAt = s.now()
	if err := rep.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, rep); err != nil {
		return nil, err
	}
	if s.audit != nil {
		s.audit.LogEvent(ctx, account.ID, audit.ActionReportUpdated, "report/"+rep.ID, "")
	}
	return rep, nil
}

// Delete removes a report and its stored attachment files. Only the author or
// an admin may delete it.
func (s *ReportService) Delete(ctx context.Context, account *accountdomain.Account, id string) error {
	rep, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.allow(ctx, account, engine.ActionReportDelete, rep.AuthorID); err != nil {
		return err
	}
	existed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return ErrReportNotFound
	}
	if s.storage != nil {
		for _, att := range rep.Attachments {
			if err := s.storage.Remove(att.StoredName); err != nil {
				log.Printf("report: remove attachment %s: %v", att.ID, err)
			}
		}
	}
	if s.audit != nil {
		s.audit.LogEvent(ctx, account.ID, audit.ActionReportDeleted, "report/"+id, "")
	}
	return nil
}

// Attach stores an uploaded file and records it on the report. Gated like an
// update: author or admin.
func (s *ReportService) Attach(ctx context.Context, account *accountdomain.Account, reportID, filename, contentType string, r io.Reader) (*domain.Attachment, error) {
	rep, err := s.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if err := s.allow(ctx, account, engine.ActionReportUpdate, rep.AuthorID); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, errors.New("report: attachment storage not configured")
	}
	storedName, size, err := s.storage.Save(r)
	if err != nil {
		return nil, err
	}
	att := domain.Attachment{
		ID:          uuid.New().String(),
		Name:        filename,
		ContentType: contentType,
		Size:        size,
		StoredName:  storedName,
		CreatedAt:   s.now(),
	}
	rep.Attachments = append(rep.Attachments, att)
	rep.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, rep); err != nil {
		_ = s.storage.Remove(storedName)
		return nil, err
	}
	if s.audit != nil {
		s.audit.LogEvent(ctx, account.ID, audit.ActionReportUpdated, "report/"+rep.ID, "attachment "+att.ID)
	}
	return &att, nil
}

// OpenAttachment returns the attachment metadata and a reader for its
// content. Caller must close the reader.
func (s *ReportService) OpenAttachment(ctx context.Context, reportID, attachmentID string) (*domain.Attachment, io.ReadCloser, error) {
	rep, err := s.Get(ctx, reportID)
	if err != nil {
		return nil, nil, err
	}
	for i := range rep.Attachments {
		att := rep.Attachments[i]
		if att.ID != attachmentID {
			continue
		}
		if s.storage == nil {
			return nil, nil, ErrAttachmentNotFound
		}
		rc, err := s.storage.Open(att.StoredName)
		if err != nil {
			return nil, nil, err
		}
		return &att, rc, nil
	}
	return nil, nil, ErrAttachmentNotFound
}
