package progress

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

var (
	// errors
	ErrNotFound        = errors.New("progress record not found")
	ErrRecordExists    = errors.New("a progress record already exists for this user and course")
	ErrContentNotFound = errors.New("content not found in course")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		GetRecord(ctx context.Context, userID, courseID string) (Record, error)
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		UpdateRecord(ctx context.Context, rec Record) (Record, error)
		DeleteRecord(ctx context.Context, userID, courseID string) error
	}

	// Directory resolves user contact details.
	// It is implemented by the identity collaborator.
	Directory interface {
		GetIdentity(ctx context.Context, userID string) (core.Identity, error)
	}

	Service struct {
		repo    Repository
		dir     Directory
		mailSvc core.EmailService
		logger  core.Logger
	}
)

func NewService(repo Repository, dir Directory, mailSvc core.EmailService, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		dir:     dir,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// GetOrCreate returns the record for the (userID, courseID) pair, creating an
// empty one on first access. Idempotent.
func (svc *Service) GetOrCreate(ctx context.Context, userID, courseID string, cs course.Structure) (Record, error) {
	rec, err := svc.repo.GetRecord(ctx, userID, courseID)
	if err == nil {
		return rec, nil
	}
	if err != ErrNotFound {
		return Record{}, err
	}
	rec = NewRecord(userID, courseID, nowFunc().UTC())
	for _, sec := range cs {
		rec.SectionProgress[sec.ID] = 0
	}
	return svc.repo.CreateRecord(ctx, rec)
}

// UpdateContentProgress stores a content item's progress percentage and
// recomputes the derived section and course percentages. Completion marks are
// not affected. All input validation happens before any mutation.
func (svc *Service) UpdateContentProgress(ctx context.Context, rec Record, cs course.Structure, contentID string, pct int) (Record, error) {
	cu := ContentUpdate{ContentID: contentID, Progress: pct}
	if err := cu.Validate(); err != nil {
		return Record{}, err
	}
	if !cs.Contains(cu.ContentID) {
		return Record{}, ErrContentNotFound
	}

	rec.SetContentProgress(cs, cu.ContentID, cu.Progress, nowFunc().UTC())
	return svc.repo.UpdateRecord(ctx, rec)
}

// MarkCompleted marks a content item as completed. Calling it again for the
// same content is a no-op. The first time the whole course reaches 100%, the
// student is sent a completion notice.
func (svc *Service) MarkCompleted(ctx context.Context, rec Record, cs course.Structure, contentID string) (Record, error) {
	if !cs.Contains(contentID) {
		return Record{}, ErrContentNotFound
	}
	if rec.IsContentCompleted(contentID) {
		return rec, nil
	}

	courseCompleted := rec.CompleteContent(cs, contentID, nowFunc().UTC())
	rec, err := svc.repo.UpdateRecord(ctx, rec)
	if err != nil {
		return Record{}, err
	}
	if courseCompleted {
		svc.sendCompletionMail(ctx, rec)
	}
	return rec, nil
}

// Reset zeroes all progress fields. The record row is kept.
func (svc *Service) Reset(ctx context.Context, rec Record) (Record, error) {
	rec.Reset()
	return svc.repo.UpdateRecord(ctx, rec)
}

// Delete removes the record entirely (enrollment removal).
func (svc *Service) Delete(ctx context.Context, userID, courseID string) error {
	return svc.repo.DeleteRecord(ctx, userID, courseID)
}

func (svc *Service) sendCompletionMail(ctx context.Context, rec Record) {
	idt, err := svc.dir.GetIdentity(ctx, rec.UserID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("resolving identity %s: %v", rec.UserID, err), err)
		return
	}
	if idt.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: idt.Name, Address: idt.Email}},
		Subject:      "Course completed",
		TemplateName: "course-completed",
		TemplateData: struct{ Name, CourseID string }{idt.Name, rec.CourseID},
	})
}
