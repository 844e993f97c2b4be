package progress

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	emailsvc "github.com/trezcool/darasa/services/email"
)

type fakeRepository struct {
	records map[string]Record
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{records: make(map[string]Record)}
}

func (repo *fakeRepository) key(userID, courseID string) string { return userID + "|" + courseID }

func (repo *fakeRepository) GetRecord(ctx context.Context, userID, courseID string) (Record, error) {
	rec, ok := repo.records[repo.key(userID, courseID)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (repo *fakeRepository) CreateRecord(ctx context.Context, rec Record) (Record, error) {
	k := repo.key(rec.UserID, rec.CourseID)
	if _, ok := repo.records[k]; ok {
		return Record{}, ErrRecordExists
	}
	rec.ID = k
	repo.records[k] = rec
	return rec, nil
}

func (repo *fakeRepository) UpdateRecord(ctx context.Context, rec Record) (Record, error) {
	k := repo.key(rec.UserID, rec.CourseID)
	if _, ok := repo.records[k]; !ok {
		return Record{}, ErrNotFound
	}
	repo.records[k] = rec
	return rec, nil
}

func (repo *fakeRepository) DeleteRecord(ctx context.Context, userID, courseID string) error {
	k := repo.key(userID, courseID)
	if _, ok := repo.records[k]; !ok {
		return ErrNotFound
	}
	delete(repo.records, k)
	return nil
}

var _ Repository = (*fakeRepository)(nil)

type fakeDirectory struct {
	identities map[string]core.Identity
}

func (dir *fakeDirectory) GetIdentity(ctx context.Context, userID string) (core.Identity, error) {
	if idt, ok := dir.identities[userID]; ok {
		return idt, nil
	}
	return core.Identity{}, ErrNotFound
}

func setupService() (*Service, *fakeRepository) {
	repo := newFakeRepository()
	dir := &fakeDirectory{identities: map[string]core.Identity{
		"u1": {ID: "u1", Name: "Awe", Email: "awe@test.cd"},
	}}
	emailsvc.ClearSentMessages()
	return NewService(repo, dir, emailsvc.NewConsoleServiceMock(), nil), repo
}

var testStructure = course.Structure{
	{ID: "s1", Contents: []string{"c1", "c2"}},
	{ID: "s2", Contents: []string{"c3", "c4", "c5"}},
}

func TestServiceGetOrCreate(t *testing.T) {
	svc, _ := setupService()
	ctx := context.Background()

	rec, err := svc.GetOrCreate(ctx, "u1", "crs1", testStructure)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if rec.OverallProgress != 0 || len(rec.CompletedContents) != 0 {
		t.Errorf("new record must start empty, got %+v", rec)
	}
	if rec.StartedAt.IsZero() || rec.LastAccessedAt.IsZero() {
		t.Error("new record must have timestamps set")
	}
	for _, sec := range testStructure {
		if pct, ok := rec.SectionProgress[sec.ID]; !ok || pct != 0 {
			t.Errorf("SectionProgress[%s] = %d, %t; want 0, true", sec.ID, pct, ok)
		}
	}

	// idempotent: same record comes back
	again, err := svc.GetOrCreate(ctx, "u1", "crs1", testStructure)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if again.ID != rec.ID {
		t.Errorf("GetOrCreate() returned a different record: %s != %s", again.ID, rec.ID)
	}
}

func TestServiceUpdateContentProgress(t *testing.T) {
	svc, _ := setupService()
	ctx := context.Background()

	rec, err := svc.GetOrCreate(ctx, "u1", "crs1", testStructure)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	tests := []struct {
		name        string
		contentID   string
		pct         int
		wantErr     error
		wantValErr  bool
		wantSection map[string]int
	}{
		{name: "empty content id", contentID: "", pct: 10, wantValErr: true},
		{name: "negative pct", contentID: "c1", pct: -1, wantValErr: true},
		{name: "pct over 100", contentID: "c1", pct: 101, wantValErr: true},
		{name: "unknown content", contentID: "nope", pct: 10, wantErr: ErrContentNotFound},
		{name: "half of c1", contentID: "c1", pct: 100, wantSection: map[string]int{"s1": 50, "s2": 0}},
		{name: "avg rounds half up", contentID: "c2", pct: 1, wantSection: map[string]int{"s1": 51, "s2": 0}},
		{name: "s2 third", contentID: "c3", pct: 100, wantSection: map[string]int{"s1": 51, "s2": 33}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.UpdateContentProgress(ctx, rec, testStructure, tt.contentID, tt.pct)
			if tt.wantValErr {
				if _, ok := err.(*core.ValidationError); !ok {
					t.Fatalf("UpdateContentProgress() error = %v, want a validation error", err)
				}
				return
			}
			if err != tt.wantErr {
				t.Fatalf("UpdateContentProgress() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			rec = got
			for secID, want := range tt.wantSection {
				if got := rec.SectionProgress[secID]; got != want {
					t.Errorf("SectionProgress[%s] = %d, want %d", secID, got, want)
				}
			}
			// the update path never completes anything
			if rec.OverallProgress != 0 {
				t.Errorf("OverallProgress = %d, want 0", rec.OverallProgress)
			}
			if len(rec.CompletedContents) != 0 {
				t.Errorf("CompletedContents = %v, want empty", rec.CompletedContents)
			}
		})
	}
}

func TestServiceMarkCompleted(t *testing.T) {
	svc, _ := setupService()
	ctx := context.Background()

	rec, err := svc.GetOrCreate(ctx, "u1", "crs1", testStructure)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	if _, err = svc.MarkCompleted(ctx, rec, testStructure, "nope"); err != ErrContentNotFound {
		t.Errorf("MarkCompleted() error = %v, wantErr %v", err, ErrContentNotFound)
	}

	// overall is the fraction of completed contents, rounded half up
	wantOverall := map[string]int{"c1": 20, "c2": 40, "c3": 60, "c4": 80, "c5": 100}
	prev := 0
	for _, contentID := range []string{"c1", "c2", "c3", "c4", "c5"} {
		if rec, err = svc.MarkCompleted(ctx, rec, testStructure, contentID); err != nil {
			t.Fatalf("MarkCompleted(%s) error = %v", contentID, err)
		}
		if want := wantOverall[contentID]; rec.OverallProgress != want {
			t.Errorf("OverallProgress after %s = %d, want %d", contentID, rec.OverallProgress, want)
		}
		if rec.OverallProgress < prev {
			t.Errorf("OverallProgress decreased: %d < %d", rec.OverallProgress, prev)
		}
		prev = rec.OverallProgress
	}

	if !rec.IsCourseCompleted() {
		t.Error("course must be completed after all contents are done")
	}
	if got := rec.SectionProgress["s1"]; got != 100 {
		t.Errorf("SectionProgress[s1] = %d, want 100", got)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("len(SentMessages) = %d, want 1", len(emailsvc.SentMessages))
	}
	if to := emailsvc.SentMessages[0].To[0].Address; to != "awe@test.cd" {
		t.Errorf("completion mail sent to %s, want awe@test.cd", to)
	}

	// marking again is a no-op: no second mail, timestamps untouched
	completedAt := rec.CompletedAt
	if rec, err = svc.MarkCompleted(ctx, rec, testStructure, "c1"); err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Errorf("len(SentMessages) = %d, want 1", len(emailsvc.SentMessages))
	}
	if !rec.CompletedAt.Equal(completedAt) {
		t.Error("CompletedAt changed on a repeated completion")
	}
	if len(rec.CompletedContents) != 5 {
		t.Errorf("len(CompletedContents) = %d, want 5", len(rec.CompletedContents))
	}
}

func TestServiceMarkCompletedPartialSection(t *testing.T) {
	svc, _ := setupService()
	ctx := context.Background()

	rec, err := svc.GetOrCreate(ctx, "u1", "crs1", testStructure)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if rec, err = svc.MarkCompleted(ctx, rec, testStructure, "c1"); err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}
	if got := rec.SectionProgress["s1"]; got != 50 {
		t.Errorf("SectionProgress[s1] = %d, want 50", got)
	}
	if got := rec.SectionProgress["s2"]; got != 0 {
		t.Errorf("SectionProgress[s2] = %d, want 0", got)
	}
	if rec.OverallProgress != 20 {
		t.Errorf("OverallProgress = %d, want 20", rec.OverallProgress)
	}
	if rec.IsCourseCompleted() {
		t.Error("course must not be completed yet")
	}
	if len(emailsvc.SentMessages) != 0 {
		t.Errorf("len(SentMessages) = %d, want 0", len(emailsvc.SentMessages))
	}
}

func TestServiceReset(t *testing.T) {
	svc, _ := setupService()
	ctx := context.Background()

	cs := course.Structure{{ID: "s1", Contents: []string{"c1"}}}
	rec, err := svc.GetOrCreate(ctx, "u1", "crs1", cs)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	startedAt := rec.StartedAt
	if rec, err = svc.MarkCompleted(ctx, rec, cs, "c1"); err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}
	if !rec.IsCourseCompleted() {
		t.Fatal("course must be completed")
	}

	if rec, err = svc.Reset(ctx, rec); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if rec.OverallProgress != 0 || len(rec.CompletedContents) != 0 || len(rec.ContentProgress) != 0 {
		t.Errorf("Reset() left progress behind: %+v", rec)
	}
	if rec.IsCourseCompleted() {
		t.Error("Reset() must clear CompletedAt")
	}
	if !rec.StartedAt.Equal(startedAt) {
		t.Error("Reset() must preserve StartedAt")
	}
}

func TestServiceDelete(t *testing.T) {
	svc, repo := setupService()
	ctx := context.Background()

	if _, err := svc.GetOrCreate(ctx, "u1", "crs1", testStructure); err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if err := svc.Delete(ctx, "u1", "crs1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetRecord(ctx, "u1", "crs1"); err != ErrNotFound {
		t.Errorf("GetRecord() after delete error = %v, want %v", err, ErrNotFound)
	}
}

func TestRecordEmptyCourse(t *testing.T) {
	rec := NewRecord("u1", "crs1", time.Now().UTC())
	rec.SetContentProgress(course.Structure{}, "c1", 50, time.Now().UTC())
	if rec.OverallProgress != 0 {
		t.Errorf("OverallProgress = %d, want 0", rec.OverallProgress)
	}
}
