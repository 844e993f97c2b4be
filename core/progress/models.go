package progress

import (
	"math"
	"time"

	"github.com/trezcool/darasa/core/course"
)

// Record tracks one user's completion state for one course.
// The (UserID, CourseID) pair is unique.
type Record struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	CourseID          string         `json:"course_id"`
	ContentProgress   map[string]int `json:"content_progress"` // content id -> [0,100]
	SectionProgress   map[string]int `json:"section_progress"` // section id -> [0,100]; derived
	CompletedContents []string       `json:"completed_contents"`
	OverallProgress   int            `json:"overall_progress"` // derived
	StartedAt         time.Time      `json:"started_at"`       // UTC
	LastAccessedAt    time.Time      `json:"last_accessed_at"` // UTC
	CompletedAt       time.Time      `json:"completed_at"`     // UTC; zero until the course completes
}

func NewRecord(userID, courseID string, now time.Time) Record {
	return Record{
		UserID:            userID,
		CourseID:          courseID,
		ContentProgress:   make(map[string]int),
		SectionProgress:   make(map[string]int),
		CompletedContents: make([]string, 0),
		StartedAt:         now,
		LastAccessedAt:    now,
	}
}

func (r *Record) IsContentCompleted(contentID string) bool {
	for _, id := range r.CompletedContents {
		if id == contentID {
			return true
		}
	}
	return false
}

func (r *Record) IsCourseCompleted() bool { return !r.CompletedAt.IsZero() }

// SetContentProgress stores a content item's progress and recomputes the
// derived percentages. It assumes validated input: pct in [0,100] and
// contentID present in cs. CompletedContents is never touched here.
func (r *Record) SetContentProgress(cs course.Structure, contentID string, pct int, now time.Time) {
	r.ContentProgress[contentID] = pct

	// per section: rounded average of stored content progress; missing entries count as 0
	for _, sec := range cs {
		var sum int
		for _, id := range sec.Contents {
			sum += r.ContentProgress[id]
		}
		r.SectionProgress[sec.ID] = roundAvg(sum, len(sec.Contents))
	}

	r.OverallProgress = roundPct(len(r.CompletedContents), cs.TotalContents())
	r.LastAccessedAt = now
}

// CompleteContent marks a content item as completed and recomputes the
// derived percentages on completed-count fractions. It assumes contentID is
// present in cs and not yet completed. It reports whether this completion
// brought the whole course to 100% for the first time.
func (r *Record) CompleteContent(cs course.Structure, contentID string, now time.Time) (courseCompleted bool) {
	r.CompletedContents = append(r.CompletedContents, contentID)
	r.ContentProgress[contentID] = 100

	for _, sec := range cs {
		var done int
		for _, id := range sec.Contents {
			if r.IsContentCompleted(id) {
				done++
			}
		}
		r.SectionProgress[sec.ID] = roundPct(done, len(sec.Contents))
	}

	r.OverallProgress = roundPct(len(r.CompletedContents), cs.TotalContents())
	r.LastAccessedAt = now

	if r.OverallProgress == 100 && r.CompletedAt.IsZero() {
		r.CompletedAt = now
		return true
	}
	return false
}

// Reset clears all progress. StartedAt is preserved: the enrollment itself
// survives a reset.
func (r *Record) Reset() {
	r.ContentProgress = make(map[string]int)
	r.SectionProgress = make(map[string]int)
	r.CompletedContents = make([]string, 0)
	r.OverallProgress = 0
	r.CompletedAt = time.Time{}
}

// roundPct returns round(100 * count / total), half up. A zero total yields 0.
func roundPct(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(100*float64(count)/float64(total) + 0.5))
}

// roundAvg returns round(sum / n), half up. A zero n yields 0.
func roundAvg(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Floor(float64(sum)/float64(n) + 0.5))
}
