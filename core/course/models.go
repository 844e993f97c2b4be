package course

// Section is an ordered group of content items within a course.
type Section struct {
	ID       string   `json:"id"`
	Contents []string `json:"contents"` // ordered content item ids
}

// Structure is the ordered list of a course's sections, supplied read-only by
// the course collaborator. It is fetched fresh on every operation; the core
// never caches it.
type Structure []Section

func (s Structure) TotalContents() int {
	var n int
	for _, sec := range s {
		n += len(sec.Contents)
	}
	return n
}

func (s Structure) Contains(contentID string) bool {
	for _, sec := range s {
		for _, id := range sec.Contents {
			if id == contentID {
				return true
			}
		}
	}
	return false
}
