package registration

import (
	"math"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
	deskSearchLimit = 50
)

// ListQuery is an admin table request as received from the client.
type ListQuery struct {
	Page              int
	Limit             int
	Search            string
	Class             string
	SortBy            string
	SortOrder         string
	Attended          *bool
	CertificateIssued *bool
}

// Filter is the storage-level query every Repository implements.
type Filter struct {
	Text              string
	TextFields        []Field
	Class             Class
	Attended          *bool
	CertificateIssued *bool
	SortBy            Field
	Desc              bool
	Skip              int64
	Limit             int64
}

// Page is one page of the admin table.
type Page struct {
	Registrations []Registration `json:"registrations"`
	Total         int64          `json:"total"`
	Page          int            `json:"page"`
	TotalPages    int            `json:"totalPages"`
	Limit         int            `json:"limit"`
}

// filter validates the query and converts it into a storage filter.
func (q ListQuery) filter() (Filter, int, int, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	switch {
	case limit < 1:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}

	var problems []string
	f := Filter{
		Text:              strings.TrimSpace(q.Search),
		TextFields:        listSearchFields,
		Attended:          q.Attended,
		CertificateIssued: q.CertificateIssued,
		SortBy:            FieldStudentName,
		Skip:              int64(page-1) * int64(limit),
		Limit:             int64(limit),
	}

	if q.Class != "" {
		c, ok := ParseClass(q.Class)
		if !ok {
			problems = append(problems, "class must be one of VII, VIII, IX, X, XI, XII")
		}
		f.Class = c
	}
	if q.SortBy != "" {
		if !sortable[Field(q.SortBy)] {
			problems = append(problems, "sortBy is not a sortable field")
		}
		f.SortBy = Field(q.SortBy)
	}
	switch strings.ToLower(q.SortOrder) {
	case "", "asc":
	case "desc":
		f.Desc = true
	default:
		problems = append(problems, "sortOrder must be asc or desc")
	}

	if len(problems) > 0 {
		return Filter{}, 0, 0, invalid(problems...)
	}
	return f, page, limit, nil
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
