package services

import (
	"sort"
	"strings"
	"time"

	"github.com/soaringjerry/stackit/internal/metrics"
)

// DefaultPageSize matches the six cards per page of the listing view.
const DefaultPageSize = 6

type FilterMode string

const (
	ModeAll        FilterMode = "all"
	ModeNewest     FilterMode = "newest"
	ModeUnanswered FilterMode = "unanswered"
)

type ProjectParams struct {
	Tag      Tag
	Mode     FilterMode
	Search   string
	Page     int
	PageSize int
	// Where is an optional boolean expression over title, description,
	// tags, author, answers (count) and likes.
	Where string
}

type Projection struct {
	Questions  []*Question `json:"questions"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	Total      int         `json:"total"`
	TotalPages int         `json:"total_pages"`
}

// Project filters, orders and paginates questions. The input slice and its
// elements are left untouched.
func Project(questions []*Question, p ProjectParams) (*Projection, error) {
	start := time.Now()
	defer func() { metrics.ObserveProjection(time.Since(start)) }()

	switch p.Mode {
	case "", ModeAll, ModeNewest, ModeUnanswered:
	default:
		return nil, NewInvalidError("unknown filter mode " + string(p.Mode))
	}
	if p.Tag != "" && !ValidTag(p.Tag) {
		return nil, NewInvalidError("unknown tag " + string(p.Tag))
	}
	pageSize := p.PageSize
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < 0 {
		return nil, NewInvalidError("page size must be positive")
	}
	var where *whereFilter
	if strings.TrimSpace(p.Where) != "" {
		w, err := compileWhere(p.Where)
		if err != nil {
			return nil, err
		}
		where = w
	}

	query := strings.ToLower(p.Search)
	filtered := make([]*Question, 0, len(questions))
	for _, q := range questions {
		if p.Tag != "" && !q.hasTag(p.Tag) {
			continue
		}
		if p.Mode == ModeUnanswered && len(q.Answers) > 0 {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(q.Title), query) &&
			!strings.Contains(strings.ToLower(q.Description), query) {
			continue
		}
		if where != nil {
			ok, err := where.match(q)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		filtered = append(filtered, q)
	}
	if p.Mode == ModeNewest {
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		})
	}

	total := len(filtered)
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}
	out := &Projection{
		Questions:  []*Question{},
		Page:       p.Page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
	if p.Page < 1 || p.Page > totalPages {
		return out, nil
	}
	lo := (p.Page - 1) * pageSize
	hi := total
	if total-lo > pageSize {
		hi = lo + pageSize
	}
	out.Questions = append(out.Questions, filtered[lo:hi]...)
	return out, nil
}
