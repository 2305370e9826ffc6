package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TimelineFilters narrows the timeline query.
type TimelineFilters struct {
	Event    string
	CauserID int64
	Subject  string
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// TimelineRow is one audit entry as returned to callers.
type TimelineRow struct {
	At          time.Time      `json:"at"`
	SubjectType string         `json:"subject_type"`
	SubjectID   string         `json:"subject_id"`
	CauserType  string         `json:"causer_type"`
	CauserID    int64          `json:"causer_id"`
	Event       string         `json:"event"`
	Description string         `json:"description"`
	Properties  map[string]any `json:"properties"`
}

// PagingInfo describes the page window of a timeline result.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result wraps timeline rows with paging information.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}

// Service coordinates audit timeline reads.
type Service struct {
	pool *pgxpool.Pool
}

// NewService builds a timeline service.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Timeline fetches audit rows with paging, newest first.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 50 {
		pageSize = 50
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	query := `SELECT occurred_at, subject_type, subject_id, causer_type, causer_id, event, description, properties
FROM audit_logs WHERE 1=1`
	args := []any{}
	n := 0
	addArg := func(clause string, value any) {
		n++
		query += " AND " + clause + "$" + itoa(n)
		args = append(args, value)
	}
	if event := strings.TrimSpace(filters.Event); event != "" {
		addArg("event = ", event)
	}
	if filters.CauserID != 0 {
		addArg("causer_id = ", filters.CauserID)
	}
	if subject := strings.TrimSpace(filters.Subject); subject != "" {
		addArg("subject_id = ", subject)
	}
	if !filters.From.IsZero() {
		addArg("occurred_at >= ", filters.From)
	}
	if !filters.To.IsZero() {
		addArg("occurred_at <= ", filters.To)
	}
	query += " ORDER BY occurred_at DESC OFFSET $" + itoa(n+1) + " LIMIT $" + itoa(n+2)
	args = append(args, offset, pageSize+1)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	var result []TimelineRow
	for rows.Next() {
		var row TimelineRow
		var props []byte
		if err := rows.Scan(&row.At, &row.SubjectType, &row.SubjectID, &row.CauserType, &row.CauserID, &row.Event, &row.Description, &props); err != nil {
			return Result{}, err
		}
		if len(props) > 0 {
			_ = json.Unmarshal(props, &row.Properties)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}

	hasNext := len(result) > pageSize
	if hasNext {
		result = result[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: result, Paging: paging}, nil
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
