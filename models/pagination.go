package models

// PaginatedLogs is one page of a campaign's capture log
type PaginatedLogs struct {
	Campaign     string     `json:"campaign"`
	Entries      []LogEntry `json:"entries"`
	Page         int        `json:"page"`
	PageSize     int        `json:"page_size"`
	TotalPages   int        `json:"total_pages"`
	TotalEntries int        `json:"total_entries"`
	HasNext      bool       `json:"has_next"`
	HasPrev      bool       `json:"has_prev"`
}

// NewPaginatedLogs slices all down to the requested page. Pages are 1-based
// and a page past the end yields no entries.
func NewPaginatedLogs(campaign string, all []LogEntry, page, pageSize int) *PaginatedLogs {
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}

	total := len(all)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}

	// Past the last page there is nothing to slice; checking first keeps
	// the multiplication below from overflowing.
	start, end := total, total
	if page <= totalPages {
		start = (page - 1) * pageSize
		end = start + pageSize
		if end > total {
			end = total
		}
	}

	entries := make([]LogEntry, end-start)
	copy(entries, all[start:end])

	return &PaginatedLogs{
		Campaign:     campaign,
		Entries:      entries,
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
		TotalEntries: total,
		HasNext:      page < totalPages,
		HasPrev:      page > 1,
	}
}
