package services

const (
	DefaultPageLimit  = 20
	DefaultReplyLimit = 10
	MaxPageLimit      = 100
)

type CommentSort string

const (
	CommentSortLatest  CommentSort = "latest"
	CommentSortPopular CommentSort = "popular"
)

// PageQuery 댓글/답글 목록 조회 조건
type PageQuery struct {
	Page  int
	Limit int
	Sort  CommentSort
}

func (q PageQuery) normalize(defaultLimit int) PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.Sort != CommentSortPopular {
		q.Sort = CommentSortLatest
	}
	return q
}

func (q PageQuery) offset() int {
	return (q.Page - 1) * q.Limit
}

type PaginationMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

func newMeta(total int64, page, limit int) PaginationMeta {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return PaginationMeta{Total: total, Page: page, Limit: limit, TotalPages: pages}
}
