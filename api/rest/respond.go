package rest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/daylogapp/server/config"
	"github.com/daylogapp/server/friendship"
	"github.com/gin-gonic/gin"
)

// pagination is the list-response envelope shared by all list endpoints.
type pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	PageCount int   `json:"pageCount"`
	Total     int64 `json:"total"`
}

func newPagination(page, size int, total int64) pagination {
	count := int(total) / size
	if int(total)%size != 0 {
		count++
	}
	return pagination{Page: page, PageSize: size, PageCount: count, Total: total}
}

// pageParams parses ?page=&size= with config-backed defaults and caps.
func pageParams(c *gin.Context, content config.ContentConfig) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	size, _ = strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(content.DefaultPageSize)))
	if size < 1 {
		size = content.DefaultPageSize
	}
	if content.MaxPageSize > 0 && size > content.MaxPageSize {
		size = content.MaxPageSize
	}
	return page, size
}

// relationshipStatus maps friendship sentinel errors to HTTP codes.
func relationshipStatus(err error) int {
	switch {
	case errors.Is(err, friendship.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, friendship.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, friendship.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, friendship.ErrInvalidState),
		errors.Is(err, friendship.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

func abortRelationship(c *gin.Context, err error, fallback string) {
	msg := fallback
	if errors.Is(err, friendship.ErrNotFound) ||
		errors.Is(err, friendship.ErrConflict) ||
		errors.Is(err, friendship.ErrForbidden) ||
		errors.Is(err, friendship.ErrInvalidState) ||
		errors.Is(err, friendship.ErrInvalidArgument) {
		msg = err.Error()
	}
	c.JSON(relationshipStatus(err), gin.H{"error": msg})
}

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}

// isISODay / isISOMonth validate the two accepted date query formats.
// time.Parse rejects impossible dates like 2024-13-45, which must never
// reach the per-day unique index as distinct keys.
func isISODay(s string) bool {
	if len(s) != 10 {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func isISOMonth(s string) bool {
	if len(s) != 7 {
		return false
	}
	_, err := time.Parse("2006-01", s)
	return err == nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// monthRange returns the [start, end) day bounds for a "YYYY-MM" month.
// ISO days compare correctly as strings, so "2024-02" becomes
// ["2024-02-01", "2024-03-01").
func monthRange(month string) (start, end string) {
	start = month + "-01"
	year, _ := strconv.Atoi(month[:4])
	m, _ := strconv.Atoi(month[5:])
	m++
	if m > 12 {
		m = 1
		year++
	}
	end = strconv.Itoa(year) + "-" + pad2(m) + "-01"
	return start, end
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// dateRange maps a "YYYY", "YYYY-MM", or "YYYY-MM-DD" filter to [start, end)
// day bounds.
func dateRange(s string) (start, end string, ok bool) {
	switch {
	case len(s) == 4 && digits(s):
		year, _ := strconv.Atoi(s)
		return s + "-01-01", strconv.Itoa(year+1) + "-01-01", true
	case isISOMonth(s):
		start, end = monthRange(s)
		return start, end, true
	case isISODay(s):
		day, _ := time.Parse("2006-01-02", s)
		return s, day.AddDate(0, 0, 1).Format("2006-01-02"), true
	}
	return "", "", false
}

// escapeLike escapes LIKE wildcards in user-supplied search text. Callers
// pair the result with an explicit ESCAPE '\' clause.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
