package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// MessageWindow maps a page index counted from the newest end of an
// ascending list of total items onto an offset/limit pair. Page 0 is the
// last size items, page 1 the size items before those, and so on. Windows
// that run past the oldest item are clamped, so the last page may be short
// and pages beyond it are empty (limit 0).
func MessageWindow(total int64, page, size int) (offset, limit int) {
	if total <= 0 || size <= 0 || page < 0 {
		return 0, 0
	}
	// Pages past the oldest item are empty; checked before multiplying so
	// huge page numbers cannot overflow into a valid window.
	if int64(page) > (total-1)/int64(size) {
		return 0, 0
	}
	end := total - int64(size)*int64(page)
	if end <= 0 {
		return 0, 0
	}
	start := end - int64(size)
	if start < 0 {
		start = 0
	}
	return int(start), int(end - start)
}

// GetPageParam reads the ?page= query parameter; it reports false when the
// parameter is present but not an integer.
func GetPageParam(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("page", "0")
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return page, true
}
