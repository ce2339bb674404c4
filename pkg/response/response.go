package response

import (
	"net/http"

	"avto-sawda/pkg/apperr"

	"github.com/gin-gonic/gin"
)

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

// NewPagination expects page >= 1 and limit >= 1.
func NewPagination(total int64, page, limit int) Pagination {
	totalPages := (total + int64(limit) - 1) / int64(limit)
	return Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(totalPages),
		// page*limit < total, without the multiplication
		HasMore: int64(page) < totalPages,
	}
}

func OK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func Message(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": true, "message": message})
}

func Paginated(c *gin.Context, data interface{}, p Pagination) {
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       data,
		"total":      p.Total,
		"page":       p.Page,
		"limit":      p.Limit,
		"totalPages": p.TotalPages,
		"hasMore":    p.HasMore,
	})
}

func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

func Error(c *gin.Context, err error) {
	Fail(c, apperr.Status(err), err.Error())
}
