package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rendez/internal/models"
	"github.com/joshua-takyi/rendez/internal/services"
)

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid "+key))
		return 0, false
	}
	return n, true
}

// DiscoverCandidates returns the requester's next page of swipe candidates.
func DiscoverCandidates(ds *services.DiscoveryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		limit, ok := queryInt(c, "limit")
		if !ok {
			return
		}
		offset, ok := queryInt(c, "offset")
		if !ok {
			return
		}

		limit = ds.PageLimit(limit)
		candidates, err := ds.FindCandidates(c.Request.Context(), userID, offset, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.PaginatedResponse(candidates, offset, limit, len(candidates)))
	}
}
