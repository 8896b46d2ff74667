package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rendez/internal/models"
	"github.com/joshua-takyi/rendez/internal/services"
)

type likeRequest struct {
	TargetID string `json:"target_id" binding:"required"`
}

func LikeProfile(ms *services.MatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		var req likeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		res, err := ms.Like(c.Request.Context(), userID, req.TargetID)
		if err != nil {
			respondError(c, err)
			return
		}
		message := "like recorded"
		if res.Matched {
			message = "it's a match"
		}
		c.JSON(http.StatusOK, models.SuccessResponse(res, message))
	}
}

func UnlikeProfile(ms *services.MatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		if err := ms.Unlike(c.Request.Context(), userID, c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "like removed"))
	}
}

// ListMatches lists active matches by default; ?status=inactive or
// ?status=all widen the view.
func ListMatches(ms *services.MatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}

		var status models.MatchStatus
		switch c.DefaultQuery("status", string(models.MatchActive)) {
		case string(models.MatchActive):
			status = models.MatchActive
		case string(models.MatchInactive):
			status = models.MatchInactive
		case "all":
		default:
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid status"))
			return
		}

		matches, err := ms.ListMatches(c.Request.Context(), userID, status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(matches, ""))
	}
}

func GetMatch(ms *services.MatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		match, err := ms.GetMatch(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(match, ""))
	}
}

func Unmatch(ms *services.MatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		match, err := ms.Unmatch(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(match, "unmatched"))
	}
}

func TouchMatch(ms *services.MatchService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c)
		if !ok {
			return
		}
		match, err := ms.TouchInteraction(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(match, ""))
	}
}
