package handlers

import (
	"net/http"

	"github.com/MosinFAM/bizdirectory/internal/directory"
	"github.com/gin-gonic/gin"
)

// Follow handles POST /follow.
func (h *Handler) Follow(c *gin.Context) {
	businessID := param(c, "businessId")
	if err := h.Follows.Follow(c.Request.Context(), h.caller(c), businessID); err != nil {
		respondError(c, err)
		return
	}
	redirectToPage(c, "/business.html", businessID)
}

// Unfollow handles DELETE /follow.
func (h *Handler) Unfollow(c *gin.Context) {
	businessID := param(c, "businessId")
	if err := h.Follows.Unfollow(c.Request.Context(), h.caller(c), businessID); err != nil {
		respondError(c, err)
		return
	}
	redirectToPage(c, "/business.html", businessID)
}

// IsFollowing handles GET /follow.
func (h *Handler) IsFollowing(c *gin.Context) {
	following, err := h.Follows.IsFollowing(c.Request.Context(), h.caller(c), c.Query("businessId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, following)
}

// ListFollows handles GET /follows.
func (h *Handler) ListFollows(c *gin.Context) {
	f := directory.FollowFilter{
		UserID:     optional(c, "userId"),
		BusinessID: optional(c, "businessId"),
	}
	follows, err := h.Follows.ListFollows(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, follows)
}
