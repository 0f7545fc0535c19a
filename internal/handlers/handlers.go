package handlers

import (
	"net/http"
	"net/url"

	"github.com/MosinFAM/bizdirectory/internal/auth"
	"github.com/MosinFAM/bizdirectory/internal/directory"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Sessions is the auth provider plus the session cookie lifecycle.
type Sessions interface {
	auth.Provider
	StartSession(c *gin.Context, token string) (string, error)
	EndSession(c *gin.Context)
}

// Handler translates HTTP requests into directory calls.
type Handler struct {
	Comments *directory.Comments
	Follows  *directory.Follows
	Profiles *directory.Profiles
	Sessions Sessions
}

func statusOf(err error) int {
	switch directory.KindOf(err) {
	case directory.KindValidation:
		return http.StatusBadRequest
	case directory.KindAuthorization:
		return http.StatusUnauthorized
	case directory.KindForbidden:
		return http.StatusForbidden
	case directory.KindNotFound:
		return http.StatusNotFound
	case directory.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{"method": c.Request.Method, "path": c.Request.URL.Path}).Errorf("request failed: %v", err)
		msg = "Internal server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"status": status, "error": msg})
}

// param reads key from the query string, then from the form body.
func param(c *gin.Context, key string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return c.PostForm(key)
}

// optional returns a pointer to a non-empty query value.
func optional(c *gin.Context, key string) *string {
	if v := c.Query(key); v != "" {
		return &v
	}
	return nil
}

func (h *Handler) caller(c *gin.Context) string {
	return h.Sessions.CurrentUserID(c)
}

func redirectToPage(c *gin.Context, page, id string) {
	c.Redirect(http.StatusFound, page+"?id="+url.QueryEscape(id))
}
