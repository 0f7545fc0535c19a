package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MosinFAM/bizdirectory/internal/directory"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	streamPingPeriod = 30 * time.Second
	streamWriteWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// PostComment handles POST /comment.
func (h *Handler) PostComment(c *gin.Context) {
	in := directory.NewComment{
		Content:    param(c, "content"),
		BusinessID: param(c, "businessId"),
		ParentID:   param(c, "parentId"),
		AuthorID:   param(c, "userId"),
	}
	if _, err := h.Comments.AddComment(c.Request.Context(), h.caller(c), in); err != nil {
		respondError(c, err)
		return
	}
	redirectToPage(c, "/business.html", in.BusinessID)
}

// ListComments handles GET /comments.
func (h *Handler) ListComments(c *gin.Context) {
	f := directory.CommentFilter{
		UserID:     optional(c, "userId"),
		BusinessID: optional(c, "businessId"),
		ParentID:   optional(c, "parentId"),
	}
	comments, err := h.Comments.ListComments(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// StreamComments handles GET /comments/stream: a websocket receiving every new
// comment posted on businessId.
func (h *Handler) StreamComments(c *gin.Context) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	ch, err := h.Comments.Subscribe(ctx, c.Query("businessId"))
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// the client only ever closes; reading surfaces that
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case comment, ok := <-ch:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(comment); err != nil {
				log.Debugf("comment stream closed: %v", err)
				return
			}
		}
	}
}
