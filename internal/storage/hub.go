package storage

import (
	"context"
	"sync"

	"github.com/MosinFAM/bizdirectory/internal/models"
	log "github.com/sirupsen/logrus"
)

const subscriberBuffer = 16

// commentHub fans new comments out to in-process subscribers of a business.
type commentHub struct {
	mu   sync.Mutex
	subs map[string]map[chan models.Comment]struct{}
}

func newCommentHub() *commentHub {
	return &commentHub{subs: make(map[string]map[chan models.Comment]struct{})}
}

func (h *commentHub) subscribe(ctx context.Context, businessID string) <-chan models.Comment {
	ch := make(chan models.Comment, subscriberBuffer)

	h.mu.Lock()
	if h.subs[businessID] == nil {
		h.subs[businessID] = make(map[chan models.Comment]struct{})
	}
	h.subs[businessID][ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[businessID], ch)
		if len(h.subs[businessID]) == 0 {
			delete(h.subs, businessID)
		}
		close(ch)
	}()

	return ch
}

func (h *commentHub) publish(c models.Comment) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[c.BusinessID] {
		select {
		case ch <- c:
		default:
			// slow subscriber
			log.WithField("business_id", c.BusinessID).Warn("dropping comment for slow subscriber")
		}
	}
}
