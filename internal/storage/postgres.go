package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MosinFAM/bizdirectory/internal/models"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

const (
	commentsChannel  = "comments_channel"
	uniqueViolation  = "23505"
	listenerPingTick = 90 * time.Second
)

// PostgresStorage - PostgreSQL storage. All subscribers share one listener
// connection whose notifications feed an in-process hub.
type PostgresStorage struct {
	*sqlStore
	DataSource string

	hub      *commentHub
	mu       sync.Mutex
	listener *pq.Listener
	stop     chan struct{}
	done     chan struct{}
}

// NewPostgresStorage creates a PostgreSQL storage
func NewPostgresStorage(db *sql.DB, dataSource string) *PostgresStorage {
	s := &PostgresStorage{
		sqlStore: &sqlStore{
			DB: db,
			dialect: dialect{
				name:              "postgres",
				numbered:          true,
				isUniqueViolation: isPostgresUniqueViolation,
			},
		},
		DataSource: dataSource,
		hub:        newCommentHub(),
	}
	// NOTIFY inside the transaction is delivered on commit only.
	s.afterInsert = func(ctx context.Context, tx *sql.Tx, c models.Comment) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_notify($1, $2)", commentsChannel, c.ID); err != nil {
			log.Errorf("Notification error: %v", err)
			return fmt.Errorf("notify %s: %w", commentsChannel, err)
		}
		return nil
	}
	return s
}

func isPostgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// SubscribeToComments streams comments of one business received on comments_channel
func (s *PostgresStorage) SubscribeToComments(ctx context.Context, businessID string) (<-chan models.Comment, error) {
	log.Debugf("Subscribing to comments for business %s", businessID)
	if err := s.listen(); err != nil {
		return nil, err
	}
	return s.hub.subscribe(ctx, businessID), nil
}

// listen starts the shared listener on first use.
func (s *PostgresStorage) listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}

	listener := pq.NewListener(s.DataSource, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Errorf("Postgres listener error: %v", err)
		}
	})
	if err := listener.Listen(commentsChannel); err != nil {
		listener.Close()
		return fmt.Errorf("failed to listen on %s: %w", commentsChannel, err)
	}

	s.listener = listener
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.dispatch(listener, s.stop, s.done)

	log.Debugf("Listening for comments on %s", commentsChannel)
	return nil
}

func (s *PostgresStorage) dispatch(listener *pq.Listener, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(listenerPingTick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := listener.Ping(); err != nil {
				log.Errorf("Postgres listener ping error: %v", err)
			}
		case n := <-listener.Notify:
			// nil after a reconnect
			if n == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			c, err := s.GetComment(ctx, n.Extra)
			cancel()
			if err != nil {
				log.Errorf("Load notified comment %s: %v", n.Extra, err)
				continue
			}
			s.hub.publish(*c)
		}
	}
}

// Close stops the shared listener and closes the database.
func (s *PostgresStorage) Close() error {
	s.mu.Lock()
	if s.listener != nil {
		close(s.stop)
		<-s.done
		s.listener.Close()
		s.listener = nil
	}
	s.mu.Unlock()
	return s.sqlStore.Close()
}
