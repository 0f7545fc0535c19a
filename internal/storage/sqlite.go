package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/MosinFAM/bizdirectory/internal/models"
	"github.com/mattn/go-sqlite3"
)

// SQLiteStorage - SQLite storage; subscriptions are served in-process
type SQLiteStorage struct {
	*sqlStore
	hub *commentHub
}

// NewSQLiteStorage wraps an open sqlite3 database
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	hub := newCommentHub()
	return &SQLiteStorage{
		sqlStore: &sqlStore{
			DB: db,
			dialect: dialect{
				name:              "sqlite3",
				isUniqueViolation: isSQLiteUniqueViolation,
			},
			afterCommit: hub.publish,
		},
		hub: hub,
	}
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func (s *SQLiteStorage) SubscribeToComments(ctx context.Context, businessID string) (<-chan models.Comment, error) {
	return s.hub.subscribe(ctx, businessID), nil
}
