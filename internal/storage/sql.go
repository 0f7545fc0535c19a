package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MosinFAM/bizdirectory/internal/models"
	log "github.com/sirupsen/logrus"
)

// dialect captures what differs between the SQL backends.
type dialect struct {
	name              string
	numbered          bool // $1, $2 ... instead of ?
	isUniqueViolation func(error) bool
}

func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sqlStore implements everything but comment subscriptions on top of database/sql.
type sqlStore struct {
	DB      *sql.DB
	dialect dialect
	// afterInsert runs inside the comment insert transaction.
	afterInsert func(ctx context.Context, tx *sql.Tx, c models.Comment) error
	// afterCommit runs once the comment is durable.
	afterCommit func(c models.Comment)
}

const commentColumns = "id, content, created_at, user_id, business_id, parent_id, has_replies"

const profileColumns = "id, is_business, name, location, bio, story, about, calendar, support, latitude, longitude"

func (s *sqlStore) Close() error {
	return s.DB.Close()
}

func (s *sqlStore) AddComment(ctx context.Context, c models.Comment) error {
	log.Debugf("Adding comment %s to business %s", c.ID, c.BusinessID)
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if !c.IsRoot() {
		var parentBusiness string
		err := tx.QueryRowContext(ctx, s.dialect.rebind("SELECT business_id FROM comments WHERE id = ?"), c.ParentID).Scan(&parentBusiness)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get parent comment: %w", err)
		}
		if parentBusiness != c.BusinessID {
			return ErrParentMismatch
		}
		if _, err := tx.ExecContext(ctx, s.dialect.rebind("UPDATE comments SET has_replies = TRUE WHERE id = ?"), c.ParentID); err != nil {
			return fmt.Errorf("flag parent comment: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, s.dialect.rebind("INSERT INTO comments ("+commentColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)"),
		c.ID, c.Content, c.Timestamp, c.UserID, c.BusinessID, c.ParentID, c.HasReplies)
	if err != nil {
		log.Errorf("DB insert error: %v", err)
		return fmt.Errorf("insert comment: %w", err)
	}

	if s.afterInsert != nil {
		if err := s.afterInsert(ctx, tx, c); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	if s.afterCommit != nil {
		s.afterCommit(c)
	}
	return nil
}

func (s *sqlStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	row := s.DB.QueryRowContext(ctx, s.dialect.rebind("SELECT "+commentColumns+" FROM comments WHERE id = ?"), id)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return &c, nil
}

func (s *sqlStore) ListComments(ctx context.Context, q CommentQuery) ([]models.Comment, error) {
	query := "SELECT " + commentColumns + " FROM comments WHERE " + q.Field.column() + " = ?"
	args := []any{q.Value}
	if q.RootsOnly {
		query += " AND parent_id = ''"
	}
	query += " ORDER BY created_at DESC, id ASC"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.DB.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *sqlStore) AddFollow(ctx context.Context, f models.Follow) error {
	_, err := s.DB.ExecContext(ctx, s.dialect.rebind("INSERT INTO follows (id, user_id, business_id) VALUES (?, ?, ?)"),
		f.ID, f.UserID, f.BusinessID)
	if err != nil {
		if s.dialect.isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert follow: %w", err)
	}
	return nil
}

func (s *sqlStore) DeleteFollow(ctx context.Context, userID, businessID string) error {
	res, err := s.DB.ExecContext(ctx, s.dialect.rebind("DELETE FROM follows WHERE user_id = ? AND business_id = ?"),
		userID, businessID)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) FollowExists(ctx context.Context, userID, businessID string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx,
		s.dialect.rebind("SELECT EXISTS (SELECT 1 FROM follows WHERE user_id = ? AND business_id = ?)"),
		userID, businessID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("count follows: %w", err)
	}
	return exists, nil
}

func (s *sqlStore) ListFollows(ctx context.Context, q FollowQuery) ([]models.Follow, error) {
	query := "SELECT id, user_id, business_id FROM follows"
	var (
		conds []string
		args  []any
	)
	if q.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, q.UserID)
	}
	if q.BusinessID != "" {
		conds = append(conds, "business_id = ?")
		args = append(args, q.BusinessID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY user_id, business_id"

	rows, err := s.DB.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list follows: %w", err)
	}
	defer rows.Close()

	follows := []models.Follow{}
	for rows.Next() {
		var f models.Follow
		if err := rows.Scan(&f.ID, &f.UserID, &f.BusinessID); err != nil {
			return nil, fmt.Errorf("scan follow: %w", err)
		}
		follows = append(follows, f)
	}
	return follows, rows.Err()
}

func (s *sqlStore) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	row := s.DB.QueryRowContext(ctx, s.dialect.rebind("SELECT "+profileColumns+" FROM profiles WHERE id = ?"), id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

func (s *sqlStore) ListProfiles(ctx context.Context, q ProfileQuery) ([]models.Profile, error) {
	query := "SELECT " + profileColumns + " FROM profiles"
	if q.BusinessOnly {
		query += " WHERE is_business = TRUE"
	}
	query += " ORDER BY id"

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *sqlStore) SaveProfile(ctx context.Context, p models.Profile) error {
	log.Debugf("Saving profile %s", p.ID)
	query := `INSERT INTO profiles (` + profileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			is_business = excluded.is_business,
			name = excluded.name,
			location = excluded.location,
			bio = excluded.bio,
			story = excluded.story,
			about = excluded.about,
			calendar = excluded.calendar,
			support = excluded.support,
			latitude = excluded.latitude,
			longitude = excluded.longitude`
	_, err := s.DB.ExecContext(ctx, s.dialect.rebind(query), profileArgs(p)...)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *sqlStore) CreateProfileIfAbsent(ctx context.Context, p models.Profile) (bool, error) {
	query := `INSERT INTO profiles (` + profileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`
	res, err := s.DB.ExecContext(ctx, s.dialect.rebind(query), profileArgs(p)...)
	if err != nil {
		return false, fmt.Errorf("create profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(row scanner) (models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.Content, &c.Timestamp, &c.UserID, &c.BusinessID, &c.ParentID, &c.HasReplies)
	return c, err
}

func scanProfile(row scanner) (models.Profile, error) {
	var (
		p        models.Profile
		lat, lng sql.NullFloat64
	)
	err := row.Scan(&p.ID, &p.IsBusiness, &p.Name, &p.Location, &p.Bio, &p.Story, &p.About, &p.Calendar, &p.Support, &lat, &lng)
	if err != nil {
		return p, err
	}
	if lat.Valid {
		p.Latitude = &lat.Float64
	}
	if lng.Valid {
		p.Longitude = &lng.Float64
	}
	return p, nil
}

func profileArgs(p models.Profile) []any {
	return []any{
		p.ID, p.IsBusiness, p.Name, p.Location, p.Bio, p.Story, p.About, p.Calendar, p.Support,
		nullFloat(p.Latitude), nullFloat(p.Longitude),
	}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// Dialect is the goose dialect name of the backend.
func (s *sqlStore) Dialect() string {
	return s.dialect.name
}
