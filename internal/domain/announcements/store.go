package announcements

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"leavedesk/internal/platform/querier"
)

var ErrNotFound = errors.New("not found")

type Announcement struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Announcement, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM announcements").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT id, title, body, COALESCE(created_by::text,''), created_at, updated_at
    FROM announcements
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Announcement
	for rows.Next() {
		var a Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (s *Store) Get(ctx context.Context, id string) (Announcement, error) {
	var a Announcement
	err := s.DB.QueryRow(ctx, `
    SELECT id, title, body, COALESCE(created_by::text,''), created_at, updated_at
    FROM announcements
    WHERE id = $1
  `, id).Scan(&a.ID, &a.Title, &a.Body, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

func (s *Store) Create(ctx context.Context, title, body, createdBy string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO announcements (title, body, created_by)
    VALUES ($1,$2,$3)
    RETURNING id
  `, title, body, createdBy).Scan(&id)
	return id, err
}

func (s *Store) Update(ctx context.Context, id, title, body string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE announcements SET title = $1, body = $2, updated_at = now() WHERE id = $3
  `, title, body, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM announcements WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
