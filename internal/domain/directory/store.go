package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"leavedesk/internal/platform/querier"
)

var ErrNotFound = errors.New("not found")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name, created_at FROM departments ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Name, &d.CreatedAt); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (s *Store) CreateDepartment(ctx context.Context, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "INSERT INTO departments (name) VALUES ($1) RETURNING id", name).Scan(&id)
	return id, err
}

func (s *Store) UpdateDepartment(ctx context.Context, id, name string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE departments SET name = $1 WHERE id = $2", name, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteDepartment(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM departments WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListPositions(ctx context.Context) ([]Position, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name, auto_reset, created_at FROM positions ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ID, &p.Name, &p.AutoReset, &p.CreatedAt); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (s *Store) CreatePosition(ctx context.Context, name string, autoReset bool) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "INSERT INTO positions (name, auto_reset) VALUES ($1,$2) RETURNING id", name, autoReset).Scan(&id)
	return id, err
}

func (s *Store) UpdatePosition(ctx context.Context, id, name string, autoReset bool) error {
	tag, err := s.DB.Exec(ctx, "UPDATE positions SET name = $1, auto_reset = $2 WHERE id = $3", name, autoReset, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeletePosition(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM positions WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]User, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx, `
    SELECT u.id, u.email, u.name, u.role_id, r.name,
           COALESCE(u.department_id::text,''), COALESCE(u.position_id::text,''),
           COALESCE(u.line_user_id,''), u.status, u.created_at
    FROM users u
    JOIN roles r ON r.id = u.role_id
    ORDER BY u.name
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.RoleID, &u.RoleName,
			&u.DepartmentID, &u.PositionID, &u.LineUserID, &u.Status, &u.CreatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (s *Store) UserByID(ctx context.Context, userID string) (User, error) {
	var u User
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.email, u.name, u.role_id, r.name,
           COALESCE(u.department_id::text,''), COALESCE(u.position_id::text,''),
           COALESCE(u.line_user_id,''), u.status, u.created_at
    FROM users u
    JOIN roles r ON r.id = u.role_id
    WHERE u.id = $1
  `, userID).Scan(&u.ID, &u.Email, &u.Name, &u.RoleID, &u.RoleName,
		&u.DepartmentID, &u.PositionID, &u.LineUserID, &u.Status, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

type CreateUserInput struct {
	Email        string
	Name         string
	PasswordHash string
	RoleID       string
	DepartmentID string
	PositionID   string
	LineUserID   string
}

func (s *Store) CreateUser(ctx context.Context, input CreateUserInput) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (email, name, password_hash, role_id, department_id, position_id, line_user_id, status)
    VALUES ($1,$2,$3,$4,NULLIF($5,'')::uuid,NULLIF($6,'')::uuid,NULLIF($7,''),'active')
    RETURNING id
  `, input.Email, input.Name, input.PasswordHash, input.RoleID,
		input.DepartmentID, input.PositionID, input.LineUserID).Scan(&id)
	return id, err
}

type UpdateUserInput struct {
	Name         string
	RoleID       string
	DepartmentID string
	PositionID   string
	LineUserID   string
	Status       string
}

func (s *Store) UpdateUser(ctx context.Context, userID string, input UpdateUserInput) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users
    SET name = $1, role_id = $2,
        department_id = NULLIF($3,'')::uuid, position_id = NULLIF($4,'')::uuid,
        line_user_id = NULLIF($5,''), status = $6
    WHERE id = $7
  `, input.Name, input.RoleID, input.DepartmentID, input.PositionID, input.LineUserID, input.Status, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE users SET status = 'inactive' WHERE id = $1", userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) RoleIDByName(ctx context.Context, name string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}
