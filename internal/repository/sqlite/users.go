package sqlite

import (
	"context"
	"database/sql"

	"github.com/tvkcanada/tvk-be/internal/models"
)

const userColumns = `id, name, email, password_hash, google_id, role, phone, city, province,
	member_number, founding_member, created_at, updated_at`

// UserRepository stores users in the users table.
type UserRepository struct {
	db *sql.DB
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, nullString(u.GoogleID), u.Role, u.Phone, u.City, u.Province,
		u.MemberNumber, u.FoundingMember, utc(u.CreatedAt), utc(u.UpdatedAt),
	)
	return translate(err)
}

// GetByID retrieves a single user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, "id = ?", id)
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(ctx, "email = ?", email)
}

// GetByGoogleID retrieves a user by their linked Google account.
func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return r.get(ctx, "google_id = ?", googleID)
}

func (r *UserRepository) get(ctx context.Context, where string, arg any) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

// Update saves a user's profile fields.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET name = ?, email = ?, google_id = ?, role = ?, phone = ?, city = ?, province = ?,
			member_number = ?, founding_member = ?, updated_at = ?
		WHERE id = ?`,
		u.Name, u.Email, nullString(u.GoogleID), u.Role, u.Phone, u.City, u.Province,
		u.MemberNumber, u.FoundingMember, utc(u.UpdatedAt), u.ID,
	)
	return affected(res, err)
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, id)
	return affected(res, err)
}

// Delete removes a user from the database.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	return affected(res, err)
}

// List returns users, newest first.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC LIMIT ? OFFSET ?",
		limitOrDefault(limit, 50), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	var googleID sql.NullString
	err := s.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &googleID, &u.Role, &u.Phone, &u.City, &u.Province,
		&u.MemberNumber, &u.FoundingMember, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.GoogleID = googleID.String
	return &u, nil
}
