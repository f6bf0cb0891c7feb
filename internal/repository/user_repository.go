package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/lms-client/internal/database"
	"github.com/iliyamo/lms-client/internal/model"
	"github.com/iliyamo/lms-client/internal/utils"
)

// User mirrors the 'users' table.
type User struct {
	ID           model.UserID
	Email        string
	Name         string
	PasswordHash string
	Role         model.Role
	CreatedAt    time.Time
}

// Public strips the password hash.
func (u User) Public() model.User {
	return model.User{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

// UserRepo stores users in any of the drivers supported by package database.
type UserRepo struct {
	DB     *sql.DB
	Driver string
}

func NewUserRepo(db *sql.DB, driver string) *UserRepo { return &UserRepo{DB: db, Driver: driver} }

// EnsureSchema creates the users table when missing.
func (r *UserRepo) EnsureSchema(ctx context.Context) error {
	var ddl string
	switch r.Driver {
	case database.DriverMySQL:
		ddl = `CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(32) NOT NULL,
			created_at DATETIME NOT NULL
		)`
	case database.DriverPostgres, "pgx":
		ddl = `CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`
	default:
		ddl = `CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`
	}
	_, err := r.DB.ExecContext(ctx, ddl)
	return err
}

// Create hashes password, inserts the user and returns it with its new ID.
func (r *UserRepo) Create(ctx context.Context, email, name, password string, role model.Role, cost int) (User, error) {
	u := User{
		Email:     normalizeEmail(email),
		Name:      strings.TrimSpace(name),
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return User{}, err
	}
	u.PasswordHash = hash

	const insert = "INSERT INTO users (email, name, password_hash, role, created_at) VALUES (?,?,?,?,?)"
	args := []any{u.Email, u.Name, u.PasswordHash, string(u.Role), u.CreatedAt}

	if r.Driver == database.DriverPostgres || r.Driver == "pgx" {
		// pgx does not implement LastInsertId
		var id uint64
		err = r.DB.QueryRowContext(ctx, database.Rebind(r.Driver, insert+" RETURNING id"), args...).Scan(&id)
		if err != nil {
			return User{}, mapInsertErr(err)
		}
		u.ID = model.UserID(id)
		return u, nil
	}

	res, err := r.DB.ExecContext(ctx, insert, args...)
	if err != nil {
		return User{}, mapInsertErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	u.ID = model.UserID(id)
	return u, nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.getOne(ctx, "email=?", normalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id model.UserID) (User, error) {
	return r.getOne(ctx, "id=?", uint64(id))
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg any) (User, error) {
	q := database.Rebind(r.Driver,
		"SELECT id,email,name,password_hash,role,created_at FROM users WHERE "+where+" LIMIT 1")
	var (
		u    User
		id   uint64
		role string
	)
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(&id, &u.Email, &u.Name, &u.PasswordHash, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	u.ID = model.UserID(id)
	u.Role = model.Role(role)
	return u, nil
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// mapInsertErr folds each driver's unique-violation report into ErrEmailExists.
func mapInsertErr(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "1062"), // mysql duplicate entry
		strings.Contains(msg, "23505"),             // postgres unique_violation
		strings.Contains(msg, "unique constraint"): // sqlite
		return ErrEmailExists
	}
	return err
}
