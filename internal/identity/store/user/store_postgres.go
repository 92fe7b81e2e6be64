package user

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"trustrent/internal/identity/models"
	id "trustrent/pkg/domain"
	"trustrent/pkg/platform/sentinel"
)

// Schema is the DDL this store runs against. Deployments apply it at
// provisioning time; integration tests apply it to their containers. The
// unique index names matter: Create tells a duplicate email apart from a
// duplicate document by the violated constraint's name.
//
//go:embed schema.sql
var Schema string

// PostgresStore persists identity records in PostgreSQL. This store is pure
// I/O; the uniqueness and state-machine guarantees lean entirely on the
// database's unique indexes and conditional UPDATE, so they hold across
// replicas, not just within one process.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store. The *sql.DB is
// expected to use the pgx stdlib driver.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

// Create inserts the record. Uniqueness of email and (id_type, id_value) is
// enforced by the database in the same statement as the insert; there is no
// read-then-write window.
func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, firstname, lastname, email, phone_number, password_hash,
			role, id_type, id_value, verification_state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		u.ID.String(),
		u.FirstName,
		u.LastName,
		strings.ToLower(u.Email),
		u.PhoneNumber,
		u.PasswordHash,
		string(u.Role),
		string(u.IDType),
		u.IDValue,
		string(u.VerificationState),
		u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			if strings.Contains(pgErr.ConstraintName, "email") {
				return fmt.Errorf("email: %w", sentinel.ErrAlreadyUsed)
			}
			return fmt.Errorf("identity document: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

const userColumns = `id, firstname, lastname, email, phone_number, password_hash,
	role, id_type, id_value, verification_state, created_at, last_login_at,
	verified_at, verified_by`

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.db.QueryRowContext(ctx, query, userID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.db.QueryRowContext(ctx, query, strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// ListPending returns the review queue ordered oldest-first. No caching: the
// projection reflects the table at statement time.
func (s *PostgresStore) ListPending(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE verification_state = 'pending'
		ORDER BY created_at ASC, id ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pending users: %w", err)
	}
	defer rows.Close()

	var pending []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending user: %w", err)
		}
		pending = append(pending, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending users: %w", err)
	}
	return pending, nil
}

// ApplyDecision is the single conditional write the whole workflow rests on:
// "set the outcome WHERE id matches AND state is still pending". Under
// concurrent decisions the database guarantees at most one statement matches;
// every other caller sees zero rows affected.
func (s *PostgresStore) ApplyDecision(ctx context.Context, userID id.UserID, d models.Decision) (bool, error) {
	query := `
		UPDATE users
		SET verification_state = $2, verified_at = $3, verified_by = $4
		WHERE id = $1 AND verification_state = 'pending'
	`
	res, err := s.db.ExecContext(ctx, query, userID.String(), string(d.Outcome), d.DecidedAt, d.DecidedBy)
	if err != nil {
		return false, fmt.Errorf("apply decision: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("apply decision rows affected: %w", err)
	}
	return affected == 1, nil
}

// RecordLogin stamps the last successful login time.
func (s *PostgresStore) RecordLogin(ctx context.Context, userID id.UserID, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = $2 WHERE id = $1`, userID.String(), at)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record login rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u          models.User
		rawID      string
		role       string
		idType     string
		state      string
		lastLogin  sql.NullTime
		verifiedAt sql.NullTime
		verifiedBy sql.NullString
	)
	err := row.Scan(&rawID, &u.FirstName, &u.LastName, &u.Email, &u.PhoneNumber,
		&u.PasswordHash, &role, &idType, &u.IDValue, &state, &u.CreatedAt,
		&lastLogin, &verifiedAt, &verifiedBy)
	if err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored user id: %w", err)
	}
	u.ID = userID
	u.Role = models.Role(role)
	u.IDType = models.IDType(idType)
	u.VerificationState = models.VerificationState(state)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		u.VerifiedAt = &t
	}
	if verifiedBy.Valid {
		u.VerifiedBy = verifiedBy.String
	}
	return &u, nil
}
