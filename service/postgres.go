package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AnTengye/jobtracker/config"
	"github.com/AnTengye/jobtracker/model"
	"github.com/AnTengye/jobtracker/pkg/apperr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

-- emails are unique regardless of case
ALTER TABLE users DROP CONSTRAINT IF EXISTS users_email_key;
CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_key ON users (lower(email));

CREATE TABLE IF NOT EXISTS applications (
	id               BIGSERIAL PRIMARY KEY,
	user_id          BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	company          TEXT NOT NULL,
	application_date DATE NOT NULL,
	cover_letter     TEXT NOT NULL DEFAULT '',
	cv_filename      TEXT,
	status           TEXT NOT NULL DEFAULT 'pending',
	interview_date   DATE,
	accepted_date    DATE,
	rejected_date    DATE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS applications_user_date_idx
	ON applications (user_id, application_date DESC);
`

const applicationColumns = `id, user_id, company, application_date, cover_letter, cv_filename,
	status, interview_date, accepted_date, rejected_date, created_at`

// unique_violation
const pgUniqueViolation = "23505"

// NewPostgresPool creates and verifies a pgxpool connection pool.
func NewPostgresPool(ctx context.Context, cfg *config.StoreConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	return pool, nil
}

// PostgresStore is the Store backed by PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	slog.Info("application store initialized", "driver", "postgres")
	return &PostgresStore{pool: pool}
}

// Migrate creates the tables when they do not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	out := *user
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		user.Username, user.Email, user.PasswordHash,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, conflictFor(pgErr.ConstraintName)
		}
		return nil, apperr.Internal("Failed to create user", fmt.Errorf("createUser: %w", err))
	}
	return &out, nil
}

func conflictFor(constraint string) *apperr.Error {
	switch {
	case strings.Contains(constraint, "username"):
		return apperr.Conflict(msgUsernameTaken)
	case strings.Contains(constraint, "email"):
		return apperr.Conflict(msgEmailTaken)
	default:
		return apperr.Conflict("User already exists")
	}
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load user", fmt.Errorf("getUserByUsername: %w", err))
	}
	return &u, nil
}

func (s *PostgresStore) CreateApplication(ctx context.Context, app *model.Application) (*model.Application, error) {
	interview, accepted, rejected := stageColumns(app.Stage)
	row := s.pool.QueryRow(ctx,
		`INSERT INTO applications
		   (user_id, company, application_date, cover_letter, cv_filename,
		    status, interview_date, accepted_date, rejected_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+applicationColumns,
		app.UserID, app.Company, app.ApplicationDate.Time(), app.CoverLetter, nullString(app.CVFilename),
		string(app.Stage.Status), interview, accepted, rejected,
	)
	out, err := scanApplication(row)
	if err != nil {
		return nil, apperr.Internal("Failed to create application", fmt.Errorf("createApplication: %w", err))
	}
	return out, nil
}

func (s *PostgresStore) UpdateApplication(ctx context.Context, app *model.Application) (*model.Application, error) {
	interview, accepted, rejected := stageColumns(app.Stage)
	row := s.pool.QueryRow(ctx,
		`UPDATE applications
		 SET company = $1, application_date = $2, cover_letter = $3, cv_filename = $4,
		     status = $5, interview_date = $6, accepted_date = $7, rejected_date = $8
		 WHERE id = $9 AND user_id = $10
		 RETURNING `+applicationColumns,
		app.Company, app.ApplicationDate.Time(), app.CoverLetter, nullString(app.CVFilename),
		string(app.Stage.Status), interview, accepted, rejected,
		app.ID, app.UserID,
	)
	return s.scanOne(row, "updateApplication")
}

// UpdateStage rewrites the status together with all three status dates so no
// date of another status survives the change.
func (s *PostgresStore) UpdateStage(ctx context.Context, userID, id int64, stage model.Stage) (*model.Application, error) {
	interview, accepted, rejected := stageColumns(stage)
	row := s.pool.QueryRow(ctx,
		`UPDATE applications
		 SET status = $1, interview_date = $2, accepted_date = $3, rejected_date = $4
		 WHERE id = $5 AND user_id = $6
		 RETURNING `+applicationColumns,
		string(stage.Status), interview, accepted, rejected, id, userID,
	)
	return s.scanOne(row, "updateStage")
}

func (s *PostgresStore) DeleteApplication(ctx context.Context, userID, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM applications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return apperr.Internal("Failed to delete application", fmt.Errorf("deleteApplication: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(msgApplicationNotFound)
	}
	return nil
}

func (s *PostgresStore) GetApplication(ctx context.Context, userID, id int64) (*model.Application, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	return s.scanOne(row, "getApplication")
}

func (s *PostgresStore) ListApplications(ctx context.Context, userID int64) ([]model.Application, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+applicationColumns+` FROM applications
		 WHERE user_id = $1
		 ORDER BY application_date DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, apperr.Internal("Failed to fetch applications", fmt.Errorf("listApplications query: %w", err))
	}
	defer rows.Close()

	apps := make([]model.Application, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, apperr.Internal("Failed to fetch applications", fmt.Errorf("listApplications scan: %w", err))
		}
		apps = append(apps, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal("Failed to fetch applications", fmt.Errorf("listApplications rows: %w", err))
	}
	return apps, nil
}

func (s *PostgresStore) OwnsCV(ctx context.Context, userID int64, filename string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE user_id = $1 AND cv_filename = $2)`,
		userID, filename,
	).Scan(&exists)
	if err != nil {
		return false, apperr.Internal("Failed to download file", fmt.Errorf("ownsCV: %w", err))
	}
	return exists, nil
}

func (s *PostgresStore) scanOne(row pgx.Row, op string) (*model.Application, error) {
	a, err := scanApplication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(msgApplicationNotFound)
	}
	if err != nil {
		return nil, apperr.Internal("Failed to fetch application", fmt.Errorf("%s: %w", op, err))
	}
	return a, nil
}

func scanApplication(row pgx.Row) (*model.Application, error) {
	var (
		a                             model.Application
		appDate                       time.Time
		cv                            *string
		status                        string
		interview, accepted, rejected *time.Time
	)
	if err := row.Scan(
		&a.ID, &a.UserID, &a.Company, &appDate, &a.CoverLetter, &cv,
		&status, &interview, &accepted, &rejected, &a.CreatedAt,
	); err != nil {
		return nil, err
	}

	a.ApplicationDate = model.DateOf(appDate)
	if cv != nil {
		a.CVFilename = *cv
	}

	var date *time.Time
	switch model.Status(status) {
	case model.StatusInterview:
		date = interview
	case model.StatusAccepted:
		date = accepted
	case model.StatusRejected:
		date = rejected
	}
	var stageDate model.Date
	if date != nil {
		stageDate = model.DateOf(*date)
	}
	a.Stage = model.NewStage(model.Status(status), stageDate)
	return &a, nil
}

// stageColumns spreads a stage over the three nullable date columns.
func stageColumns(stage model.Stage) (interview, accepted, rejected *time.Time) {
	if stage.Date.IsZero() {
		return nil, nil, nil
	}
	t := stage.Date.Time()
	switch stage.Status {
	case model.StatusInterview:
		interview = &t
	case model.StatusAccepted:
		accepted = &t
	case model.StatusRejected:
		rejected = &t
	}
	return interview, accepted, rejected
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
