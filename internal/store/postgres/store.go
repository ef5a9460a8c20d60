package postgres

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/scratchdrop/internal/apperror"
	"github.com/shrimpsizemoose/scratchdrop/internal/models"
	"github.com/shrimpsizemoose/scratchdrop/internal/store"
)

type submissionRow struct {
	ID              string         `db:"id"`
	Class           string         `db:"class"`
	StudentName     string         `db:"student_name"`
	ScratchUsername string         `db:"scratch_username"`
	ProjectID       string         `db:"project_id"`
	ProjectURL      string         `db:"project_url"`
	ProjectEmbed    string         `db:"project_embed"`
	Features        pq.StringArray `db:"features"`
	CreatedAt       string         `db:"created_at"`
	UserAgent       string         `db:"user_agent"`
}

func toRow(id string, sub models.Submission) submissionRow {
	features := pq.StringArray(sub.Features)
	if features == nil {
		features = pq.StringArray{}
	}
	return submissionRow{
		ID:              id,
		Class:           sub.Class,
		StudentName:     sub.StudentName,
		ScratchUsername: sub.ScratchUsername,
		ProjectID:       sub.ProjectID,
		ProjectURL:      sub.ProjectURL,
		ProjectEmbed:    sub.ProjectEmbed,
		Features:        features,
		CreatedAt:       sub.CreatedAt,
		UserAgent:       sub.UserAgent,
	}
}

func (r submissionRow) toModel() models.Row {
	return models.Row{
		ID:     r.ID,
		Source: models.SourceRemote,
		Submission: models.Submission{
			Class:           r.Class,
			StudentName:     r.StudentName,
			ScratchUsername: r.ScratchUsername,
			ProjectID:       r.ProjectID,
			ProjectURL:      r.ProjectURL,
			ProjectEmbed:    r.ProjectEmbed,
			Features:        []string(r.Features),
			CreatedAt:       r.CreatedAt,
			UserAgent:       r.UserAgent,
		},
	}
}

// PostgresStore is the remote submissions collection.
type PostgresStore struct {
	DB *sqlx.DB
}

var _ store.RemoteStore = (*PostgresStore)(nil)

func NewPostgresStore(dsn string, migrationsDir string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{DB: db}

	if migrationsDir != "" {
		if err := s.ApplyMigrations(migrationsDir); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
	}

	return s, nil
}

func (s *PostgresStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations runs every .sql file in dir in name order
func (s *PostgresStore) ApplyMigrations(dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if strings.HasSuffix(file.Name(), ".sql") {
			names = append(names, file.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		logger.Info.Printf("Applying migration: %s", name)
		if _, err := s.DB.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *PostgresStore) Append(ctx context.Context, sub models.Submission) (string, error) {
	id := uuid.NewString()
	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO submissions (
			id, class, student_name, scratch_username, project_id,
			project_url, project_embed, features, created_at, user_agent
		)
		VALUES (
			:id, :class, :student_name, :scratch_username, :project_id,
			:project_url, :project_embed, :features, :created_at, :user_agent
		)
	`, toRow(id, sub))
	if err != nil {
		return "", fmt.Errorf("failed to create submission: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]models.Row, error) {
	if limit <= 0 || limit > store.RemoteListLimit {
		limit = store.RemoteListLimit
	}

	var rows []submissionRow
	err := s.DB.SelectContext(ctx, &rows, `
		SELECT
			id,
			class,
			student_name,
			scratch_username,
			project_id,
			project_url,
			project_embed,
			features,
			created_at,
			user_agent
		FROM submissions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	out := make([]models.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toModel())
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NotFound("submission", id)
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete submission %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("submission", id)
	}
	return nil
}
