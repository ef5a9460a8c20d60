package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/scratchdrop/internal/apperror"
	"github.com/shrimpsizemoose/scratchdrop/internal/models"
	"github.com/shrimpsizemoose/scratchdrop/internal/query"
	"github.com/shrimpsizemoose/scratchdrop/internal/scratch"
	"github.com/shrimpsizemoose/scratchdrop/internal/store"
)

const msgNoProjectID = "No project ID found for this submission (bad link)."

type Service struct {
	Config      *Config
	Local       *store.LocalStore
	Remote      *store.RemoteHandle
	Coordinator *Coordinator
	Engine      *query.Engine
	Auth        *Auth
	Validator   *models.FormValidator

	now func() time.Time
}

// NewService opens the local store and auth. The remote store is attached
// separately with ConnectRemote so the server can start without it.
func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	local, err := NewLocalStore(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to init local store: %w", err)
	}

	auth, err := NewAuth(config)
	if err != nil {
		local.Close()
		return nil, fmt.Errorf("failed to init auth: %w", err)
	}

	return NewServiceWith(config, local, store.NewRemoteHandle(nil), auth), nil
}

func NewServiceWith(config *Config, local *store.LocalStore, remote *store.RemoteHandle, auth *Auth) *Service {
	if auth == nil {
		auth = &Auth{}
	}
	return &Service{
		Config:      config,
		Local:       local,
		Remote:      remote,
		Coordinator: NewCoordinator(local, remote),
		Engine:      query.NewEngine(local, remote, config.Remote.ListLimit),
		Auth:        auth,
		Validator:   models.NewFormValidator(config.Form.Classes),
		now:         time.Now,
	}
}

// ConnectRemote opens the configured remote store and attaches it. With no
// remote DSN it does nothing and the service stays in local mode.
func (s *Service) ConnectRemote(ctx context.Context) error {
	remote, err := NewRemote(ctx, s.Config)
	if err != nil {
		return fmt.Errorf("failed to init remote store: %w", err)
	}
	if remote == nil {
		return nil
	}

	s.Remote.Set(remote)
	logger.Info.Printf("Remote store attached")
	return nil
}

// Submit validates the form, builds the record and persists it. Only a
// validation problem is returned as an error; storage problems degrade the result.
func (s *Service) Submit(ctx context.Context, form models.Form, userAgent string) (models.Submission, SaveResult, error) {
	if err := s.Validator.Validate(&form); err != nil {
		return models.Submission{}, SaveResult{}, err
	}

	sub := models.NewSubmission(form, userAgent, s.now())
	res := s.Coordinator.Save(ctx, sub)
	logger.Info.Printf("Submission from %s (%s) saved via %s", sub.StudentName, sub.Class, res.Mode)
	return sub, res, nil
}

// Preview normalizes a link for the student-side preview.
func (s *Service) Preview(raw string) (scratch.Link, error) {
	link := scratch.Normalize(raw)
	if !link.OK {
		return link, apperror.ValidationFailed("project_link", link.Reason)
	}
	return link, nil
}

// RowPreview returns the embed URL for a row in the current view.
func (s *Service) RowPreview(id string) (models.Row, string, error) {
	row, ok := s.Engine.Find(id)
	if !ok {
		return models.Row{}, "", apperror.NotFound("submission", id)
	}

	embed := scratch.EmbedURL(row.ProjectID)
	if embed == "" {
		return row, "", apperror.ValidationFailed("project_id", msgNoProjectID)
	}
	return row, embed, nil
}

func (s *Service) Close() error {
	var errs []error

	if s.Local != nil {
		if err := s.Local.Close(); err != nil {
			errs = append(errs, fmt.Errorf("local store: %w", err))
		}
	}
	if s.Remote != nil {
		if err := s.Remote.Close(); err != nil {
			errs = append(errs, fmt.Errorf("remote store: %w", err))
		}
	}
	if err := s.Auth.Close(); err != nil {
		errs = append(errs, fmt.Errorf("auth: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
