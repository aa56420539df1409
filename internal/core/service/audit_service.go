package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tientodo/todo-api/internal/core/domain"
	"github.com/tientodo/todo-api/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService that writes auth events to the
// audit store. It runs on dispatcher workers, never on a request goroutine.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

func (s *auditService) Record(ctx context.Context, event domain.AuthEvent) error {
	if err := s.repo.Insert(ctx, &event); err != nil {
		return fmt.Errorf("record auth event: %w", err)
	}

	s.log.Debug().
		Str("username", event.Username).
		Str("action", event.Action).
		Bool("success", event.Success).
		Msg("auth event recorded")

	return nil
}
