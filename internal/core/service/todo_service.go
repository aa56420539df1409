package service

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/tientodo/todo-api/internal/core/domain"
	"github.com/tientodo/todo-api/internal/core/ports"
)

// StatsCache abstracts the per-user todo-count cache (Redis). A cache failure
// degrades to a direct count, never an error.
type StatsCache interface {
	Get(ctx context.Context, ownerID string) (ports.TodoCounts, bool, error)
	Set(ctx context.Context, ownerID string, counts ports.TodoCounts) error
	Invalidate(ctx context.Context, ownerID string) error
}

// TodoService implements the ownership-scoped todo/subtask use cases. It
// never distinguishes "not yours" from "not there": the repository filters
// by owner, so both surface as domain.ErrTodoNotFound.
type TodoService struct {
	repo   ports.TodoRepository
	cache  StatsCache
	logger zerolog.Logger
}

func NewTodoService(repo ports.TodoRepository, cache StatsCache, logger zerolog.Logger) *TodoService {
	return &TodoService{repo: repo, cache: cache, logger: logger}
}

func (s *TodoService) List(ctx context.Context, ownerID string) ([]*domain.Todo, error) {
	return s.repo.FindByOwner(ctx, ownerID, ports.ListTodosFilter{})
}

func (s *TodoService) ListActive(ctx context.Context, ownerID string) ([]*domain.Todo, error) {
	active := false
	return s.repo.FindByOwner(ctx, ownerID, ports.ListTodosFilter{Completed: &active})
}

func (s *TodoService) ListCompleted(ctx context.Context, ownerID string) ([]*domain.Todo, error) {
	done := true
	return s.repo.FindByOwner(ctx, ownerID, ports.ListTodosFilter{Completed: &done})
}

func (s *TodoService) Search(ctx context.Context, ownerID, keyword string) ([]*domain.Todo, error) {
	return s.repo.FindByOwner(ctx, ownerID, ports.ListTodosFilter{Search: keyword})
}

func (s *TodoService) Get(ctx context.Context, ownerID, todoID string) (*domain.Todo, error) {
	return s.repo.FindByID(ctx, ownerID, todoID)
}

func (s *TodoService) Create(ctx context.Context, ownerID string, in ports.CreateTodoInput) (*domain.Todo, error) {
	now := time.Now().UTC()
	todo, err := s.repo.Create(ctx, &domain.Todo{
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Subtasks:    []domain.Subtask{},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("todo_id", todo.ID).Str("owner_id", ownerID).Msg("todo created")
	s.invalidateStats(ctx, ownerID)
	return todo, nil
}

func (s *TodoService) Update(ctx context.Context, ownerID, todoID string, patch ports.TodoPatch) (*domain.Todo, error) {
	todo, err := s.repo.Update(ctx, ownerID, todoID, patch)
	if err != nil {
		return nil, err
	}
	if patch.Completed != nil {
		s.invalidateStats(ctx, ownerID)
	}
	return todo, nil
}

func (s *TodoService) MarkComplete(ctx context.Context, ownerID, todoID string) (*domain.Todo, error) {
	done := true
	return s.Update(ctx, ownerID, todoID, ports.TodoPatch{Completed: &done})
}

func (s *TodoService) Delete(ctx context.Context, ownerID, todoID string) error {
	if err := s.repo.Delete(ctx, ownerID, todoID); err != nil {
		return err
	}
	s.invalidateStats(ctx, ownerID)
	return nil
}

func (s *TodoService) Subtasks(ctx context.Context, ownerID, todoID string) ([]domain.Subtask, error) {
	todo, err := s.repo.FindByID(ctx, ownerID, todoID)
	if err != nil {
		return nil, err
	}
	return todo.Subtasks, nil
}

func (s *TodoService) CreateSubtask(ctx context.Context, ownerID, todoID, title string) (*domain.Subtask, error) {
	now := time.Now().UTC()
	subtask := domain.Subtask{
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	todo, err := s.repo.AddSubtask(ctx, ownerID, todoID, subtask)
	if err != nil {
		return nil, err
	}
	// The repository assigns the id; the new subtask is the last entry.
	created := todo.Subtasks[len(todo.Subtasks)-1]
	return &created, nil
}

func (s *TodoService) UpdateSubtask(ctx context.Context, ownerID, todoID, subtaskID string, patch ports.SubtaskPatch) (*domain.Subtask, error) {
	todo, err := s.repo.UpdateSubtask(ctx, ownerID, todoID, subtaskID, patch)
	if err != nil {
		return nil, err
	}
	for i := range todo.Subtasks {
		if todo.Subtasks[i].ID == subtaskID {
			return &todo.Subtasks[i], nil
		}
	}
	return nil, domain.ErrSubtaskNotFound
}

func (s *TodoService) MarkSubtaskComplete(ctx context.Context, ownerID, todoID, subtaskID string) (*domain.Subtask, error) {
	done := true
	return s.UpdateSubtask(ctx, ownerID, todoID, subtaskID, ports.SubtaskPatch{Completed: &done})
}

func (s *TodoService) DeleteSubtask(ctx context.Context, ownerID, todoID, subtaskID string) error {
	return s.repo.RemoveSubtask(ctx, ownerID, todoID, subtaskID)
}

// Stats returns the aggregate todo counts for a user, served from the cache
// when warm. Completion rate is a percentage rounded to one decimal place.
func (s *TodoService) Stats(ctx context.Context, ownerID string) (*ports.TodoStats, error) {
	counts, hit, err := s.cacheGet(ctx, ownerID)
	if err != nil || !hit {
		counts, err = s.repo.CountByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		s.cacheSet(ctx, ownerID, counts)
	}

	stats := &ports.TodoStats{
		Total:     counts.Total,
		Completed: counts.Completed,
		Active:    counts.Total - counts.Completed,
	}
	if counts.Total > 0 {
		stats.CompletionRate = math.Round(float64(counts.Completed)/float64(counts.Total)*1000) / 10
	}
	return stats, nil
}

func (s *TodoService) cacheGet(ctx context.Context, ownerID string) (ports.TodoCounts, bool, error) {
	if s.cache == nil {
		return ports.TodoCounts{}, false, nil
	}
	counts, hit, err := s.cache.Get(ctx, ownerID)
	if err != nil {
		s.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("stats cache read failed, counting directly")
		return ports.TodoCounts{}, false, err
	}
	return counts, hit, nil
}

func (s *TodoService) cacheSet(ctx context.Context, ownerID string, counts ports.TodoCounts) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, ownerID, counts); err != nil {
		s.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("stats cache write failed")
	}
}

func (s *TodoService) invalidateStats(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("stats cache invalidation failed")
	}
}
