package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/joshyycmechanical/fieldserve/internal/cache"
	"github.com/joshyycmechanical/fieldserve/internal/models"
)

var (
	// ErrStatusInUse blocks deleting a status while triggers still watch it.
	ErrStatusInUse = errors.New("workflow status is referenced by triggers")
	// ErrUnknownStatus rejects references to status names the tenant does not have.
	ErrUnknownStatus = errors.New("unknown workflow status")
)

const statusCacheTTL = 5 * time.Minute

// StatusStore is the persistence behind the registry.
type StatusStore interface {
	List(ctx context.Context, companyID uuid.UUID) ([]models.WorkflowStatus, error)
	Get(ctx context.Context, companyID, id uuid.UUID) (*models.WorkflowStatus, error)
	Create(ctx context.Context, status *models.WorkflowStatus) (*models.WorkflowStatus, error)
	Update(ctx context.Context, status *models.WorkflowStatus) error
	Delete(ctx context.Context, companyID, id uuid.UUID) error
	CountTriggersForStatus(ctx context.Context, companyID uuid.UUID, name string) (int, error)
}

// Registry serves each tenant's ordered status list. Reads go through a redis
// cache invalidated on every write; statuses change rarely and are read on
// every work-order transition.
type Registry struct {
	store StatusStore
	cache *cache.Cache
}

func NewRegistry(store StatusStore, c *cache.Cache) *Registry {
	return &Registry{store: store, cache: c}
}

// List returns the tenant's statuses ordered by sort_order, ties broken by
// creation time.
func (r *Registry) List(ctx context.Context, companyID uuid.UUID) ([]models.WorkflowStatus, error) {
	key := statusCacheKey(companyID)

	if r.cache != nil {
		var cached []models.WorkflowStatus
		if err := r.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	statuses, err := r.store.List(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, statuses, statusCacheTTL); err != nil {
			slog.Warn("failed to cache workflow statuses", "company_id", companyID, "error", err)
		}
	}
	return statuses, nil
}

// Exists reports whether the tenant has a status with the given name.
func (r *Registry) Exists(ctx context.Context, companyID uuid.UUID, name string) (bool, error) {
	statuses, err := r.List(ctx, companyID)
	if err != nil {
		return false, err
	}
	for _, s := range statuses {
		if s.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (r *Registry) Create(ctx context.Context, status *models.WorkflowStatus) (*models.WorkflowStatus, error) {
	created, err := r.store.Create(ctx, status)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx, status.CompanyID)
	return created, nil
}

func (r *Registry) Update(ctx context.Context, status *models.WorkflowStatus) error {
	if err := r.store.Update(ctx, status); err != nil {
		return err
	}
	r.invalidate(ctx, status.CompanyID)
	return nil
}

// Delete removes a status unless triggers still reference its name. Work
// orders carrying the name keep it for display compatibility.
func (r *Registry) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	status, err := r.store.Get(ctx, companyID, id)
	if err != nil {
		return err
	}

	n, err := r.store.CountTriggersForStatus(ctx, companyID, status.Name)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %q has %d dependent trigger(s)", ErrStatusInUse, status.Name, n)
	}

	if err := r.store.Delete(ctx, companyID, id); err != nil {
		return err
	}
	r.invalidate(ctx, companyID)
	return nil
}

func (r *Registry) invalidate(ctx context.Context, companyID uuid.UUID) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, statusCacheKey(companyID)); err != nil {
		slog.Warn("failed to invalidate status cache", "company_id", companyID, "error", err)
	}
}

func statusCacheKey(companyID uuid.UUID) string {
	return "workflow:statuses:" + companyID.String()
}
