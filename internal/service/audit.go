package service

import (
	"context"

	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

const maxAuditPage = 500

type AuditService struct {
	Deps
}

func NewAuditService(d Deps) *AuditService { return &AuditService{Deps: d} }

// Recent returns the newest audit entries, at most limit (capped at 500).
func (s *AuditService) Recent(ctx context.Context, limit int) (Result[[]*model.AuditLog], error) {
	if limit <= 0 || limit > maxAuditPage {
		limit = maxAuditPage
	}
	repo := repository.Repo[model.AuditLog](s.Store.UnitOfWork(ctx))
	items, err := repo.Select(ctx, repo.Query().OrderBy("occurred_on DESC").Limit(uint64(limit)))
	if err != nil {
		return Result[[]*model.AuditLog]{}, err
	}
	return ok(nonNil(items)), nil
}
