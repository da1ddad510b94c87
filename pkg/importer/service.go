package importer

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/authenticator/pkg/item"
	"github.com/dmitrymomot/authenticator/pkg/logger"
)

// Repository receives imported views.
type Repository interface {
	Add(ctx context.Context, v item.View) error
}

// Service imports exported files into a repository.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// NewService returns a Service adding views to repo.
func NewService(repo Repository, log *slog.Logger) *Service {
	if repo == nil {
		panic("importer: repository is required")
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{repo: repo, log: log}
}

// Import parses data and adds every view in order. It stops at the first
// failure and returns how many views were added before it.
func (s *Service) Import(ctx context.Context, format Format, data []byte) (int, error) {
	views, err := Import(format, data)
	if err != nil {
		return 0, err
	}

	for i, v := range views {
		if err := s.repo.Add(ctx, v); err != nil {
			s.log.ErrorContext(ctx, "import stopped",
				logger.ImportFormat(string(format)),
				logger.ItemID(v.ID),
				logger.Count(i),
				logger.Error(err),
			)
			return i, err
		}
	}

	s.log.InfoContext(ctx, "items imported",
		logger.ImportFormat(string(format)),
		logger.Count(len(views)),
	)
	return len(views), nil
}
