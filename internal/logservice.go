package internal

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"github.com/derWhity/eventlink/internal/log"
	"github.com/derWhity/eventlink/internal/models"
	"github.com/derWhity/eventlink/internal/repos"
)

// LogService gives access to the persisted log entries
type LogService interface {
	Recent(ctx context.Context, query *LogQuery) ([]models.LogEntry, error)
}

type logService struct {
	repo   repos.LogRepo
	logger *logrus.Entry
}

// NewLogService creates a new log service instance
func NewLogService(repo repos.LogRepo, logger *logrus.Entry) LogService {
	return &logService{
		repo:   repo,
		logger: logger,
	}
}

// Recent returns the latest log entries, newest first
func (s *logService) Recent(ctx context.Context, query *LogQuery) ([]models.LogEntry, error) {
	switch query.Category {
	case "", log.CategorySystem, log.CategoryEvent, log.CategoryStatistics:
	default:
		return nil, MakeErrorWithData(http.StatusBadRequest, ErrCodeIllegalValue,
			fmt.Sprintf("Unknown log category '%s'", query.Category),
			map[string]string{"field": "category"},
		)
	}
	entries, err := s.repo.Recent(query.Category, query.Limit)
	if err != nil {
		return nil, storageError("Error while reading the log", err)
	}
	return entries, nil
}
