// Package history ranks expense descriptions for auto-complete.
//
// Every recorded expense feeds the ranking: entries are matched
// case-insensitively, ordered by use count with recency breaking ties,
// and the table is capped so it never grows past a fixed size.
package history

import (
	"context"
	"fmt"
	"strings"

	"finpad/internal/core"
	"finpad/internal/ledger"
	"finpad/internal/log"
)

// Store is the persistence needed by the service, implemented by
// storage.SQLiteRepository.
type Store interface {
	UpsertDescription(ctx context.Context, description string, amount core.Money, usedOn core.Date) error
	TopDescriptions(ctx context.Context, prefix string, limit int) ([]ledger.Suggestion, error)
	PruneHistory(ctx context.Context, max int) error
}

type Service struct {
	store           Store
	maxEntries      int
	suggestionLimit int
	logger          *log.Logger
}

func NewService(store Store, maxEntries, suggestionLimit int, logger *log.Logger) *Service {
	return &Service{
		store:           store,
		maxEntries:      maxEntries,
		suggestionLimit: suggestionLimit,
		logger:          logger.WithComponent(log.ComponentHistory),
	}
}

// Record counts one use of description. Pruning failures are logged
// but do not fail the call; the cap is enforced again on the next use.
func (s *Service) Record(ctx context.Context, description string, amount core.Money, usedOn core.Date) error {
	description = strings.TrimSpace(description)
	if description == "" {
		return core.ErrEmptyDescription
	}

	if err := s.store.UpsertDescription(ctx, description, amount, usedOn); err != nil {
		return fmt.Errorf("record description use: %w", err)
	}

	if err := s.store.PruneHistory(ctx, s.maxEntries); err != nil {
		s.logger.WarnContext(ctx, "Failed to prune description history",
			log.FieldOperation, log.OpSweep,
			log.FieldError, err)
	}

	return nil
}

// Suggest implements ledger.Suggester. A non-positive or oversized
// limit falls back to the configured default.
func (s *Service) Suggest(ctx context.Context, prefix string, limit int) ([]ledger.Suggestion, error) {
	if limit <= 0 || limit > s.suggestionLimit {
		limit = s.suggestionLimit
	}

	suggestions, err := s.store.TopDescriptions(ctx, strings.TrimSpace(prefix), limit)
	if err != nil {
		return nil, fmt.Errorf("suggest descriptions: %w", err)
	}
	return suggestions, nil
}
