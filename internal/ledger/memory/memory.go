// Package memory is an in-memory ledger used for tests and for running
// without a database file.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"finpad/internal/core"
	"finpad/internal/ledger"
)

// ErrNotFound is returned when an expense id does not exist.
var ErrNotFound = errors.New("expense not found")

type historyEntry struct {
	text       string
	useCount   int
	lastUsed   core.Date
	lastAmount core.Money
}

type Store struct {
	mu      sync.Mutex
	nextID  int64
	items   map[int64]core.Expense
	order   []int64
	history map[string]*historyEntry
}

func New() *Store {
	return &Store{
		nextID:  1,
		items:   make(map[int64]core.Expense),
		history: make(map[string]*historyEntry),
	}
}

// Record implements ledger.ExpenseWriter
func (s *Store) Record(_ context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.items[id] = e
	s.order = append(s.order, id)

	s.recordUse(e)
	return id, nil
}

func (s *Store) recordUse(e core.Expense) {
	key := strings.ToLower(e.Description)
	if entry, ok := s.history[key]; ok {
		entry.useCount++
		entry.lastUsed = e.Date
		entry.lastAmount = e.Amount
		return
	}
	s.history[key] = &historyEntry{
		text:       e.Description,
		useCount:   1,
		lastUsed:   e.Date,
		lastAmount: e.Amount,
	}
}

// Delete implements ledger.ExpenseDeleter
func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// ListMonth implements ledger.ExpenseLister
func (s *Store) ListMonth(_ context.Context, month core.MonthKey) ([]ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []ledger.Record
	for _, id := range s.order {
		e, ok := s.items[id]
		if !ok || !month.Contains(e.Date) {
			continue
		}
		records = append(records, ledger.Record{ID: id, Expense: e})
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records, nil
}

// MonthTotal implements ledger.MonthReader
func (s *Store) MonthTotal(_ context.Context, month core.MonthKey) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cents int64
	for _, e := range s.items {
		if month.Contains(e.Date) {
			cents += e.Amount.Cents
		}
	}
	return core.Money{Cents: cents}, nil
}

// Months implements ledger.MonthReader, newest month first.
func (s *Store) Months(_ context.Context) ([]core.MonthKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[core.MonthKey]struct{}{}
	var months []core.MonthKey
	for _, e := range s.items {
		key := core.MonthKeyOf(e.Date.Time)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			months = append(months, key)
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i] > months[j] })
	return months, nil
}

// Suggest implements ledger.Suggester
func (s *Store) Suggest(_ context.Context, prefix string, limit int) ([]ledger.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	var out []ledger.Suggestion
	for key, entry := range s.history {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, ledger.Suggestion{
			Text:       entry.text,
			UseCount:   entry.useCount,
			LastUsed:   entry.lastUsed,
			LastAmount: entry.lastAmount,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UseCount != out[j].UseCount {
			return out[i].UseCount > out[j].UseCount
		}
		return out[j].LastUsed.Before(out[i].LastUsed)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
