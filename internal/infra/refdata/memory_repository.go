package refdata

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/yanqian/fishcast/internal/domain/forecast"
	"github.com/yanqian/fishcast/internal/domain/location"
)

type tackleLink struct {
	speciesID string
	itemID    int64
	priority  int
}

// MemoryRepository serves reference data and saved locations from memory.
type MemoryRepository struct {
	mu        sync.RWMutex
	rules     map[string]forecast.SpeciesRule
	items     map[int64]forecast.TackleItem
	itemNames map[string]int64
	links     []tackleLink
	locations []location.Saved
	nextItem  int64
	nextLoc   int64
}

// NewMemoryRepository constructs an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rules:     make(map[string]forecast.SpeciesRule),
		items:     make(map[int64]forecast.TackleItem),
		itemNames: make(map[string]int64),
	}
}

// ActiveSpeciesRules implements forecast.ReferenceRepository.
func (r *MemoryRepository) ActiveSpeciesRules(_ context.Context, month int) ([]forecast.SpeciesRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]forecast.SpeciesRule, 0, len(r.rules))
	for _, rule := range r.rules {
		if rule.ActiveIn(month) {
			out = append(out, rule)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// TackleForSpecies implements forecast.ReferenceRepository.
func (r *MemoryRepository) TackleForSpecies(_ context.Context, speciesIDs []string) ([]forecast.SpeciesTackle, error) {
	wanted := make(map[string]bool, len(speciesIDs))
	for _, id := range speciesIDs {
		wanted[id] = true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]forecast.SpeciesTackle, 0)
	for _, link := range r.links {
		if !wanted[link.speciesID] {
			continue
		}
		out = append(out, forecast.SpeciesTackle{
			SpeciesID: link.speciesID,
			Priority:  link.priority,
			Item:      r.items[link.itemID],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.SpeciesID != b.SpeciesID {
			return a.SpeciesID < b.SpeciesID
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.Item.Name < b.Item.Name
	})
	return out, nil
}

// List implements location.Repository. Results are ordered by name.
func (r *MemoryRepository) List(_ context.Context, f location.Filter) ([]location.Saved, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]location.Saved, 0, len(r.locations))
	for _, loc := range r.locations {
		if f.State != "" && !strings.EqualFold(loc.State, f.State) {
			continue
		}
		if f.Region != "" && !strings.EqualFold(loc.Region, f.Region) {
			continue
		}
		out = append(out, loc)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemoryRepository) UpsertSpeciesRule(_ context.Context, rule forecast.SpeciesRule) error {
	r.mu.Lock()
	r.rules[rule.ID] = rule
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) UpsertTackleItem(_ context.Context, item forecast.TackleItem) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.itemNames[item.Name]
	if !ok {
		r.nextItem++
		id = r.nextItem
		r.itemNames[item.Name] = id
	}
	item.ID = id
	r.items[id] = item
	return id, nil
}

func (r *MemoryRepository) LinkTackle(_ context.Context, speciesID string, itemID int64, priority int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, link := range r.links {
		if link.speciesID == speciesID && link.itemID == itemID {
			r.links[i].priority = priority
			return nil
		}
	}
	r.links = append(r.links, tackleLink{speciesID: speciesID, itemID: itemID, priority: priority})
	return nil
}

func (r *MemoryRepository) UpsertLocation(_ context.Context, loc location.Saved) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.locations {
		if existing.Name == loc.Name && existing.State == loc.State {
			loc.ID = existing.ID
			r.locations[i] = loc
			return nil
		}
	}
	r.nextLoc++
	loc.ID = r.nextLoc
	r.locations = append(r.locations, loc)
	return nil
}

var (
	_ forecast.ReferenceRepository = (*MemoryRepository)(nil)
	_ location.Repository          = (*MemoryRepository)(nil)
	_ Writer                       = (*MemoryRepository)(nil)
)
