package refdata

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yanqian/fishcast/internal/domain/forecast"
	"github.com/yanqian/fishcast/internal/domain/location"
)

// Writer stores reference rows. The SQL repositories and MemoryRepository implement it.
type Writer interface {
	UpsertSpeciesRule(ctx context.Context, rule forecast.SpeciesRule) error
	// UpsertTackleItem stores item by name and returns its id.
	UpsertTackleItem(ctx context.Context, item forecast.TackleItem) (int64, error)
	LinkTackle(ctx context.Context, speciesID string, itemID int64, priority int) error
	UpsertLocation(ctx context.Context, loc location.Saved) error
}

// Seed is the YAML reference data file.
type Seed struct {
	Species   []SpeciesSeed  `yaml:"species"`
	Tackle    []TackleSeed   `yaml:"tackle"`
	Locations []LocationSeed `yaml:"locations"`
}

type SpeciesSeed struct {
	ID                  string       `yaml:"id"`
	Name                string       `yaml:"name"`
	SeasonStart         int          `yaml:"seasonStart"`
	SeasonEnd           int          `yaml:"seasonEnd"`
	PreferredTideState  string       `yaml:"preferredTideState"`
	PreferredWindMax    float64      `yaml:"preferredWindMax"`
	PreferredConditions string       `yaml:"preferredConditions"`
	Gear                GearSeed     `yaml:"gear"`
	Tackle              []TackleLink `yaml:"tackle"`
}

type GearSeed struct {
	Bait       string `yaml:"bait"`
	Lure       string `yaml:"lure"`
	LineWeight string `yaml:"lineWeight"`
	Leader     string `yaml:"leader"`
	Rig        string `yaml:"rig"`
}

type TackleLink struct {
	Item     string `yaml:"item"`
	Priority int    `yaml:"priority"`
}

type TackleSeed struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Notes    string `yaml:"notes"`
}

type LocationSeed struct {
	Name        string  `yaml:"name"`
	Region      string  `yaml:"region"`
	State       string  `yaml:"state"`
	Lat         float64 `yaml:"lat"`
	Lng         float64 `yaml:"lng"`
	Timezone    string  `yaml:"timezone"`
	Description string  `yaml:"description"`
}

// LoadSeed reads and validates a seed file.
func LoadSeed(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read reference seed: %w", err)
	}
	return ParseSeed(raw)
}

// ParseSeed decodes YAML seed data.
func ParseSeed(raw []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return Seed{}, fmt.Errorf("decode reference seed: %w", err)
	}
	if err := seed.validate(); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

func (s Seed) validate() error {
	items := make(map[string]bool, len(s.Tackle))
	for _, t := range s.Tackle {
		if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Category) == "" {
			return fmt.Errorf("tackle item needs a name and category")
		}
		items[t.Name] = true
	}
	for _, sp := range s.Species {
		if sp.ID == "" || sp.Name == "" {
			return fmt.Errorf("species needs an id and name")
		}
		if sp.SeasonStart < 1 || sp.SeasonStart > 12 || sp.SeasonEnd < 1 || sp.SeasonEnd > 12 {
			return fmt.Errorf("species %s: season months must be 1-12", sp.ID)
		}
		switch sp.PreferredTideState {
		case forecast.TideRising, forecast.TideFalling, forecast.TideHigh, forecast.TideLow, forecast.TideAny:
		default:
			return fmt.Errorf("species %s: unknown tide state %q", sp.ID, sp.PreferredTideState)
		}
		for _, link := range sp.Tackle {
			if !items[link.Item] {
				return fmt.Errorf("species %s: unknown tackle item %q", sp.ID, link.Item)
			}
		}
	}
	for _, loc := range s.Locations {
		if loc.Name == "" || loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
			return fmt.Errorf("location %q: invalid name or coordinates", loc.Name)
		}
	}
	return nil
}

// Apply writes the seed through w. It is idempotent.
func (s Seed) Apply(ctx context.Context, w Writer) error {
	itemIDs := make(map[string]int64, len(s.Tackle))
	for _, t := range s.Tackle {
		id, err := w.UpsertTackleItem(ctx, forecast.TackleItem{Name: t.Name, Category: t.Category, Notes: t.Notes})
		if err != nil {
			return fmt.Errorf("seed tackle %s: %w", t.Name, err)
		}
		itemIDs[t.Name] = id
	}
	for _, sp := range s.Species {
		if err := w.UpsertSpeciesRule(ctx, sp.rule()); err != nil {
			return fmt.Errorf("seed species %s: %w", sp.ID, err)
		}
		for _, link := range sp.Tackle {
			if err := w.LinkTackle(ctx, sp.ID, itemIDs[link.Item], link.Priority); err != nil {
				return fmt.Errorf("seed tackle link %s/%s: %w", sp.ID, link.Item, err)
			}
		}
	}
	for _, loc := range s.Locations {
		if err := w.UpsertLocation(ctx, loc.saved()); err != nil {
			return fmt.Errorf("seed location %s: %w", loc.Name, err)
		}
	}
	return nil
}

func (sp SpeciesSeed) rule() forecast.SpeciesRule {
	return forecast.SpeciesRule{
		ID:                  sp.ID,
		Name:                sp.Name,
		SeasonStartMonth:    sp.SeasonStart,
		SeasonEndMonth:      sp.SeasonEnd,
		PreferredTideState:  sp.PreferredTideState,
		PreferredWindMax:    sp.PreferredWindMax,
		PreferredConditions: sp.PreferredConditions,
		GearBait:            sp.Gear.Bait,
		GearLure:            sp.Gear.Lure,
		GearLineWeight:      sp.Gear.LineWeight,
		GearLeader:          sp.Gear.Leader,
		GearRig:             sp.Gear.Rig,
	}
}

func (l LocationSeed) saved() location.Saved {
	return location.Saved{
		Name:        l.Name,
		Region:      l.Region,
		State:       strings.ToUpper(l.State),
		Lat:         l.Lat,
		Lng:         l.Lng,
		Timezone:    l.Timezone,
		Description: l.Description,
	}
}
