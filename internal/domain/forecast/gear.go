package forecast

import (
	"sort"
	"strings"
)

const (
	defaultLineWeight = "8-15lb"
	defaultLeader     = "10-20lb"
	defaultRig        = "paternoster or running sinker"
	baitCategory      = "bait"
	essentialPriority = 1
)

var lureCategories = []string{"soft_plastics", "metal_lures", "poppers", "hardbody_lures", "squid_jigs"}

// DefaultGear is returned when no species is available to base gear on.
func DefaultGear() GearSuggestion {
	return GearSuggestion{
		Bait:       []string{},
		Lure:       []string{},
		LineWeight: defaultLineWeight,
		Leader:     defaultLeader,
		Rig:        defaultRig,
		Tackle:     []TackleCategory{},
	}
}

// GearSpecies picks the species gear is built for: explicit targets first,
// otherwise the top recommendation.
func GearSpecies(targets []string, recommended []SpeciesRecommendation) []string {
	if len(targets) > 0 {
		return targets
	}
	if len(recommended) > 0 {
		return []string{recommended[0].ID}
	}
	return nil
}

type tackleGroup struct {
	category   string
	priorities map[int][]TackleItem
}

// BuildGear combines the tackle catalog with the legacy gear text of the
// primary species. legacy is keyed by species id.
func BuildGear(speciesIDs []string, tackle []SpeciesTackle, legacy map[string]SpeciesRule) GearSuggestion {
	if len(speciesIDs) == 0 {
		return DefaultGear()
	}

	groups := groupTackle(tackle)
	gear := DefaultGear()

	rule, hasLegacy := legacy[speciesIDs[0]]
	if hasLegacy {
		gear.LineWeight = firstNonEmpty(rule.GearLineWeight, defaultLineWeight)
		gear.Leader = firstNonEmpty(rule.GearLeader, defaultLeader)
		gear.Rig = firstNonEmpty(rule.GearRig, defaultRig)
	}

	if bait := essentialNames(groups, baitCategory); len(bait) > 0 {
		gear.Bait = bait
	} else if hasLegacy && rule.GearBait != "" {
		gear.Bait = splitGear(rule.GearBait)
	}

	for _, category := range lureCategories {
		gear.Lure = append(gear.Lure, essentialNames(groups, category)...)
	}
	if len(gear.Lure) == 0 && hasLegacy && rule.GearLure != "" {
		gear.Lure = splitGear(rule.GearLure)
	}

	for _, group := range groups {
		priorities := make([]int, 0, len(group.priorities))
		for p := range group.priorities {
			priorities = append(priorities, p)
		}
		sort.Ints(priorities)
		entries := make([]TackleEntry, 0)
		for _, p := range priorities {
			for _, item := range group.priorities[p] {
				entries = append(entries, TackleEntry{Name: item.Name, Priority: p, Notes: item.Notes})
			}
		}
		if len(entries) > 0 {
			gear.Tackle = append(gear.Tackle, TackleCategory{Category: group.category, Items: entries})
		}
	}
	return gear
}

// groupTackle keeps categories in first-seen order.
func groupTackle(links []SpeciesTackle) []*tackleGroup {
	groups := make([]*tackleGroup, 0)
	index := make(map[string]*tackleGroup)
	for _, link := range links {
		group, ok := index[link.Item.Category]
		if !ok {
			group = &tackleGroup{category: link.Item.Category, priorities: make(map[int][]TackleItem)}
			index[link.Item.Category] = group
			groups = append(groups, group)
		}
		group.priorities[link.Priority] = append(group.priorities[link.Priority], link.Item)
	}
	return groups
}

func essentialNames(groups []*tackleGroup, category string) []string {
	for _, group := range groups {
		if group.category != category {
			continue
		}
		items := group.priorities[essentialPriority]
		names := make([]string, 0, len(items))
		for _, item := range items {
			names = append(names, item.Name)
		}
		return names
	}
	return nil
}

func splitGear(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
