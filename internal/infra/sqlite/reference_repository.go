package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/yanqian/fishcast/internal/domain/forecast"
	"github.com/yanqian/fishcast/internal/domain/location"
	"github.com/yanqian/fishcast/internal/infra/refdata"
)

// ReferenceRepository reads species rules, tackle and saved locations.
type ReferenceRepository struct {
	db *sql.DB
}

// NewReferenceRepository constructs the repository.
func NewReferenceRepository(db *sql.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func (r *ReferenceRepository) ActiveSpeciesRules(ctx context.Context, month int) ([]forecast.SpeciesRule, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT species_id, common_name, season_start_month, season_end_month,
		       preferred_tide_state, preferred_wind_max, preferred_conditions,
		       gear_bait, gear_lure, gear_line_weight, gear_leader, gear_rig
		FROM species_rules
		WHERE (season_start_month <= season_end_month AND ?1 BETWEEN season_start_month AND season_end_month)
		   OR (season_start_month > season_end_month AND (?1 >= season_start_month OR ?1 <= season_end_month))
		ORDER BY species_id
	`, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]forecast.SpeciesRule, 0)
	for rows.Next() {
		var rule forecast.SpeciesRule
		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.SeasonStartMonth, &rule.SeasonEndMonth,
			&rule.PreferredTideState, &rule.PreferredWindMax, &rule.PreferredConditions,
			&rule.GearBait, &rule.GearLure, &rule.GearLineWeight, &rule.GearLeader, &rule.GearRig,
		); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *ReferenceRepository) TackleForSpecies(ctx context.Context, speciesIDs []string) ([]forecast.SpeciesTackle, error) {
	if len(speciesIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(speciesIDs)), ",")
	args := make([]any, len(speciesIDs))
	for i, id := range speciesIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT st.species_id, st.priority, ti.id, ti.name, ti.category, ti.notes
		FROM species_tackle st
		JOIN tackle_items ti ON ti.id = st.tackle_item_id
		WHERE st.species_id IN (`+placeholders+`)
		ORDER BY st.species_id, st.priority, ti.name
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make([]forecast.SpeciesTackle, 0)
	for rows.Next() {
		var link forecast.SpeciesTackle
		if err := rows.Scan(&link.SpeciesID, &link.Priority, &link.Item.ID, &link.Item.Name, &link.Item.Category, &link.Item.Notes); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (r *ReferenceRepository) List(ctx context.Context, f location.Filter) ([]location.Saved, error) {
	limit := -1
	if f.Limit > 0 {
		limit = f.Limit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, region, state, lat, lng, timezone, description
		FROM saved_locations
		WHERE (?1 = '' OR upper(state) = upper(?1))
		  AND (?2 = '' OR lower(region) = lower(?2))
		ORDER BY name
		LIMIT ?3
	`, f.State, f.Region, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]location.Saved, 0)
	for rows.Next() {
		var loc location.Saved
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Region, &loc.State, &loc.Lat, &loc.Lng, &loc.Timezone, &loc.Description); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (r *ReferenceRepository) UpsertSpeciesRule(ctx context.Context, rule forecast.SpeciesRule) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO species_rules (species_id, common_name, season_start_month, season_end_month,
			preferred_tide_state, preferred_wind_max, preferred_conditions,
			gear_bait, gear_lure, gear_line_weight, gear_leader, gear_rig)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (species_id) DO UPDATE
		SET common_name = excluded.common_name,
		    season_start_month = excluded.season_start_month,
		    season_end_month = excluded.season_end_month,
		    preferred_tide_state = excluded.preferred_tide_state,
		    preferred_wind_max = excluded.preferred_wind_max,
		    preferred_conditions = excluded.preferred_conditions,
		    gear_bait = excluded.gear_bait,
		    gear_lure = excluded.gear_lure,
		    gear_line_weight = excluded.gear_line_weight,
		    gear_leader = excluded.gear_leader,
		    gear_rig = excluded.gear_rig
	`, rule.ID, rule.Name, rule.SeasonStartMonth, rule.SeasonEndMonth,
		rule.PreferredTideState, rule.PreferredWindMax, rule.PreferredConditions,
		rule.GearBait, rule.GearLure, rule.GearLineWeight, rule.GearLeader, rule.GearRig)
	return err
}

func (r *ReferenceRepository) UpsertTackleItem(ctx context.Context, item forecast.TackleItem) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO tackle_items (name, category, notes)
		VALUES (?, ?, ?)
		ON CONFLICT (name) DO UPDATE
		SET category = excluded.category, notes = excluded.notes
		RETURNING id
	`, item.Name, item.Category, item.Notes).Scan(&id)
	return id, err
}

func (r *ReferenceRepository) LinkTackle(ctx context.Context, speciesID string, itemID int64, priority int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO species_tackle (species_id, tackle_item_id, priority)
		VALUES (?, ?, ?)
		ON CONFLICT (species_id, tackle_item_id) DO UPDATE SET priority = excluded.priority
	`, speciesID, itemID, priority)
	return err
}

func (r *ReferenceRepository) UpsertLocation(ctx context.Context, loc location.Saved) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO saved_locations (name, region, state, lat, lng, timezone, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name, state) DO UPDATE
		SET region = excluded.region,
		    lat = excluded.lat,
		    lng = excluded.lng,
		    timezone = excluded.timezone,
		    description = excluded.description
	`, loc.Name, loc.Region, loc.State, loc.Lat, loc.Lng, loc.Timezone, loc.Description)
	return err
}

var (
	_ forecast.ReferenceRepository = (*ReferenceRepository)(nil)
	_ location.Repository          = (*ReferenceRepository)(nil)
	_ refdata.Writer               = (*ReferenceRepository)(nil)
)
