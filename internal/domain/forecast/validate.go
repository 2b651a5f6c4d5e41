package forecast

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/yanqian/fishcast/internal/domain/location"
	apperrors "github.com/yanqian/fishcast/pkg/errors"
	"github.com/yanqian/fishcast/pkg/util"
)

var fieldMessages = map[string]string{
	"Lat":           "lat must be a number between -90 and 90",
	"Lng":           "lng must be a number between -180 and 180",
	"Days":          "days must be between 1 and 14",
	"Start":         "start must be formatted as YYYY-MM-DD",
	"Timezone":      "tz must be a valid IANA timezone",
	"TargetSpecies": "target_species contains an invalid id",
}

// normalize validates req, fills defaults and resolves the query range.
// It has no side effects beyond mutating req.
func (s *service) normalize(req *Request) (Query, error) {
	if req.Days == nil {
		days := s.cfg.DefaultDays
		req.Days = &days
	}
	req.TargetSpecies = cleanIDs(req.TargetSpecies)

	if math.IsNaN(req.Lat) || math.IsNaN(req.Lng) || math.IsInf(req.Lat, 0) || math.IsInf(req.Lng, 0) {
		return Query{}, invalid("lat and lng must be finite numbers", nil)
	}
	if err := s.validate.Struct(req); err != nil {
		return Query{}, invalid(describeValidation(err), err)
	}
	if s.cfg.MaxDays > 0 && *req.Days > s.cfg.MaxDays {
		return Query{}, invalid(fieldMessages["Days"], nil)
	}

	tz := req.Timezone
	if tz == "" {
		tz = s.cfg.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Query{}, invalid(fieldMessages["Timezone"], err)
	}

	today := util.StartOfDay(s.now(), loc)
	start := today
	if req.Start != "" {
		start, err = util.ParseDate(req.Start, loc)
		if err != nil {
			return Query{}, invalid(fieldMessages["Start"], err)
		}
		if start.Before(today) && !s.cfg.AllowPastDates {
			return Query{}, invalid("start cannot be in the past", nil)
		}
	}

	return Query{
		Coord:    location.Coordinate{Lat: req.Lat, Lng: req.Lng},
		Start:    start,
		Days:     *req.Days,
		Location: loc,
	}, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		field, _, _ := strings.Cut(verrs[0].StructField(), "[")
		if msg, ok := fieldMessages[field]; ok {
			return msg
		}
	}
	return "invalid forecast request"
}

func invalid(message string, err error) error {
	return apperrors.Wrap(apperrors.CodeInvalidInput, message, err)
}

func cleanIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
