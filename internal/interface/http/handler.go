package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/fishcast/internal/domain/forecast"
	apperrors "github.com/yanqian/fishcast/pkg/errors"
)

// Handler wires the HTTP transport to the forecast service.
type Handler struct {
	forecastSvc forecast.Service
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(forecastSvc forecast.Service, logger *slog.Logger) *Handler {
	return &Handler{
		forecastSvc: forecastSvc,
		logger:      logger.With("component", "http.handler"),
	}
}

type envelope struct {
	Error bool `json:"error"`
	Data  any  `json:"data"`
}

// Forecast handles GET /api/v1/forecast.
func (h *Handler) Forecast(c *gin.Context) {
	lat, err := requiredFloat(c, "lat")
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	lng, err := requiredFloat(c, "lng")
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	days, err := optionalPositiveInt(c, "days")
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}

	req := forecast.Request{
		ClientID:      clientID(c),
		Lat:           lat,
		Lng:           lng,
		Start:         strings.TrimSpace(c.Query("start")),
		Days:          days,
		Timezone:      strings.TrimSpace(c.Query("tz")),
		TargetSpecies: splitCSV(c.Query("target_species")),
		Refresh:       parseFlag(c.Query("refresh")),
	}

	resp, err := h.forecastSvc.Forecast(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, envelope{Data: resp})
}

// TodaysBest handles GET /api/v1/todays-best.
func (h *Handler) TodaysBest(c *gin.Context) {
	limit, err := optionalInt(c, "limit")
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	speciesID := c.Query("species_id")
	if speciesID == "" {
		speciesID = c.Query("species")
	}

	resp, err := h.forecastSvc.TodaysBest(c.Request.Context(), forecast.TodaysBestRequest{
		ClientID:  clientID(c),
		State:     c.Query("state"),
		Region:    c.Query("region"),
		Limit:     limit,
		SpeciesID: speciesID,
	})
	if err != nil {
		abortWithError(c, fromDomainError(err))
		return
	}
	c.JSON(http.StatusOK, envelope{Data: resp})
}

func requiredFloat(c *gin.Context, name string) (float64, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, apperrors.Wrap(apperrors.CodeInvalidInput, name+" is required", nil)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInvalidInput, name+" must be a number", err)
	}
	return v, nil
}

func optionalInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInvalidInput, name+" must be an integer", err)
	}
	return v, nil
}

// optionalPositiveInt returns nil when the parameter is absent so the service default applies.
func optionalPositiveInt(c *gin.Context, name string) (*int, error) {
	if strings.TrimSpace(c.Query(name)) == "" {
		return nil, nil
	}
	v, err := optionalInt(c, name)
	if err != nil {
		return nil, err
	}
	if v < 1 {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, name+" must be a positive integer", nil)
	}
	return &v, nil
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseFlag(raw string) bool {
	return raw == "1" || strings.EqualFold(raw, "true")
}
