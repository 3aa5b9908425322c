package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ceblhub/team-tracker/internal/domain/fixture"
	"github.com/ceblhub/team-tracker/internal/domain/teamstate"
	"github.com/ceblhub/team-tracker/internal/platform/logging"
)

// StateReader is the read side of the tracker's state repository.
type StateReader interface {
	Get(ctx context.Context, teamID string) (teamstate.TeamState, bool, error)
	List(ctx context.Context) ([]teamstate.TeamState, error)
}

// TeamLister lists the teams known to the season schedule.
type TeamLister interface {
	ListTeams(ctx context.Context) ([]fixture.TeamRef, error)
}

type Handler struct {
	states    StateReader
	teams     TeamLister
	logger    *logging.Logger
	validator *validator.Validate
}

func NewHandler(states StateReader, teams TeamLister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		states:    states,
		teams:     teams,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	teams, err := h.teams.ListTeams(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamDTO, 0, len(teams))
	for _, team := range teams {
		items = append(items, teamToDTO(team))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetTeamState(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTeamState")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	if err := h.validateRequest(ctx, teamStateRequest{TeamID: teamID}); err != nil {
		writeError(ctx, w, err)
		return
	}

	state, ok, err := h.states.Get(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "get team state failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: no state for team %s", errTeamNotTracked, teamID))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, state)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", errInvalidRequest, err)
	}

	return nil
}

type teamStateRequest struct {
	TeamID string `validate:"required,numeric"`
}

type teamDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url"`
}

func teamToDTO(v fixture.TeamRef) teamDTO {
	return teamDTO{
		ID:      v.ID,
		Name:    v.Name,
		LogoURL: v.LogoURL,
	}
}
