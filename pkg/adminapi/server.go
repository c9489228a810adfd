// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

// Package adminapi exposes operator endpoints over HTTP: queue processing,
// health, game scoring and voiding, draft cancellation and /metrics.
package adminapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	validator "github.com/AccelByte/justice-input-validation-go"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rbwleague/matchcoordinator/pkg/envelope"
	"github.com/rbwleague/matchcoordinator/pkg/game"
	"github.com/rbwleague/matchcoordinator/pkg/models"
	"github.com/rbwleague/matchcoordinator/pkg/orchestrator"
	"github.com/rbwleague/matchcoordinator/pkg/repository"
)

const traceIDHeader = "X-Trace-Id"

type Orchestrator interface {
	ProcessQueue(scope *envelope.Scope, queueID string) orchestrator.Result
	ProcessAllQueues(scope *envelope.Scope) (map[string]orchestrator.Result, error)
	Stats() orchestrator.Stats
	QueueHealth(queueID string) orchestrator.Health
	ResetQueueHealth(queueID string) bool
	IsPlayerInAnyQueue(playerID string) (string, bool)
	InvalidateQueue(queueID string)
}

type Games interface {
	ScoreGame(scope *envelope.Scope, req game.ScoreRequest) (game.ScoreResult, error)
	VoidGame(scope *envelope.Scope, gameID int, reason string) (game.VoidResult, error)
	Reconcile(scope *envelope.Scope, gameID int) (game.AuditReport, error)
	ActiveGameIDs() []int
}

type Drafts interface {
	CancelSession(gameID int) bool
	Active() []int
}

// Queues is the membership table players join and leave.
type Queues interface {
	Join(queueID, playerID string) bool
	Leave(queueID, playerID string) bool
	Members(queueID string) []string
}

type Handler struct {
	orchestrator Orchestrator
	games        Games
	drafts       Drafts
	queues       Queues
}

func NewHandler(o Orchestrator, games Games, drafts Drafts, queues Queues) *Handler {
	return &Handler{orchestrator: o, games: games, drafts: drafts, queues: queues}
}

// NewRouter mounts every admin route plus /metrics served from registry.
func NewRouter(h *Handler, registry *prometheus.Registry) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Get("/stats", h.stats)

	r.Route("/queues", func(r chi.Router) {
		r.Post("/process", h.processAll)
		r.Route("/{queueID}", func(r chi.Router) {
			r.Post("/process", h.processQueue)
			r.Get("/health", h.queueHealth)
			r.Post("/health/reset", h.resetHealth)
			r.Post("/invalidate", h.invalidateQueue)
			r.Get("/players", h.members)
			r.Put("/players/{playerID}", h.join)
			r.Delete("/players/{playerID}", h.leave)
		})
	})
	r.Get("/players/{playerID}/queue", h.playerQueue)

	r.Route("/games", func(r chi.Router) {
		r.Get("/", h.activeGames)
		r.Route("/{gameID}", func(r chi.Router) {
			r.Post("/score", h.scoreGame)
			r.Post("/void", h.voidGame)
			r.Get("/audit", h.auditGame)
		})
	})

	r.Route("/drafts", func(r chi.Router) {
		r.Get("/", h.activeDrafts)
		r.Delete("/{gameID}", h.cancelDraft)
	})
	return r
}

func newScope(r *http.Request, name string) *envelope.Scope {
	return envelope.NewRootScope(r.Context(), "adminapi."+name, r.Header.Get(traceIDHeader))
}

type errorResponse struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{ErrorCode: models.ErrorCode(err), ErrorMessage: err.Error()})
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, models.ErrGameNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrGameAlreadyScored), errors.Is(err, models.ErrGameAlreadyVoided):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidScoreResult), errors.Is(err, models.ErrInvalidWinningTeam),
		errors.Is(err, models.ErrInvalidVoidRequest), errors.Is(err, models.ErrMalformedTeams),
		errors.Is(err, models.ErrOverlappingTeams):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func gameIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "gameID"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("game id must be a positive number"))
		return 0, false
	}
	return id, true
}

func (h *Handler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.orchestrator.Stats())
}

func (h *Handler) processAll(w http.ResponseWriter, r *http.Request) {
	scope := newScope(r, "processAllQueues")
	defer scope.Finish()

	results, err := h.orchestrator.ProcessAllQueues(scope)
	if err != nil {
		scope.Log.WithError(err).Error("[adminapi] process all queues failed")
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) processQueue(w http.ResponseWriter, r *http.Request) {
	scope := newScope(r, "processQueue")
	defer scope.Finish()

	result := h.orchestrator.ProcessQueue(scope, chi.URLParam(r, "queueID"))
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) queueHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orchestrator.QueueHealth(chi.URLParam(r, "queueID")))
}

func (h *Handler) resetHealth(w http.ResponseWriter, r *http.Request) {
	if !h.orchestrator.ResetQueueHealth(chi.URLParam(r, "queueID")) {
		writeError(w, http.StatusNotFound, errors.New("queue has no processing state"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) invalidateQueue(w http.ResponseWriter, r *http.Request) {
	h.orchestrator.InvalidateQueue(chi.URLParam(r, "queueID"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) members(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.queues.Members(chi.URLParam(r, "queueID")))
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	queueID, playerID := chi.URLParam(r, "queueID"), chi.URLParam(r, "playerID")
	if current, ok := h.orchestrator.IsPlayerInAnyQueue(playerID); ok && current != queueID {
		writeError(w, http.StatusConflict, errors.New("player is waiting in another queue"))
		return
	}
	if !h.queues.Join(queueID, playerID) {
		writeError(w, http.StatusConflict, errors.New("player already queued or queue is full"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) leave(w http.ResponseWriter, r *http.Request) {
	if !h.queues.Leave(chi.URLParam(r, "queueID"), chi.URLParam(r, "playerID")) {
		writeError(w, http.StatusNotFound, errors.New("player is not in this queue"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) playerQueue(w http.ResponseWriter, r *http.Request) {
	queueID, ok := h.orchestrator.IsPlayerInAnyQueue(chi.URLParam(r, "playerID"))
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("player is not queued"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"queueId": queueID})
}

func (h *Handler) activeGames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.games.ActiveGameIDs())
}

type scoreRequest struct {
	WinningTeam int                           `json:"winningTeam" optional:"true" valid:"range(0|2)"`
	WinningIGNs []string                      `json:"winningIgns" valid:"-"`
	MVPs        []string                      `json:"mvps"        valid:"-"`
	BedBreakers []string                      `json:"bedBreakers" valid:"-"`
	Stats       map[string]models.PlayerStats `json:"stats"       valid:"-"`
	Reason      string                        `json:"reason"      optional:"true" valid:"stringlength(1|2000)"`
}

func (h *Handler) scoreGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}
	var body scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := validator.ValidateStruct(body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", models.ErrInvalidScoreResult, err))
		return
	}

	scope := newScope(r, "scoreGame")
	defer scope.Finish()

	result, err := h.games.ScoreGame(scope, game.ScoreRequest{
		GameID:      gameID,
		WinningTeam: body.WinningTeam,
		WinningIGNs: body.WinningIGNs,
		MVPs:        body.MVPs,
		BedBreakers: body.BedBreakers,
		Stats:       body.Stats,
		Reason:      body.Reason,
	})
	if err != nil {
		scope.Log.WithError(err).Warnf("[adminapi] scoring game %d failed", gameID)
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type voidRequest struct {
	Reason string `json:"reason" valid:"required,stringlength(1|2000)"`
}

func (h *Handler) voidGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}
	var body voidRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := validator.ValidateStruct(body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", models.ErrInvalidVoidRequest, err))
		return
	}

	scope := newScope(r, "voidGame")
	defer scope.Finish()

	result, err := h.games.VoidGame(scope, gameID, body.Reason)
	if err != nil {
		scope.Log.WithError(err).Warnf("[adminapi] voiding game %d failed", gameID)
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) auditGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}
	scope := newScope(r, "reconcileGame")
	defer scope.Finish()

	report, err := h.games.Reconcile(scope, gameID)
	if err != nil {
		writeError(w, statusOf(err), err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) activeDrafts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.drafts.Active())
}

func (h *Handler) cancelDraft(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}
	if !h.drafts.CancelSession(gameID) {
		writeError(w, http.StatusNotFound, errors.New("no draft in progress for this game"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
