// Package handler exposes the analytics engine over a JSON HTTP API.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/parole-app/parole/internal/i18n"
	"github.com/parole-app/parole/internal/model"
	"github.com/parole-app/parole/internal/store"
	"github.com/parole-app/parole/internal/tracker"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	tracker *tracker.Tracker
}

// New creates a new Handler.
func New(s *store.Store, t *tracker.Tracker) *Handler {
	return &Handler{store: s, tracker: t}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/words", h.handleListWords)
		r.Post("/words", h.handleCreateWord)
		r.Get("/words/weakest", h.handleWeakestWords)
		r.Get("/words/{wordID}/analysis", h.handleWordAnalysis)
		r.Get("/stats/global", h.handleGlobalStats)
		r.Get("/stats/chapters", h.handleChapterStats)
		r.Get("/tests", h.handleListTests)
		r.Post("/tests/classify", h.handleClassify)
		r.Post("/tests/complete", h.handleCompleteTest)
		r.Post("/attempts", h.handleRecordAttempt)
		r.Get("/export", h.handleExport)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) handleListWords(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Words())
}

func (h *Handler) handleCreateWord(w http.ResponseWriter, r *http.Request) {
	var word model.Word
	if err := json.NewDecoder(r.Body).Decode(&word); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if word.English == "" || word.Italian == "" {
		writeError(w, http.StatusBadRequest, errors.New("english and italian are required"))
		return
	}
	if word.ID == "" {
		word.ID = uuid.NewString()
	}
	if err := h.store.InsertWord(word); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := h.tracker.ReloadCatalogue(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, word)
}

func (h *Handler) handleWeakestWords(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, h.tracker.WeakestWords(limit))
}

// wordAnalysisResponse wraps the ledger-derived analysis with the
// "now"-relative display fields, which are computed per request and
// never cached with the analysis.
type wordAnalysisResponse struct {
	model.WordAnalysis
	Recommendation string `json:"recommendation"`
	DaysSinceLast  int    `json:"days_since_last"`
}

func (h *Handler) handleWordAnalysis(w http.ResponseWriter, r *http.Request) {
	wordID := chi.URLParam(r, "wordID")
	analysis, err := h.tracker.WordAnalysis(wordID)
	if err != nil {
		if errors.Is(err, tracker.ErrUnknownWord) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, wordAnalysisResponse{
		WordAnalysis:   analysis,
		Recommendation: i18n.T(r.Context(), analysis.RecommendationID()),
		DaysSinceLast:  model.DaysSince(analysis.LastAttempt, time.Now()),
	})
}

func (h *Handler) handleGlobalStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.GlobalStats())
}

func (h *Handler) handleChapterStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.ChapterStats())
}

func (h *Handler) handleListTests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Tests())
}

type classifyRequest struct {
	WordIDs []string `json:"word_ids"`
}

func (h *Handler) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	classification, err := h.tracker.Classify(r.Context(), req.WordIDs)
	if err != nil {
		if errors.Is(err, tracker.ErrUnknownWord) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, classification)
}

type completeTestRequest struct {
	Summary  model.SessionSummary `json:"summary"`
	WordIDs  []string             `json:"word_ids"`
	WrongIDs []string             `json:"wrong_ids"`
}

func (h *Handler) handleCompleteTest(w http.ResponseWriter, r *http.Request) {
	var req completeTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	byID := make(map[string]model.Word)
	for _, word := range h.tracker.Words() {
		byID[word.ID] = word
	}
	words := make([]model.Word, 0, len(req.WordIDs))
	for _, id := range req.WordIDs {
		word, ok := byID[id]
		if !ok {
			writeError(w, http.StatusNotFound, tracker.ErrUnknownWord)
			return
		}
		words = append(words, word)
	}
	result, err := h.tracker.CompleteTest(r.Context(), req.Summary, words, req.WrongIDs)
	if err != nil {
		if errors.Is(err, tracker.ErrEmptySession) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	slog.Info("test completed",
		"test_id", result.ID,
		"words", len(words),
		"percentage", result.Percentage,
		"difficulty", result.Difficulty,
	)
	writeJSON(w, http.StatusCreated, result)
}

type recordAttemptRequest struct {
	WordID   string `json:"word_id"`
	Correct  bool   `json:"correct"`
	UsedHint bool   `json:"used_hint"`
	TimeMs   int64  `json:"time_ms"`
}

func (h *Handler) handleRecordAttempt(w http.ResponseWriter, r *http.Request) {
	var req recordAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.tracker.RecordAttempt(req.WordID, req.Correct, req.UsedHint, req.TimeMs); err != nil {
		if errors.Is(err, tracker.ErrUnknownWord) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	export, err := h.store.ExportAll()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}
