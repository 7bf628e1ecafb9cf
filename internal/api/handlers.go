package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"betdesk/internal/carousel"
	"betdesk/internal/dashboard"
	"betdesk/internal/domain"
	"betdesk/internal/format"
	"betdesk/internal/triage"
)

type addTriageRequest struct {
	OpportunityID domain.ID `json:"opportunity_id"`
}

type setCategoryRequest struct {
	Category string `json:"category"`
}

type triageResponse struct {
	Items  []triage.Classified     `json:"items"`
	Counts map[domain.Category]int `json:"counts"`
	Count  int                     `json:"count"`
}

type carouselResponse struct {
	carousel.State
	CanShiftLeft  bool                 `json:"can_shift_left"`
	CanShiftRight bool                 `json:"can_shift_right"`
	Items         []domain.Opportunity `json:"items"`
}

type balanceFrame struct {
	Value   float64 `json:"value"`
	Display string  `json:"display"`
	Target  float64 `json:"target"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.dash.Snapshot()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"sessions":     s.sessions.Len(),
		"refreshed_at": snap.RefreshedAt,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.dash.Stats())
}

func (s *Server) handleOpportunities(w http.ResponseWriter, r *http.Request) {
	opps := s.dash.TopOpportunities()
	if limit := parseIntParam(r, "limit", 0); limit > 0 && limit < len(opps) {
		opps = opps[:limit]
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"opportunities": opps,
		"count":         len(opps),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.dash.RequestRefresh(r.Context()); err != nil {
		respondError(w, s.logger, http.StatusBadGateway, "refresh failed", err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "refresh requested"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	respondJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(chi.URLParam(r, "sessionID")); err != nil {
		respondError(w, s.logger, statusFor(err), err.Error(), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// session resolves the path session or writes the error reply.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*dashboard.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, s.logger, statusFor(err), err.Error(), err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleListTriage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	items := sess.Triage.List()
	if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
		category, err := domain.ParseCategory(raw)
		if err != nil {
			respondError(w, s.logger, http.StatusBadRequest, err.Error(), err)
			return
		}
		items = sess.Triage.ByCategory(category)
	}

	respondJSON(w, http.StatusOK, triageResponse{
		Items:  items,
		Counts: sess.Triage.Counts(),
		Count:  len(items),
	})
}

func (s *Server) handleAddTriage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req addTriageRequest
	if err := decodeBody(w, r, &req); err != nil || req.OpportunityID == "" {
		respondError(w, s.logger, http.StatusBadRequest, "opportunity_id is required", err)
		return
	}

	opp, found := s.dash.Opportunity(string(req.OpportunityID))
	if !found {
		respondError(w, s.logger, http.StatusNotFound, "opportunity not found", nil)
		return
	}

	status := http.StatusOK
	if sess.Triage.Add(opp) {
		status = http.StatusCreated
	}
	item, _ := sess.Triage.Get(string(opp.ID))
	respondJSON(w, status, item)
}

func (s *Server) handleSetCategory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req setCategoryRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, s.logger, http.StatusBadRequest, "invalid request body", err)
		return
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		respondError(w, s.logger, http.StatusBadRequest, err.Error(), err)
		return
	}

	entityID := chi.URLParam(r, "entityID")
	if err := sess.Triage.SetCategory(entityID, category); err != nil {
		respondError(w, s.logger, statusFor(err), err.Error(), err)
		return
	}
	item, _ := sess.Triage.Get(entityID)
	respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleRemoveTriage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Triage.Remove(chi.URLParam(r, "entityID")); err != nil {
		respondError(w, s.logger, statusFor(err), err.Error(), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCarousel(w http.ResponseWriter, r *http.Request) {
	s.respondCarousel(w, r, nil)
}

func (s *Server) handleCarouselLeft(w http.ResponseWriter, r *http.Request) {
	s.respondCarousel(w, r, (*carousel.Window).ShiftLeft)
}

func (s *Server) handleCarouselRight(w http.ResponseWriter, r *http.Request) {
	s.respondCarousel(w, r, (*carousel.Window).ShiftRight)
}

// respondCarousel syncs the window with the current opportunity list, applies
// shift when given and replies with the visible page.
func (s *Server) respondCarousel(w http.ResponseWriter, r *http.Request, shift func(*carousel.Window)) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	opps := s.dash.TopOpportunities()
	sess.Carousel.SetTotal(len(opps))
	if shift != nil {
		shift(sess.Carousel)
	}
	visible := carousel.Visible(sess.Carousel, opps)

	respondJSON(w, http.StatusOK, carouselResponse{
		State:         sess.Carousel.State(),
		CanShiftLeft:  sess.Carousel.CanShiftLeft(),
		CanShiftRight: sess.Carousel.CanShiftRight(),
		Items:         visible,
	})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.frame(sess, sess.Balance.Value()))
}

func (s *Server) frame(sess *dashboard.Session, value float64) balanceFrame {
	return balanceFrame{
		Value:   value,
		Display: format.Money(value, s.opts.ProfitPlaces),
		Target:  sess.Balance.Target(),
	}
}
