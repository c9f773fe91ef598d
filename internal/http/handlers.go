package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"forecast/internal/core"
	applog "forecast/internal/log"
	"forecast/internal/services"
)

const dateLayout = "2006-01-02"

type settingsResponse struct {
	Granularity    core.Granularity `json:"granularity"`
	Collapse       bool             `json:"collapse"`
	AlertThreshold core.Money       `json:"alert_threshold"`
	Start          string           `json:"start"`
	End            string           `json:"end"`
}

func toSettingsResponse(s core.Settings) settingsResponse {
	return settingsResponse{
		Granularity:    s.Granularity,
		Collapse:       s.Collapse,
		AlertThreshold: s.AlertThreshold,
		Start:          s.Range.Start.Format(dateLayout),
		End:            s.Range.End.Format(dateLayout),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.service.ListUsers(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "storage unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.service.GetSettings(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Granularity    string     `json:"granularity"`
		Collapse       bool       `json:"collapse"`
		AlertThreshold core.Money `json:"alert_threshold"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	granularity, err := core.ParseGranularity(req.Granularity)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	uid := userID(r)
	settings, err := s.service.UpdateSettings(r.Context(), uid, granularity, req.Collapse, req.AlertThreshold)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if cached, ok := s.gridCache.Get(uid); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	result, err := s.service.Grid(r.Context(), uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.gridCache.Set(uid, result)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEditCell(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Section  string     `json:"section"`
		ItemID   string     `json:"item_id"`
		BucketID string     `json:"bucket_id"`
		Value    core.Money `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	section, err := core.ParseSection(req.Section)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	uid := userID(r)
	if err := s.service.EditCell(r.Context(), uid, section, req.ItemID, req.BucketID, req.Value); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Section string     `json:"section"`
		Name    string     `json:"name"`
		Amount  core.Money `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	section, err := core.ParseSection(req.Section)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	uid := userID(r)
	item, err := s.service.AddItem(r.Context(), uid, section, req.Name, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	writeJSON(w, http.StatusCreated, map[string]string{"item_id": item.ID})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID string `json:"item_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	uid := userID(r)
	if err := s.service.DeleteItem(r.Context(), uid, req.ItemID); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSetRecurrence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID string     `json:"item_id"`
		Kind   string     `json:"kind"`
		Every  int        `json:"every"`
		Amount core.Money `json:"amount"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	// Empty kind clears the recurrence, turning the item back into a
	// one-off at the range start.
	var rule *core.RecurrenceRule
	if req.Kind != "" {
		kind, err := core.ParseRecurrenceKind(req.Kind)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		rule = &core.RecurrenceRule{Kind: kind, Every: req.Every, Amount: req.Amount}
	}

	uid := userID(r)
	if err := s.service.SetRecurrence(r.Context(), uid, req.ItemID, rule); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleApplyDates(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	start, err := time.ParseInLocation(dateLayout, req.Start, time.UTC)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid start date, expected YYYY-MM-DD"})
		return
	}
	end, err := time.ParseInLocation(dateLayout, req.End, time.UTC)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid end date, expected YYYY-MM-DD"})
		return
	}

	uid := userID(r)
	settings, err := s.service.ApplyDateRange(r.Context(), uid, core.DateRange{Start: start, End: end})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.invalidate(uid)
	writeJSON(w, http.StatusOK, toSettingsResponse(settings))
}

type errorResponse struct {
	Error string `json:"error"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrItemNotFound), errors.Is(err, core.ErrUnknownBucket):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrInvalidRange),
		errors.Is(err, core.ErrInvalidSection),
		errors.Is(err, core.ErrInvalidRecurrence),
		errors.Is(err, core.ErrEmptyName):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrProtectedItem):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		s.logger.ErrorContext(r.Context(), "Request failed",
			applog.FieldPath, r.URL.Path, applog.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
