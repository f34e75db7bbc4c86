package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"dtpicker/internal/calendar"
	"dtpicker/internal/ics"
	appLog "dtpicker/internal/log"
	"dtpicker/internal/picker"
	"dtpicker/internal/placement"
)

// ErrUnknownAction is returned for an action name the API does not know.
var ErrUnknownAction = errors.New("web: unknown action")

const maxActionBody = 16 << 10

// actionRequest is the JSON body of POST .../actions.
type actionRequest struct {
	Action   string              `json:"action"`
	Key      string              `json:"key,omitempty"`
	Time     string              `json:"time,omitempty"`
	Delta    int                 `json:"delta,omitempty"`
	Month    int                 `json:"month,omitempty"`
	Year     int                 `json:"year,omitempty"`
	Geometry *placement.Geometry `json:"geometry,omitempty"`
}

// selectionDTO is a JSON-friendly view of an applied selection.
type selectionDTO struct {
	Date      string `json:"date,omitempty"`
	Time      string `json:"time,omitempty"`
	Formatted string `json:"formatted"`
}

// stateResponse is the JSON shape of a picker's state.
type stateResponse struct {
	SessionID    string              `json:"session_id"`
	Anchor       string              `json:"anchor"`
	Mode         string              `json:"mode"`
	Value        string              `json:"value"`
	Active       bool                `json:"active"`
	View         string              `json:"view,omitempty"`
	SelectedDate string              `json:"selected_date,omitempty"`
	SelectedTime string              `json:"selected_time,omitempty"`
	Formatted    string              `json:"formatted"`
	Placement    placement.Placement `json:"placement"`
	HTML         string              `json:"html"`
	Selection    *selectionDTO       `json:"selection,omitempty"`
}

type sessionResponse struct {
	SessionID string   `json:"session_id"`
	Pickers   []string `json:"pickers"`
}

// handleCreateSession builds a session holding one picker per configured
// anchor.
//
// POST /api/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.create(s.cfg.Pickers)

	sess.mu.Lock()
	resp := sessionResponse{
		SessionID: sess.id,
		Pickers:   append([]string{}, sess.order...),
	}
	sess.mu.Unlock()

	writeJSON(w, http.StatusCreated, resp)
}

// DELETE /api/sessions/{sid}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.remove(r.PathValue("sid")) {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/sessions/{sid}/pickers/{anchor}
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, p, ok := s.lookupPicker(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.writeState(w, sess, p, nil)
}

// handleAction applies one user interaction to a picker and returns the
// resulting state.
//
// POST /api/sessions/{sid}/pickers/{anchor}/actions
//
//	{"action":"day","key":"2024-03-15"}
//	{"action":"time","time":"2:30 PM"}
//	{"action":"nav","delta":-1}
//	{"action":"open","geometry":{...}}
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	sess, p, ok := s.lookupPicker(w, r)
	if !ok {
		return
	}

	var req actionRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxActionBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed action: "+err.Error())
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if req.Geometry != nil {
		sess.geometry[p.AnchorID()] = *req.Geometry
	}

	sel, err := dispatch(p, req)
	if err != nil {
		appLog.Debug("web: action rejected", "session", sess.id, "anchor", p.AnchorID(), "action", req.Action, "reason", err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeState(w, sess, p, sel)
}

// dispatch maps an action onto the picker. Only apply returns a selection.
func dispatch(p *picker.Picker, req actionRequest) (*picker.Selection, error) {
	switch req.Action {
	case "open":
		p.Open()
	case "dismiss":
		p.Dismiss()
	case "reposition":
		p.Reposition()
	case "day":
		// An empty or unknown key leaves the state as it was.
		p.SelectDay(req.Key)
	case "time":
		p.SelectTime(req.Time)
	case "nav":
		p.NavigateMonth(req.Delta)
	case "month":
		p.SetViewMonth(time.Month(req.Month))
	case "year":
		p.SetViewYear(req.Year)
	case "today":
		p.Today()
	case "clear":
		p.Clear()
	case "apply":
		sel, ok := p.Apply()
		if ok {
			return &sel, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
	return nil, nil
}

// GET /api/sessions/{sid}/pickers/{anchor}/selection.ics
func (s *Server) handleSelectionICS(w http.ResponseWriter, r *http.Request) {
	sess, p, ok := s.lookupPicker(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	sel, applied := p.LastSelection()
	label := sess.inputs[p.AnchorID()].label
	sess.mu.Unlock()

	if !applied {
		writeError(w, http.StatusNotFound, "nothing applied yet")
		return
	}

	summary := sel.Formatted
	if label != "" {
		summary = label + ": " + sel.Formatted
	}
	body, err := ics.Export(sel, ics.EventInfo{
		UID:     p.ID() + "@dtpicker",
		Summary: summary,
		Stamp:   s.now(),
	})
	if errors.Is(err, ics.ErrNoDate) {
		writeError(w, http.StatusUnprocessableEntity, "selection has no date")
		return
	}
	if err != nil {
		appLog.Error("web: ics export failed", err, "session", sess.id, "anchor", p.AnchorID())
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.AnchorID()+".ics"))
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// lookupPicker resolves {sid} and {anchor}, writing a 404 when either is
// unknown.
func (s *Server) lookupPicker(w http.ResponseWriter, r *http.Request) (*session, *picker.Picker, bool) {
	sess, ok := s.sessions.get(r.PathValue("sid"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown session")
		return nil, nil, false
	}
	sess.mu.Lock()
	p, ok := sess.pickers[r.PathValue("anchor")]
	sess.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "unknown picker")
		return nil, nil, false
	}
	return sess, p, true
}

// writeState renders p. The caller holds sess.mu.
func (s *Server) writeState(w http.ResponseWriter, sess *session, p *picker.Picker, sel *picker.Selection) {
	snap := p.Snapshot()
	html, err := s.renderer.PopoverHTML(snap)
	if err != nil {
		appLog.Error("web: popover render failed", err, "session", sess.id, "anchor", snap.AnchorID)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}

	resp := stateResponse{
		SessionID: sess.id,
		Anchor:    snap.AnchorID,
		Mode:      snap.Options.Mode.String(),
		Value:     sess.inputs[snap.AnchorID].value,
		Active:    snap.Active,
		Formatted: p.Formatted(),
		Placement: snap.Placement,
		HTML:      html,
	}
	if snap.Options.Mode.HasDate() {
		resp.View = snap.View.String()
		resp.SelectedDate = calendar.Key(snap.SelectedDate)
	}
	if snap.Options.Mode.HasTime() && snap.SelectedTime != nil {
		resp.SelectedTime = snap.SelectedTime.Label()
	}
	if sel != nil {
		resp.Selection = toSelectionDTO(*sel)
	}
	writeJSON(w, http.StatusOK, resp)
}

func toSelectionDTO(sel picker.Selection) *selectionDTO {
	dto := &selectionDTO{Formatted: sel.Formatted}
	if sel.Date != nil {
		dto.Date = calendar.Key(*sel.Date)
	}
	if sel.Time != nil {
		dto.Time = sel.Time.Label()
	}
	return dto
}
