package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/verte-zerg/boothdesk/internal/model"
	"github.com/verte-zerg/boothdesk/internal/store"
)

// entityJSON is the flat wire shape of an entity.
type entityJSON struct {
	ID           int64    `json:"id"`
	Number       string   `json:"number"`
	Suffix       string   `json:"suffix,omitempty"`
	Name         string   `json:"name"`
	ParentID     int64    `json:"parent_id"`
	AssignedID   *int64   `json:"assigned_id"`
	AssignedName string   `json:"assigned_name,omitempty"`
	AssignedType string   `json:"assigned_type,omitempty"`
	Winnable     *bool    `json:"winnable,omitempty"`
	GapPercent   *float64 `json:"gap_percent,omitempty"`
	Verdict      *string  `json:"verdict,omitempty"`
}

type voteJSON struct {
	EntityID int64  `json:"entity_id"`
	Number   string `json:"number"`
	Suffix   string `json:"suffix,omitempty"`
	Name     string `json:"name"`
	Alliance string `json:"alliance"`
	Votes    int64  `json:"votes"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) districts(w http.ResponseWriter, r *http.Request) {
	out, err := s.backend.Districts(r.Context())
	if err != nil {
		s.log.WithError(err).Error("failed to list districts")
		errorResponse(w, s.log, http.StatusInternalServerError, "Database error")
		return
	}
	jsonResponse(w, s.log, http.StatusOK, out)
}

func (s *Server) assemblies(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	out, err := s.backend.Assemblies(r.Context(), id)
	if err != nil {
		s.log.WithError(err).Error("failed to list assemblies")
		errorResponse(w, s.log, http.StatusInternalServerError, "Database error")
		return
	}
	jsonResponse(w, s.log, http.StatusOK, out)
}

func (s *Server) localbodies(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	out, err := s.backend.Localbodies(r.Context(), id)
	if err != nil {
		s.log.WithError(err).Error("failed to list localbodies")
		errorResponse(w, s.log, http.StatusInternalServerError, "Database error")
		return
	}
	jsonResponse(w, s.log, http.StatusOK, out)
}

func (s *Server) entities(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		list, err := s.backend.Entities(r.Context(), kind, id)
		if err != nil {
			s.log.WithError(err).WithField("kind", kind).Error("failed to list entities")
			errorResponse(w, s.log, http.StatusInternalServerError, "Database error")
			return
		}
		out := make([]entityJSON, 0, len(list))
		for _, e := range list {
			out = append(out, toEntityJSON(e))
		}
		jsonResponse(w, s.log, http.StatusOK, out)
	}
}

func (s *Server) votes(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := s.pathID(w, r)
		if !ok {
			return
		}
		rows, err := s.backend.VoteRows(r.Context(), kind, id)
		if err != nil {
			s.log.WithError(err).WithField("kind", kind).Error("failed to list votes")
			errorResponse(w, s.log, http.StatusInternalServerError, "Database error")
			return
		}
		out := make([]voteJSON, 0, len(rows))
		for _, v := range rows {
			out = append(out, voteJSON{
				EntityID: v.EntityID,
				Number:   v.EntityNumber,
				Suffix:   v.EntitySuffix,
				Name:     v.EntityLabel,
				Alliance: v.Alliance,
				Votes:    v.Votes,
			})
		}
		jsonResponse(w, s.log, http.StatusOK, out)
	}
}

func (s *Server) mutate(kind model.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			_ = r.Body.Close()
		}()
		var req model.MutationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			textError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			textError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		n, err := s.backend.Assign(r.Context(), kind, req.EntityIDs, req.Target)
		if errors.Is(err, store.ErrUnknownTarget) {
			textError(w, http.StatusNotFound, fmt.Sprintf("%s %d does not exist", capitalize(kind.TargetName()), *req.Target))
			return
		}
		if err != nil {
			s.log.WithError(err).WithField("kind", kind).Error("failed to apply mutation")
			textError(w, http.StatusInternalServerError, "Failed to update "+string(kind)+"s")
			return
		}
		jsonResponse(w, s.log, http.StatusOK, model.MutationResult{Message: mutationMessage(kind, n, req.Target)})
	}
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		errorResponse(w, s.log, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func toEntityJSON(e model.Entity) entityJSON {
	out := entityJSON{
		ID:           e.ID,
		Number:       e.Number,
		Suffix:       e.Suffix,
		Name:         e.Name,
		ParentID:     e.ParentID,
		AssignedID:   e.AssignedID,
		AssignedName: e.AssignedName,
		AssignedType: e.AssignedType,
	}
	if e.Verdict != nil {
		winnable := e.Verdict.Winnable
		out.Winnable = &winnable
		out.GapPercent = e.Verdict.GapPercent
		if e.Verdict.Class != "" {
			class := e.Verdict.Class
			out.Verdict = &class
		}
	}
	return out
}

func mutationMessage(kind model.Kind, n int64, target *int64) string {
	noun := string(kind) + "s"
	if n == 1 {
		noun = string(kind)
	}
	if target == nil {
		return fmt.Sprintf("Cleared %s for %d %s", kind.TargetName(), n, noun)
	}
	return fmt.Sprintf("Assigned %d %s to %s %d", n, noun, kind.TargetName(), *target)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := "entity_ids"
		if strings.HasPrefix(fe.Field(), "Target") {
			field = "target"
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
