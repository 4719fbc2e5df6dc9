package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"teamfin/internal/core"
	"teamfin/internal/services"
)

type typeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Recurring   bool   `json:"recurring"`
	Pattern     string `json:"pattern"`
}

func (r typeRequest) input() (services.TypeInput, error) {
	p, err := core.ParseRecurrencePattern(r.Pattern)
	if err != nil {
		return services.TypeInput{}, err
	}
	return services.TypeInput{
		Name:        r.Name,
		Description: r.Description,
		Recurring:   r.Recurring,
		Pattern:     p,
	}, nil
}

func (s *Server) handleCreateType(c *gin.Context) {
	var req typeRequest
	if !bindJSON(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(c, err)
		return
	}
	t, err := s.svc.Types.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTypeDTO(t))
}

func (s *Server) handleListTypes(c *gin.Context) {
	types, err := s.svc.Types.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]typeDTO, 0, len(types))
	for _, t := range types {
		out = append(out, toTypeDTO(t))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetType(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	t, err := s.svc.Types.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTypeDTO(t))
}

func (s *Server) handleUpdateType(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req typeRequest
	if !bindJSON(c, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(c, err)
		return
	}
	t, err := s.svc.Types.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTypeDTO(t))
}

func (s *Server) handleDeleteType(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Types.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSetTypeActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		t, err := s.svc.Types.SetActive(c.Request.Context(), id, active)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toTypeDTO(t))
	}
}

// handleNextDueDate answers {"nextDueDate": null} for one-off types. The base
// date defaults to today.
func (s *Server) handleNextDueDate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	base := core.DateOf(s.now())
	if v := strings.TrimSpace(c.Query("base")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			respondError(c, fmt.Errorf("%w: %w", errBadRequest, err))
			return
		}
		base = d
	}
	next, recurring, err := s.svc.Types.NextDueDate(c.Request.Context(), id, base)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{"base": base, "recurring": recurring, "nextDueDate": nil}
	if recurring {
		resp["nextDueDate"] = next
	}
	c.JSON(http.StatusOK, resp)
}
