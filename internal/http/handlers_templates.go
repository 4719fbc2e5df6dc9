package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"teamfin/internal/core"
)

type templateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Recurring   bool   `json:"recurring"`
	Pattern     string `json:"pattern"`
	DueDays     int    `json:"dueDays"`
}

func (s *Server) templateParams(r templateRequest) (core.TemplateParams, error) {
	amount, err := moneyOf(r.Amount, r.Currency, s.cfg.DefaultCurrency)
	if err != nil {
		return core.TemplateParams{}, err
	}
	p, err := core.ParseRecurrencePattern(r.Pattern)
	if err != nil {
		return core.TemplateParams{}, err
	}
	return core.TemplateParams{
		Name:        r.Name,
		Description: r.Description,
		Amount:      amount,
		Recurring:   r.Recurring,
		Pattern:     p,
		DueDays:     r.DueDays,
	}, nil
}

func (s *Server) handleCreateTemplate(c *gin.Context) {
	teamID, ok := pathID(c)
	if !ok {
		return
	}
	var req templateRequest
	if !bindJSON(c, &req) {
		return
	}
	params, err := s.templateParams(req)
	if err != nil {
		respondError(c, err)
		return
	}
	t, err := s.svc.Templates.Create(c.Request.Context(), teamID, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTemplateDTO(t))
}

func (s *Server) handleListTemplates(c *gin.Context) {
	teamID, ok := pathID(c)
	if !ok {
		return
	}
	templates, err := s.svc.Templates.List(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]templateDTO, 0, len(templates))
	for _, t := range templates {
		out = append(out, toTemplateDTO(t))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetTemplate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	t, err := s.svc.Templates.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTemplateDTO(t))
}

func (s *Server) handleUpdateTemplate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req templateRequest
	if !bindJSON(c, &req) {
		return
	}
	params, err := s.templateParams(req)
	if err != nil {
		respondError(c, err)
		return
	}
	t, err := s.svc.Templates.Update(c.Request.Context(), id, params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTemplateDTO(t))
}

func (s *Server) handleDeleteTemplate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.svc.Templates.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type applyTemplateRequest struct {
	TeamUserIDs []string `json:"teamUserIds"`
}

type applyTemplateResponse struct {
	Type          typeDTO           `json:"type"`
	Contributions []contributionDTO `json:"contributions"`
}

// handleApplyTemplate accepts an empty body, which applies the template to
// every active member of its team.
func (s *Server) handleApplyTemplate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req applyTemplateRequest
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &req) {
			return
		}
	}
	ids, err := parseUUIDs(req.TeamUserIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	app, err := s.svc.Templates.Apply(c.Request.Context(), id, ids)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, applyTemplateResponse{
		Type:          toTypeDTO(app.Type),
		Contributions: toContributionDTOs(app.Contributions, s.now()),
	})
}
