package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"teamfin/internal/core"
)

type createUserRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := s.svc.Teams.CreateUser(c.Request.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserDTO(u))
}

func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.svc.Teams.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	c.JSON(http.StatusOK, out)
}

type createTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) handleCreateTeam(c *gin.Context) {
	var req createTeamRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := s.svc.Teams.CreateTeam(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTeamDTO(t))
}

func (s *Server) handleListTeams(c *gin.Context) {
	teams, err := s.svc.Teams.ListTeams(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]teamDTO, 0, len(teams))
	for _, t := range teams {
		out = append(out, toTeamDTO(t))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetTeam(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	t, err := s.svc.Teams.GetTeam(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTeamDTO(t))
}

func (s *Server) handleSetTeamActive(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		t, err := s.svc.Teams.SetTeamActive(c.Request.Context(), id, active)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toTeamDTO(t))
	}
}

type addMemberRequest struct {
	UserID string   `json:"userId" binding:"required"`
	Roles  []string `json:"roles"`
}

func (s *Server) handleAddMember(c *gin.Context) {
	teamID, ok := pathID(c)
	if !ok {
		return
	}
	var req addMemberRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondError(c, fmt.Errorf("%w: invalid userId %q", errBadRequest, req.UserID))
		return
	}
	roles := make([]core.Role, 0, len(req.Roles))
	for _, r := range req.Roles {
		role, err := core.ParseRole(r)
		if err != nil {
			respondError(c, err)
			return
		}
		roles = append(roles, role)
	}
	m, err := s.svc.Teams.AddMember(c.Request.Context(), teamID, userID, roles)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMemberDTO(*m))
}

func (s *Server) handleListMembers(c *gin.Context) {
	teamID, ok := pathID(c)
	if !ok {
		return
	}
	members, err := s.svc.Teams.ListMembers(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]memberDTO, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberDTO(m))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleTeamReport(c *gin.Context) {
	teamID, ok := pathID(c)
	if !ok {
		return
	}
	if cached, found := s.reports.Get(teamID); found {
		slog.DebugContext(c.Request.Context(), "Serving cached team report", "team_id", teamID)
		c.Header("X-Cache", "HIT")
		c.JSON(http.StatusOK, toReportDTO(cached))
		return
	}
	report, err := s.svc.Reports.TeamReport(c.Request.Context(), teamID, s.now())
	if err != nil {
		respondError(c, err)
		return
	}
	s.reports.Set(teamID, report)
	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, toReportDTO(report))
}

func (s *Server) handleExportContributions(c *gin.Context) {
	teamID, ok := pathID(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	n, err := s.svc.Reports.ExportContributions(c.Request.Context(), teamID, &buf)
	if err != nil {
		respondError(c, err)
		return
	}
	slog.InfoContext(c.Request.Context(), "Contributions exported", "team_id", teamID, "rows", n)
	c.Header("Content-Disposition", `attachment; filename="contributions.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
