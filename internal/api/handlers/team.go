package handlers

import (
	"net/http"

	"church-attendance-backend/internal/auth"
	"church-attendance-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// TeamHandler handles HTTP requests for teams
type TeamHandler struct {
	teamService   *service.TeamService
	memberService *service.MemberService
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teamService *service.TeamService, memberService *service.MemberService) *TeamHandler {
	return &TeamHandler{
		teamService:   teamService,
		memberService: memberService,
	}
}

// ListTeams lists the church's teams
// @Summary List teams
// @Description List the signed-in church's teams with member counts
// @Tags teams
// @Produce json
// @Success 200 {array} service.TeamResponse "Successfully retrieved teams"
// @Security BearerAuth
// @Router /teams [get]
func (h *TeamHandler) ListTeams(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	teams, err := h.teamService.ListTeams(c.Request.Context(), church)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

// GetTeam retrieves a team with its member roster
// @Summary Get team by ID
// @Tags teams
// @Produce json
// @Param id path string true "Team ID"
// @Success 200 {object} service.TeamDetailResponse "Successfully retrieved team"
// @Failure 404 {object} ErrorResponse "Team not found"
// @Security BearerAuth
// @Router /teams/{id} [get]
func (h *TeamHandler) GetTeam(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	team, err := h.teamService.GetTeam(c.Request.Context(), church, c.Param("id"), h.memberService)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// CreateTeam creates a new team
// @Summary Create a new team
// @Tags teams
// @Accept json
// @Produce json
// @Param team body service.CreateTeamRequest true "Team name"
// @Success 201 {object} service.TeamResponse "Successfully created team"
// @Failure 400 {object} ErrorResponse "Missing team name"
// @Security BearerAuth
// @Router /teams [post]
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	var req service.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	team, err := h.teamService.CreateTeam(c.Request.Context(), church, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

// RenameTeam changes a team's name
// @Summary Rename team
// @Description Change a team's display name. Memberships are keyed by id and unaffected.
// @Tags teams
// @Accept json
// @Produce json
// @Param id path string true "Team ID"
// @Param team body service.RenameTeamRequest true "New name"
// @Success 200 {object} service.TeamResponse "Successfully renamed team"
// @Failure 400 {object} ErrorResponse "Missing team name"
// @Failure 404 {object} ErrorResponse "Team not found"
// @Security BearerAuth
// @Router /teams/{id} [put]
func (h *TeamHandler) RenameTeam(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	var req service.RenameTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	team, err := h.teamService.RenameTeam(c.Request.Context(), church, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, team)
}

// DeleteTeam removes a team
// @Summary Delete team
// @Description Remove the team and strip its membership entry from every member
// @Tags teams
// @Produce json
// @Param id path string true "Team ID"
// @Success 204 "Team deleted"
// @Failure 404 {object} ErrorResponse "Team not found"
// @Security BearerAuth
// @Router /teams/{id} [delete]
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	if err := h.teamService.DeleteTeam(c.Request.Context(), church, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
