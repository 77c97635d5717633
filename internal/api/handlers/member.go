package handlers

import (
	"net/http"
	"strconv"

	"church-attendance-backend/internal/auth"
	"church-attendance-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// MemberHandler handles HTTP requests for members
type MemberHandler struct {
	memberService *service.MemberService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *service.MemberService) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
	}
}

// ListMembers lists the church roster
// @Summary List members
// @Description List the signed-in church's members with optional name search and pagination
// @Tags members
// @Accept json
// @Produce json
// @Param q query string false "Case-insensitive name filter"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} service.MemberListResponse "Successfully retrieved members"
// @Failure 400 {object} ErrorResponse "Invalid pagination parameters"
// @Security BearerAuth
// @Router /members [get]
func (h *MemberHandler) ListMembers(c *gin.Context) {
	church, _ := auth.GetChurch(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	resp, err := h.memberService.ListMembers(c.Request.Context(), church, c.Query("q"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetMember retrieves a member by ID
// @Summary Get member by ID
// @Description Get one member with derived attendance figures
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} service.MemberResponse "Successfully retrieved member"
// @Failure 404 {object} ErrorResponse "Member not found"
// @Security BearerAuth
// @Router /members/{id} [get]
func (h *MemberHandler) GetMember(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	member, err := h.memberService.GetMember(c.Request.Context(), church, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// CreateMember creates a new member
// @Summary Create a new member
// @Description Enroll a member. The member is stamped with today's join date and marked present for today.
// @Tags members
// @Accept json
// @Produce json
// @Param member body service.CreateMemberRequest true "Member names"
// @Success 201 {object} service.MemberResponse "Successfully created member"
// @Failure 400 {object} ErrorResponse "Missing first or last name"
// @Security BearerAuth
// @Router /members [post]
func (h *MemberHandler) CreateMember(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	var req service.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	member, err := h.memberService.CreateMember(c.Request.Context(), church, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

// UpdateMember updates a member's profile
// @Summary Update member profile
// @Description Write the full profile field set for a member
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "Member ID"
// @Param member body service.UpdateMemberRequest true "Profile fields"
// @Success 200 {object} service.MemberResponse "Successfully updated member"
// @Failure 400 {object} ErrorResponse "Invalid profile fields"
// @Failure 404 {object} ErrorResponse "Member not found"
// @Security BearerAuth
// @Router /members/{id} [put]
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	var req service.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	member, err := h.memberService.UpdateMember(c.Request.Context(), church, c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// DeleteMember removes a member
// @Summary Delete member
// @Description Remove the member record. Historical attendance rows are kept.
// @Tags members
// @Produce json
// @Param id path string true "Member ID"
// @Success 204 "Member deleted"
// @Failure 404 {object} ErrorResponse "Member not found"
// @Security BearerAuth
// @Router /members/{id} [delete]
func (h *MemberHandler) DeleteMember(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	if err := h.memberService.DeleteMember(c.Request.Context(), church, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignTeam adds a member to a team
// @Summary Assign member to team
// @Description Add the member to a team. Assigning twice is a no-op.
// @Tags members
// @Produce json
// @Param id path string true "Member ID"
// @Param teamId path string true "Team ID"
// @Success 204 "Member assigned"
// @Failure 404 {object} ErrorResponse "Member or team not found"
// @Security BearerAuth
// @Router /members/{id}/teams/{teamId} [put]
func (h *MemberHandler) AssignTeam(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	if err := h.memberService.AssignTeam(c.Request.Context(), church, c.Param("id"), c.Param("teamId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UnassignTeam removes a member from a team
// @Summary Remove member from team
// @Description Remove the member from a team. Removing an absent membership is a no-op.
// @Tags members
// @Produce json
// @Param id path string true "Member ID"
// @Param teamId path string true "Team ID"
// @Success 204 "Member unassigned"
// @Failure 404 {object} ErrorResponse "Member not found"
// @Security BearerAuth
// @Router /members/{id}/teams/{teamId} [delete]
func (h *MemberHandler) UnassignTeam(c *gin.Context) {
	church, _ := auth.GetChurch(c)

	if err := h.memberService.UnassignTeam(c.Request.Context(), church, c.Param("id"), c.Param("teamId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
