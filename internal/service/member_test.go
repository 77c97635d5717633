package service

import (
	"context"
	"testing"
	"time"

	apperrors "church-attendance-backend/internal/errors"
	"church-attendance-backend/internal/projection"
	"church-attendance-backend/internal/store"
	"church-attendance-backend/internal/store/memory"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/suite"
)

type MemberServiceTestSuite struct {
	suite.Suite
	store    *memory.Memory
	registry *projection.Registry
	svc      *MemberService
	ctx      context.Context
}

func (s *MemberServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.registry = projection.NewRegistry(s.store, time.Second)
	s.registry.Ledger().SetNowFunc(func() string { return "2025-06-01" })
	s.Require().NoError(s.registry.Start())

	s.svc = NewMemberService(s.store, s.registry, validator.New(), 5*time.Second)
	s.svc.nowFn = func() string { return "2025-06-01" }
}

func (s *MemberServiceTestSuite) TearDownTest() {
	s.registry.Close()
}

func TestMemberServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MemberServiceTestSuite))
}

func (s *MemberServiceTestSuite) TestCreateMember() {
	resp, err := s.svc.CreateMember(s.ctx, "Grace Chapel", &CreateMemberRequest{
		FirstName: "  Ama  ",
		LastName:  " Mensah ",
	})
	s.Require().NoError(err)

	s.Equal("Ama", resp.FirstName)
	s.Equal("Mensah", resp.LastName)
	s.Equal("Ama Mensah", resp.Name)
	s.Equal("Grace Chapel", resp.Church)
	s.Equal("2025-06-01", resp.Joined)
	s.Empty(resp.TeamIDs)
	s.NotEmpty(resp.ID)
}

func (s *MemberServiceTestSuite) TestCreateMemberMarksPresentToday() {
	resp, err := s.svc.CreateMember(s.ctx, "Grace Chapel", &CreateMemberRequest{
		FirstName: "Kofi",
		LastName:  "Boateng",
	})
	s.Require().NoError(err)

	raw, err := s.store.Get(s.ctx, store.DayEntryPath("2025-06-01", resp.ID))
	s.Require().NoError(err)
	s.JSONEq("true", string(raw))

	s.True(s.registry.Ledger().IsPresent("2025-06-01", resp.ID))
	s.Equal(100, resp.AttendanceRate)
	s.Equal("2025-06-01", resp.LastAttended)
}

func (s *MemberServiceTestSuite) TestCreateMemberRequiresNames() {
	_, err := s.svc.CreateMember(s.ctx, "Grace Chapel", &CreateMemberRequest{
		FirstName: "   ",
		LastName:  "Mensah",
	})
	s.ErrorIs(err, apperrors.ErrFirstNameRequired)

	_, err = s.svc.CreateMember(s.ctx, "Grace Chapel", &CreateMemberRequest{
		FirstName: "Ama",
		LastName:  "\t",
	})
	s.ErrorIs(err, apperrors.ErrLastNameRequired)
}

func (s *MemberServiceTestSuite) TestCreateMemberNotifiesSheet() {
	var gotChurch, gotID, gotDate string
	s.svc.OnEnrolled(func(church, memberID, dateKey string) {
		gotChurch, gotID, gotDate = church, memberID, dateKey
	})

	resp, err := s.svc.CreateMember(s.ctx, "Grace Chapel", &CreateMemberRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
	})
	s.Require().NoError(err)

	s.Equal("Grace Chapel", gotChurch)
	s.Equal(resp.ID, gotID)
	s.Equal("2025-06-01", gotDate)
}

func (s *MemberServiceTestSuite) TestGetMember() {
	created, err := s.svc.CreateMember(s.ctx, "Grace Chapel", &CreateMemberRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
	})
	s.Require().NoError(err)

	got, err := s.svc.GetMember(s.ctx, "Grace Chapel", created.ID)
	s.Require().NoError(err)
	s.Equal("Ama Mensah", got.Name)
}

func (s *MemberServiceTestSuite) TestGetMemberNotFound() {
	_, err := s.svc.GetMember(s.ctx, "Grace Chapel", "missing")
	s.True(apperrors.IsNotFound(err))
}

func (s *MemberServiceTestSuite) TestGetMemberScopedToChurch() {
	created, err := s.svc.CreateMember(s.ctx, "Grace Chapel", &CreateMemberRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
	})
	s.Require().NoError(err)

	_, err = s.svc.GetMember(s.ctx, "Other Assembly", created.ID)
	s.True(apperrors.IsNotFound(err))
}

func (s *MemberServiceTestSuite) TestListMembersSearchAndPagination() {
	names := [][2]string{
		{"Ama", "Mensah"},
		{"Kofi", "Mensah"},
		{"Yaw", "Owusu"},
	}
	for _, n := range names {
		_, err := s.svc.CreateMember(s.ctx, "Grace Chapel", &CreateMemberRequest{
			FirstName: n[0],
			LastName:  n[1],
		})
		s.Require().NoError(err)
	}

	all, err := s.svc.ListMembers(s.ctx, "Grace Chapel", "", 1, 20)
	s.Require().NoError(err)
	s.Equal(3, all.Total)
	s.Len(all.Members, 3)

	mensahs, err := s.svc.ListMembers(s.ctx, "Grace Chapel", "mensah", 1, 20)
	s.Require().NoError(err)
	s.Equal(2, mensahs.Total)

	page2, err := s.svc.ListMembers(s.ctx, "Grace Chapel", "", 2, 2)
	s.Require().NoError(err)
	s.Equal(3, page2.Total)
	s.Len(page2.Members, 1)
}

func (s *MemberServiceTestSuite) TestListMembersInvalidPagination() {
	_, err := s.svc.ListMembers(s.ctx, "Grace Chapel", "", 0, 20)
	s.ErrorIs(err, apperrors.ErrInvalidPaginationParams)

	_, err = s.svc.ListMembers(s.ctx, "Grace Chapel", "", 1, 0)
	s.ErrorIs(err, apperrors.ErrInvalidPaginationParams)
}

func (s *MemberServiceTestSuite) TestUpdateMember() {
	created, err := s.svc.CreateMember(s.ctx, "Grace Chapel", &CreateMemberRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
	})
	s.Require().NoError(err)

	updated, err := s.svc.UpdateMember(s.ctx, "Grace Chapel", created.ID, &UpdateMemberRequest{
		FirstName: "Ama",
		LastName:  "Mensah-Bonsu",
		Title:     "Deaconess",
		Phone:     "+233201234567",
		BornAgain: true,
	})
	s.Require().NoError(err)

	s.Equal("Mensah-Bonsu", updated.LastName)
	s.Equal("Deaconess", updated.Title)
	s.Equal("+233201234567", updated.Phone)
	s.True(updated.BornAgain)
	// Create-time fields survive the profile write
	s.Equal("2025-06-01", updated.Joined)
	s.Equal("Grace Chapel", updated.Church)
}

func (s *MemberServiceTestSuite) TestUpdateMemberNotFound() {
	_, err := s.svc.UpdateMember(s.ctx, "Grace Chapel", "missing", &UpdateMemberRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
	})
	s.True(apperrors.IsNotFound(err))
}

func (s *MemberServiceTestSuite) TestDeleteMemberKeepsAttendanceRows() {
	created, err := s.svc.CreateMember(s.ctx, "Grace Chapel", &CreateMemberRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.DeleteMember(s.ctx, "Grace Chapel", created.ID))

	raw, err := s.store.Get(s.ctx, store.MemberPath(created.ID))
	s.Require().NoError(err)
	s.Nil(raw)

	// Historical presence row is untouched
	raw, err = s.store.Get(s.ctx, store.DayEntryPath("2025-06-01", created.ID))
	s.Require().NoError(err)
	s.JSONEq("true", string(raw))
}

func (s *MemberServiceTestSuite) TestDeleteMemberNotFound() {
	err := s.svc.DeleteMember(s.ctx, "Grace Chapel", "missing")
	s.True(apperrors.IsNotFound(err))
}

func (s *MemberServiceTestSuite) TestLegacyTeamNameFallback() {
	s.Require().NoError(s.store.Set(s.ctx, store.MemberPath("legacy1"), map[string]interface{}{
		"firstName": "Esi",
		"lastName":  "Asante",
		"church":    "Grace Chapel",
		"Team":      "Choir",
	}))
	set, err := s.registry.ForChurch("Grace Chapel")
	s.Require().NoError(err)
	s.Require().NoError(set.Roster.Resync(s.ctx))

	got, err := s.svc.GetMember(s.ctx, "Grace Chapel", "legacy1")
	s.Require().NoError(err)
	s.Empty(got.TeamIDs)
	s.Equal([]string{"Choir"}, got.TeamNames)
}

func (s *MemberServiceTestSuite) TestMemberResponseNeverAttended() {
	s.Require().NoError(s.store.Set(s.ctx, store.MemberPath("m1"), map[string]interface{}{
		"firstName": "Esi",
		"lastName":  "Asante",
		"church":    "Grace Chapel",
		"Joined":    "2025-01-01",
	}))
	set, err := s.registry.ForChurch("Grace Chapel")
	s.Require().NoError(err)
	s.Require().NoError(set.Roster.Resync(s.ctx))

	got, err := s.svc.GetMember(s.ctx, "Grace Chapel", "m1")
	s.Require().NoError(err)
	s.Equal("never", got.LastAttended)
	s.Equal(100, got.AttendanceRate)
}

func (s *MemberServiceTestSuite) TestAssignTeamIdempotent() {
	created, err := s.svc.CreateMember(s.ctx, "Grace Chapel", &CreateMemberRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
	})
	s.Require().NoError(err)
	s.Require().NoError(s.store.Set(s.ctx, store.TeamPath("t1"), map[string]interface{}{
		"name":   "Ushers",
		"church": "Grace Chapel",
	}))
	set, err := s.registry.ForChurch("Grace Chapel")
	s.Require().NoError(err)
	s.Require().NoError(set.Teams.Resync(s.ctx))

	s.Require().NoError(s.svc.AssignTeam(s.ctx, "Grace Chapel", created.ID, "t1"))
	s.Require().NoError(s.svc.AssignTeam(s.ctx, "Grace Chapel", created.ID, "t1"))

	got, err := s.svc.GetMember(s.ctx, "Grace Chapel", created.ID)
	s.Require().NoError(err)
	s.Equal([]string{"t1"}, got.TeamIDs)
	s.Equal([]string{"Ushers"}, got.TeamNames)
}

func (s *MemberServiceTestSuite) TestUnassignTeam() {
	created, err := s.svc.CreateMember(s.ctx, "Grace Chapel", &CreateMemberRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
	})
	s.Require().NoError(err)
	s.Require().NoError(s.store.Set(s.ctx, store.TeamPath("t1"), map[string]interface{}{
		"name":   "Ushers",
		"church": "Grace Chapel",
	}))
	set, err := s.registry.ForChurch("Grace Chapel")
	s.Require().NoError(err)
	s.Require().NoError(set.Teams.Resync(s.ctx))
	s.Require().NoError(s.svc.AssignTeam(s.ctx, "Grace Chapel", created.ID, "t1"))

	s.Require().NoError(s.svc.UnassignTeam(s.ctx, "Grace Chapel", created.ID, "t1"))
	// Removing an absent membership is a no-op
	s.Require().NoError(s.svc.UnassignTeam(s.ctx, "Grace Chapel", created.ID, "t1"))

	got, err := s.svc.GetMember(s.ctx, "Grace Chapel", created.ID)
	s.Require().NoError(err)
	s.Empty(got.TeamIDs)
}

func (s *MemberServiceTestSuite) TestAssignTeamUnknownTeam() {
	created, err := s.svc.CreateMember(s.ctx, "Grace Chapel", &CreateMemberRequest{
		FirstName: "Ama",
		LastName:  "Mensah",
	})
	s.Require().NoError(err)

	err = s.svc.AssignTeam(s.ctx, "Grace Chapel", created.ID, "missing")
	s.True(apperrors.IsNotFound(err))
}
