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

type AttendanceServiceTestSuite struct {
	suite.Suite
	store    *memory.Memory
	registry *projection.Registry
	svc      *AttendanceService
	members  *MemberService
	ctx      context.Context
}

func (s *AttendanceServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.registry = projection.NewRegistry(s.store, time.Second)
	s.registry.Ledger().SetNowFunc(func() string { return "2025-06-01" })
	s.Require().NoError(s.registry.Start())

	s.svc = NewAttendanceService(s.store, s.registry, 5*time.Second)
	s.svc.nowFn = func() string { return "2025-06-01" }
	s.members = NewMemberService(s.store, s.registry, validator.New(), 5*time.Second)
	s.members.nowFn = func() string { return "2025-06-01" }
	s.members.OnEnrolled(s.svc.MarkEnrolled)
}

func (s *AttendanceServiceTestSuite) TearDownTest() {
	s.registry.Close()
}

func TestAttendanceServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AttendanceServiceTestSuite))
}

func (s *AttendanceServiceTestSuite) addMember(first, last string) string {
	resp, err := s.members.CreateMember(s.ctx, "Grace Chapel", &CreateMemberRequest{
		FirstName: first,
		LastName:  last,
	})
	s.Require().NoError(err)
	return resp.ID
}

func (s *AttendanceServiceTestSuite) rowFor(sheet *SheetResponse, id string) *SheetRow {
	for i := range sheet.Rows {
		if sheet.Rows[i].MemberID == id {
			return &sheet.Rows[i]
		}
	}
	return nil
}

func (s *AttendanceServiceTestSuite) TestSheetOpensOnToday() {
	s.addMember("Ama", "Mensah")

	sheet, err := s.svc.Sheet(s.ctx, "Grace Chapel")
	s.Require().NoError(err)

	s.Equal("2025-06-01", sheet.DateKey)
	s.Len(sheet.Rows, 1)
	s.False(sheet.Dirty)
	// Enrollment wrote the flag durably, so the base state already has it
	s.Equal(1, sheet.PresentCount)
	s.Contains(sheet.Dates, "2025-06-01")
}

func (s *AttendanceServiceTestSuite) TestEnrollmentFlipsOpenSheet() {
	_, err := s.svc.Sheet(s.ctx, "Grace Chapel")
	s.Require().NoError(err)

	id := s.addMember("Ama", "Mensah")

	sheet, err := s.svc.Sheet(s.ctx, "Grace Chapel")
	s.Require().NoError(err)
	row := s.rowFor(sheet, id)
	s.Require().NotNil(row)
	s.True(row.Present)
}

func (s *AttendanceServiceTestSuite) TestToggle() {
	id := s.addMember("Ama", "Mensah")

	sheet, err := s.svc.Toggle(s.ctx, "Grace Chapel", id)
	s.Require().NoError(err)
	s.True(sheet.Dirty)
	s.False(s.rowFor(sheet, id).Present)

	sheet, err = s.svc.Toggle(s.ctx, "Grace Chapel", id)
	s.Require().NoError(err)
	s.True(s.rowFor(sheet, id).Present)
}

func (s *AttendanceServiceTestSuite) TestToggleUnknownMember() {
	_, err := s.svc.Toggle(s.ctx, "Grace Chapel", "missing")
	s.True(apperrors.IsNotFound(err))
}

func (s *AttendanceServiceTestSuite) TestToggleWritesNothingDurable() {
	id := s.addMember("Ama", "Mensah")
	_, err := s.svc.Toggle(s.ctx, "Grace Chapel", id)
	s.Require().NoError(err)

	raw, err := s.store.Get(s.ctx, store.DayEntryPath("2025-06-01", id))
	s.Require().NoError(err)
	s.JSONEq("true", string(raw))
}

func (s *AttendanceServiceTestSuite) TestMarkAllAndClearAll() {
	s.addMember("Ama", "Mensah")
	s.addMember("Kofi", "Boateng")

	sheet, err := s.svc.ClearAll(s.ctx, "Grace Chapel")
	s.Require().NoError(err)
	s.Equal(0, sheet.PresentCount)
	s.Equal(2, sheet.AbsentCount)

	sheet, err = s.svc.MarkAll(s.ctx, "Grace Chapel")
	s.Require().NoError(err)
	s.Equal(2, sheet.PresentCount)
	s.Equal(0, sheet.AbsentCount)
}

func (s *AttendanceServiceTestSuite) TestSelectDateDiscardsDraft() {
	s.Require().NoError(s.store.Set(s.ctx, store.DayEntryPath("2025-05-25", "m1"), true))
	s.Require().NoError(s.registry.Ledger().Resync(s.ctx))

	id := s.addMember("Ama", "Mensah")
	_, err := s.svc.Toggle(s.ctx, "Grace Chapel", id)
	s.Require().NoError(err)

	sheet, err := s.svc.SelectDate(s.ctx, "Grace Chapel", "2025-05-25")
	s.Require().NoError(err)
	s.Equal("2025-05-25", sheet.DateKey)
	s.False(sheet.Dirty)

	// Coming back to today shows the saved base, not the discarded toggle
	sheet, err = s.svc.SelectDate(s.ctx, "Grace Chapel", "2025-06-01")
	s.Require().NoError(err)
	s.True(s.rowFor(sheet, id).Present)
}

func (s *AttendanceServiceTestSuite) TestSelectDateUnknown() {
	_, err := s.svc.SelectDate(s.ctx, "Grace Chapel", "2031-01-01")
	s.ErrorIs(err, apperrors.ErrUnknownDateKey)

	_, err = s.svc.SelectDate(s.ctx, "Grace Chapel", "not-a-date")
	s.ErrorIs(err, apperrors.ErrUnknownDateKey)
}

func (s *AttendanceServiceTestSuite) TestSaveWritesFullRoster() {
	m1 := s.addMember("Ama", "Mensah")
	m2 := s.addMember("Kofi", "Boateng")

	_, err := s.svc.Toggle(s.ctx, "Grace Chapel", m2)
	s.Require().NoError(err)

	sheet, err := s.svc.Save(s.ctx, "Grace Chapel")
	s.Require().NoError(err)
	s.False(sheet.Dirty)
	s.True(sheet.Saved)

	ledger := s.registry.Ledger()
	s.True(ledger.IsPresent("2025-06-01", m1))
	s.False(ledger.IsPresent("2025-06-01", m2))
	s.True(ledger.HasSaved("2025-06-01"))
}

func (s *AttendanceServiceTestSuite) TestSavePreservesOrphanedEntries() {
	// A departed member's saved flag sits in the day node with no roster row
	s.Require().NoError(s.store.Set(s.ctx, store.DayEntryPath("2025-06-01", "departed1"), true))
	s.Require().NoError(s.registry.Ledger().Resync(s.ctx))

	s.addMember("Ama", "Mensah")
	_, err := s.svc.Save(s.ctx, "Grace Chapel")
	s.Require().NoError(err)

	raw, err := s.store.Get(s.ctx, store.DayEntryPath("2025-06-01", "departed1"))
	s.Require().NoError(err)
	s.JSONEq("true", string(raw))
}

func (s *AttendanceServiceTestSuite) TestHistoryNewestFirst() {
	id := s.addMember("Ama", "Mensah")
	for _, d := range []string{"2025-05-18", "2025-05-25"} {
		s.Require().NoError(s.store.Set(s.ctx, store.DayEntryPath(d, id), d == "2025-05-25"))
	}
	s.Require().NoError(s.registry.Ledger().Resync(s.ctx))

	history, err := s.svc.History(s.ctx, "Grace Chapel")
	s.Require().NoError(err)
	s.Require().Len(history, 3)

	s.Equal("2025-06-01", history[0].DateKey)
	s.Equal("2025-05-25", history[1].DateKey)
	s.Equal("2025-05-18", history[2].DateKey)

	s.Equal(1, history[1].PresentCount)
	s.Equal(0, history[1].AbsentCount)
	s.Equal(100, history[1].PercentPresent)
	s.Equal(0, history[2].PresentCount)
	s.Equal(1, history[2].AbsentCount)
}

func (s *AttendanceServiceTestSuite) TestDayDetail() {
	m1 := s.addMember("Ama", "Mensah")
	s.addMember("Kofi", "Boateng")
	s.Require().NoError(s.store.Set(s.ctx, store.DayEntryPath("2025-05-25", m1), true))
	s.Require().NoError(s.registry.Ledger().Resync(s.ctx))

	detail, err := s.svc.DayDetail(s.ctx, "Grace Chapel", "2025-05-25")
	s.Require().NoError(err)
	s.Equal([]string{"Ama Mensah"}, detail.Present)
	s.Equal([]string{"Kofi Boateng"}, detail.Absent)
}

func (s *AttendanceServiceTestSuite) TestDayDetailUnknownDate() {
	_, err := s.svc.DayDetail(s.ctx, "Grace Chapel", "2031-01-01")
	s.ErrorIs(err, apperrors.ErrUnknownDateKey)
}

func (s *AttendanceServiceTestSuite) TestDashboard() {
	m1 := s.addMember("Ama", "Mensah")
	m2 := s.addMember("Kofi", "Boateng")

	// Two saved days: both present on the first, one present on the second
	for _, id := range []string{m1, m2} {
		s.Require().NoError(s.store.Set(s.ctx, store.DayEntryPath("2025-05-18", id), true))
	}
	s.Require().NoError(s.store.Set(s.ctx, store.DayEntryPath("2025-05-25", m1), true))
	s.Require().NoError(s.store.Set(s.ctx, store.DayEntryPath("2025-05-25", m2), false))
	s.Require().NoError(s.registry.Ledger().Resync(s.ctx))

	dash, err := s.svc.Dashboard(s.ctx, "Grace Chapel")
	s.Require().NoError(err)
	s.Equal(2, dash.MemberCount)
	s.Equal(2, dash.PresentToday)
	// Saved days: 05-18 100%, 05-25 50%, 06-01 100% (enrollment) → mean 83
	s.Equal(83, dash.AverageAttendance)
}

func (s *AttendanceServiceTestSuite) TestSheetsAreIndependentPerChurch() {
	id := s.addMember("Ama", "Mensah")
	_, err := s.svc.Toggle(s.ctx, "Grace Chapel", id)
	s.Require().NoError(err)

	other, err := s.svc.Sheet(s.ctx, "Other Assembly")
	s.Require().NoError(err)
	s.False(other.Dirty)
	s.Empty(other.Rows)
}
