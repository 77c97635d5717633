package projection_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	apperrors "church-attendance-backend/internal/errors"
	"church-attendance-backend/internal/mocks"
	"church-attendance-backend/internal/projection"
	"church-attendance-backend/internal/store/memory"
	"church-attendance-backend/internal/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ProjectionTestSuite struct {
	suite.Suite
	store   *memory.Memory
	members *testutils.MemberFactory
	teams   *testutils.TeamFactory
	ctx     context.Context
}

func (suite *ProjectionTestSuite) SetupTest() {
	suite.store = memory.New()
	suite.members = testutils.NewMemberFactory()
	suite.teams = testutils.NewTeamFactory()
	suite.ctx = context.Background()
}

// addMember seeds a member node under an explicit id; the projection takes
// the id from the tree key, not the stored value.
func (suite *ProjectionTestSuite) addMember(id, first, last, church string) {
	m := suite.members.WithName(first, last)
	m.Church = church
	suite.Require().NoError(suite.store.Set(suite.ctx, "members/"+id, m))
}

func (suite *ProjectionTestSuite) addTeam(id, name, church string) {
	t := suite.teams.WithName(name)
	t.Church = church
	suite.Require().NoError(suite.store.Set(suite.ctx, "teams/"+id, t))
}

func (suite *ProjectionTestSuite) TestRosterScopedToChurch() {
	suite.addMember("m1", "Ama", "Mensah", "Walsall")
	suite.addMember("m2", "Kofi", "Boateng", "Walsall")
	suite.addMember("m3", "Yaw", "Owusu", "Coventry")

	roster := projection.NewRoster(suite.store, "Walsall", time.Second)
	suite.Require().NoError(roster.Start())
	defer roster.Stop()

	suite.Equal(2, roster.Size())
	_, ok := roster.ByID("m3")
	suite.False(ok)

	m, ok := roster.ByID("m1")
	suite.Require().True(ok)
	suite.Equal("Ama Mensah", m.Name())
}

func (suite *ProjectionTestSuite) TestRosterReplacesSnapshotOnFeedUpdate() {
	suite.addMember("m1", "Ama", "Mensah", "Walsall")

	roster := projection.NewRoster(suite.store, "Walsall", time.Second)
	suite.Require().NoError(roster.Start())
	defer roster.Stop()

	suite.Equal(1, roster.Size())

	suite.Require().NoError(suite.store.Remove(suite.ctx, "members/m1"))
	suite.addMember("m2", "Kofi", "Boateng", "Walsall")

	suite.Require().Eventually(func() bool {
		_, gone := roster.ByID("m1")
		_, added := roster.ByID("m2")
		return !gone && added
	}, time.Second, 5*time.Millisecond)
}

func (suite *ProjectionTestSuite) TestRosterFilterByName() {
	suite.addMember("m1", "Ama", "Mensah", "Walsall")
	suite.addMember("m2", "Kofi", "Boateng", "Walsall")
	suite.addMember("m3", "Akosua", "Asante", "Walsall")

	roster := projection.NewRoster(suite.store, "Walsall", time.Second)
	suite.Require().NoError(roster.Start())
	defer roster.Stop()

	matches := roster.FilterByName("MENSAH")
	suite.Require().Len(matches, 1)
	suite.Equal("m1", matches[0].ID)

	// substring across the first/last name concatenation
	matches = roster.FilterByName("a men")
	suite.Require().Len(matches, 1)
	suite.Equal("m1", matches[0].ID)

	suite.Len(roster.FilterByName(""), 3)
	suite.Empty(roster.FilterByName("zzz"))
}

func (suite *ProjectionTestSuite) TestRosterDecodesLegacyTeamArray() {
	err := suite.store.Set(suite.ctx, "members/m1", map[string]interface{}{
		"firstName": "Ama",
		"lastName":  "Mensah",
		"church":    "Walsall",
		"Teams":     []string{"t1", "t2"},
	})
	suite.Require().NoError(err)

	roster := projection.NewRoster(suite.store, "Walsall", time.Second)
	suite.Require().NoError(roster.Start())
	defer roster.Stop()

	m, ok := roster.ByID("m1")
	suite.Require().True(ok)
	suite.ElementsMatch([]string{"t1", "t2"}, m.TeamIDs())
}

func (suite *ProjectionTestSuite) TestTeamsDirectory() {
	suite.addTeam("t1", "Choir", "Walsall")
	suite.addTeam("t2", "Ushers", "Walsall")
	suite.addTeam("t3", "Choir", "Coventry")

	teams := projection.NewTeams(suite.store, "Walsall", time.Second)
	suite.Require().NoError(teams.Start())
	defer teams.Stop()

	suite.Len(teams.All(), 2)

	team, ok := teams.ByID("t1")
	suite.Require().True(ok)
	suite.Equal("Choir", team.Name)

	byName, ok := teams.ByName("Ushers")
	suite.Require().True(ok)
	suite.Equal("t2", byName.ID)

	_, ok = teams.ByName("Prayer Warriors")
	suite.False(ok)
}

func (suite *ProjectionTestSuite) TestLedgerDatesKnownOnEmptyLedger() {
	ledger := projection.NewLedger(suite.store, time.Second)
	ledger.SetNowFunc(func() string { return "2025-06-01" })
	suite.Require().NoError(ledger.Start())
	defer ledger.Stop()

	suite.Equal([]string{"2025-06-01"}, ledger.DatesKnown())
}

func (suite *ProjectionTestSuite) TestLedgerDatesKnownPrependsUnsavedToday() {
	suite.Require().NoError(suite.store.Set(suite.ctx, "attendance/2025-01-01/m1", true))
	suite.Require().NoError(suite.store.Set(suite.ctx, "attendance/2025-01-02/m1", false))

	ledger := projection.NewLedger(suite.store, time.Second)
	ledger.SetNowFunc(func() string { return "2025-06-01" })
	suite.Require().NoError(ledger.Start())
	defer ledger.Stop()

	suite.Equal([]string{"2025-06-01", "2025-01-01", "2025-01-02"}, ledger.DatesKnown())
}

func (suite *ProjectionTestSuite) TestLedgerDatesKnownNeverDuplicatesToday() {
	suite.Require().NoError(suite.store.Set(suite.ctx, "attendance/2025-06-01/m1", true))
	suite.Require().NoError(suite.store.Set(suite.ctx, "attendance/2025-01-01/m1", true))

	ledger := projection.NewLedger(suite.store, time.Second)
	ledger.SetNowFunc(func() string { return "2025-06-01" })
	suite.Require().NoError(ledger.Start())
	defer ledger.Stop()

	suite.Equal([]string{"2025-01-01", "2025-06-01"}, ledger.DatesKnown())
}

func (suite *ProjectionTestSuite) TestLedgerPresence() {
	suite.Require().NoError(suite.store.Set(suite.ctx, "attendance/2025-01-01", map[string]bool{
		"m1": true,
		"m2": false,
	}))

	ledger := projection.NewLedger(suite.store, time.Second)
	suite.Require().NoError(ledger.Start())
	defer ledger.Stop()

	suite.True(ledger.IsPresent("2025-01-01", "m1"))
	suite.False(ledger.IsPresent("2025-01-01", "m2"))
	suite.False(ledger.IsPresent("2025-01-01", "m3"))
	suite.False(ledger.IsPresent("2099-01-01", "m1"))

	suite.True(ledger.HasSaved("2025-01-01"))
	suite.False(ledger.HasSaved("2099-01-01"))

	suite.Empty(ledger.PresenceFor("2099-01-01"))
}

func (suite *ProjectionTestSuite) TestLedgerPresenceForReturnsCopy() {
	suite.Require().NoError(suite.store.Set(suite.ctx, "attendance/2025-01-01", map[string]bool{"m1": true}))

	ledger := projection.NewLedger(suite.store, time.Second)
	suite.Require().NoError(ledger.Start())
	defer ledger.Stop()

	day := ledger.PresenceFor("2025-01-01")
	day["m1"] = false

	suite.True(ledger.IsPresent("2025-01-01", "m1"))
}

func (suite *ProjectionTestSuite) TestLedgerFollowsFeed() {
	ledger := projection.NewLedger(suite.store, time.Second)
	suite.Require().NoError(ledger.Start())
	defer ledger.Stop()

	suite.Require().NoError(suite.store.Set(suite.ctx, "attendance/2025-01-01/m1", true))

	suite.Require().Eventually(func() bool {
		return ledger.IsPresent("2025-01-01", "m1")
	}, time.Second, 5*time.Millisecond)
}

func (suite *ProjectionTestSuite) TestResyncBypassesFeed() {
	roster := projection.NewRoster(suite.store, "Walsall", time.Second)
	suite.Require().NoError(roster.Start())
	roster.Stop() // feed closed; projection keeps serving its last snapshot

	suite.addMember("m1", "Ama", "Mensah", "Walsall")
	suite.Equal(0, roster.Size())

	suite.Require().NoError(roster.Resync(suite.ctx))
	suite.Equal(1, roster.Size())
}

func TestProjectionTestSuite(t *testing.T) {
	suite.Run(t, new(ProjectionTestSuite))
}

// stuckSubscription returns a feed that never delivers a snapshot, the shape
// of a store outage where polls keep failing.
func stuckSubscription(ctrl *gomock.Controller) *mocks.MockSubscription {
	sub := mocks.NewMockSubscription(ctrl)
	sub.EXPECT().Snapshots().Return(make(chan json.RawMessage)).AnyTimes()
	sub.EXPECT().Close().AnyTimes()
	return sub
}

func TestRosterStartTimesOutOnSilentFeed(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Subscribe("members").Return(stuckSubscription(ctrl), nil)

	roster := projection.NewRoster(st, "Walsall", 50*time.Millisecond)
	err := roster.Start()
	assert.True(t, apperrors.IsTimeout(err))
}

func TestLedgerStartTimesOutOnSilentFeed(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Subscribe("attendance").Return(stuckSubscription(ctrl), nil)

	ledger := projection.NewLedger(st, 50*time.Millisecond)
	err := ledger.Start()
	assert.True(t, apperrors.IsTimeout(err))
}

func TestForChurchReturnsTimeoutInsteadOfBlocking(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().Subscribe("members").Return(stuckSubscription(ctrl), nil)

	registry := projection.NewRegistry(st, 50*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		_, err := registry.ForChurch("Walsall")
		done <- err
	}()

	select {
	case err := <-done:
		assert.True(t, apperrors.IsTimeout(err))
	case <-time.After(2 * time.Second):
		t.Fatal("ForChurch did not return within the store timeout")
	}
}
