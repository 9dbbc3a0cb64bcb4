package sanction

import (
	"errors"
	"testing"
	"time"

	"github.com/freelaz/backend/internal/moderation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewEngine(store, 30), store
}

func applyN(t *testing.T, engine *Engine, userID uuid.UUID, n int, kinds ...moderation.ViolationKind) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := engine.ApplySanction(userID, "Joao Silva", "freelancer", kinds)
		require.NoError(t, err)
	}
}

func TestApplySanction_FirstHighKindIsViolation(t *testing.T) {
	engine, _ := newTestEngine(t)
	userID := uuid.New()

	record, err := engine.ApplySanction(userID, "Joao Silva", "freelancer",
		[]moderation.ViolationKind{moderation.ViolationPhoneNumber})
	require.NoError(t, err)

	assert.Equal(t, TierViolation, record.Tier)
	assert.Equal(t, StatusActive, record.Status)
	assert.Nil(t, record.ExpiresAt)

	status, err := engine.GetUserSanctionStatus(userID)
	require.NoError(t, err)
	assert.Equal(t, TierViolation, status.CurrentTier)
	assert.Equal(t, 1, status.ViolationCount)
	assert.False(t, status.IsBanned)
	assert.True(t, status.CanPostProjects)
	assert.True(t, status.CanSendProposals)
	assert.True(t, status.CanUseChat)
	assert.True(t, status.ProposalRankPenalty)
	assert.True(t, status.WarningBadge)
}

func TestApplySanction_TwoMediumKindsIsViolation(t *testing.T) {
	engine, _ := newTestEngine(t)

	record, err := engine.ApplySanction(uuid.New(), "Joao Silva", "freelancer",
		[]moderation.ViolationKind{moderation.ViolationSocialMedia, moderation.ViolationCommissionMention})
	require.NoError(t, err)
	assert.Equal(t, TierViolation, record.Tier)
}

func TestApplySanction_SingleMediumKindNotWarranted(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.ApplySanction(uuid.New(), "Joao Silva", "freelancer",
		[]moderation.ViolationKind{moderation.ViolationSocialMedia})
	assert.ErrorIs(t, err, ErrNoSanctionWarranted)
}

func TestApplySanction_TwoHighKindsIsPenalty(t *testing.T) {
	engine, _ := newTestEngine(t)
	userID := uuid.New()

	record, err := engine.ApplySanction(userID, "Joao Silva", "freelancer",
		[]moderation.ViolationKind{moderation.ViolationPhoneNumber, moderation.ViolationEmail})
	require.NoError(t, err)

	assert.Equal(t, TierPenalty, record.Tier)
	require.NotNil(t, record.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), *record.ExpiresAt, time.Minute)

	status, err := engine.GetUserSanctionStatus(userID)
	require.NoError(t, err)
	assert.Equal(t, TierPenalty, status.CurrentTier)
	assert.False(t, status.CanPostProjects)
	assert.True(t, status.CanSendProposals)
	assert.True(t, status.CanUseChat)
	assert.NotNil(t, status.BanExpiresAt)
}

func TestApplySanction_ThreeHighKindsIsImmediateBan(t *testing.T) {
	engine, _ := newTestEngine(t)
	userID := uuid.New()

	record, err := engine.ApplySanction(userID, "Joao Silva", "freelancer",
		[]moderation.ViolationKind{
			moderation.ViolationPhoneNumber,
			moderation.ViolationEmail,
			moderation.ViolationPaymentRequest,
		})
	require.NoError(t, err)
	assert.Equal(t, TierBan, record.Tier)
	assert.Nil(t, record.ExpiresAt)

	status, err := engine.GetUserSanctionStatus(userID)
	require.NoError(t, err)
	assert.True(t, status.IsBanned)
	assert.False(t, status.CanPostProjects)
	assert.False(t, status.CanSendProposals)
	assert.False(t, status.CanUseChat)

	banned, err := engine.IsUserBanned(userID)
	require.NoError(t, err)
	assert.True(t, banned)
}

func TestApplySanction_EscalationDependsOnHistory(t *testing.T) {
	engine, _ := newTestEngine(t)
	userID := uuid.New()
	oneHigh := []moderation.ViolationKind{moderation.ViolationPhoneNumber}

	// two prior violations: one high kind still maps to a plain violation
	applyN(t, engine, userID, 2, oneHigh...)
	record, err := engine.ApplySanction(userID, "Joao Silva", "freelancer", oneHigh)
	require.NoError(t, err)
	assert.Equal(t, TierViolation, record.Tier)

	// the third prior violation crosses the penalty threshold
	record, err = engine.ApplySanction(userID, "Joao Silva", "freelancer", oneHigh)
	require.NoError(t, err)
	assert.Equal(t, TierPenalty, record.Tier)
}

func TestApplySanction_TwoPriorPenaltiesIsBan(t *testing.T) {
	engine, _ := newTestEngine(t)
	userID := uuid.New()
	twoHigh := []moderation.ViolationKind{moderation.ViolationPhoneNumber, moderation.ViolationEmail}

	applyN(t, engine, userID, 2, twoHigh...)

	record, err := engine.ApplySanction(userID, "Joao Silva", "freelancer",
		[]moderation.ViolationKind{moderation.ViolationPhoneNumber})
	require.NoError(t, err)
	assert.Equal(t, TierBan, record.Tier)
}

func TestApplySanction_DeduplicatesKinds(t *testing.T) {
	engine, _ := newTestEngine(t)

	record, err := engine.ApplySanction(uuid.New(), "Joao Silva", "client",
		[]moderation.ViolationKind{
			moderation.ViolationPhoneNumber,
			moderation.ViolationPhoneNumber,
			moderation.ViolationPhoneNumber,
		})
	require.NoError(t, err)
	assert.Equal(t, TierViolation, record.Tier)
	assert.Len(t, record.Kinds, 1)
}

func TestLiftSanction_OnlyActiveRecordResetsFlags(t *testing.T) {
	engine, _ := newTestEngine(t)
	userID := uuid.New()

	record, err := engine.ApplySanction(userID, "Joao Silva", "freelancer",
		[]moderation.ViolationKind{
			moderation.ViolationPhoneNumber,
			moderation.ViolationEmail,
			moderation.ViolationURL,
		})
	require.NoError(t, err)
	require.Equal(t, TierBan, record.Tier)

	lifted, err := engine.LiftSanction(record.ID, "admin")
	require.NoError(t, err)
	require.True(t, lifted)

	status, err := engine.GetUserSanctionStatus(userID)
	require.NoError(t, err)
	assert.Equal(t, TierNone, status.CurrentTier)
	assert.False(t, status.IsBanned)
	assert.True(t, status.CanPostProjects)
	assert.True(t, status.CanSendProposals)
	assert.True(t, status.CanUseChat)
	assert.False(t, status.ProposalRankPenalty)
	assert.False(t, status.WarningBadge)

	stored, err := engine.GetUserSanctions(userID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, StatusLifted, stored[0].Status)
	require.NotNil(t, stored[0].LiftedBy)
	assert.Equal(t, "admin", *stored[0].LiftedBy)
}

func TestLiftSanction_RecomputesToRemainingActiveTier(t *testing.T) {
	engine, _ := newTestEngine(t)
	userID := uuid.New()

	first, err := engine.ApplySanction(userID, "Joao Silva", "freelancer",
		[]moderation.ViolationKind{moderation.ViolationPhoneNumber})
	require.NoError(t, err)
	require.Equal(t, TierViolation, first.Tier)

	second, err := engine.ApplySanction(userID, "Joao Silva", "freelancer",
		[]moderation.ViolationKind{moderation.ViolationPhoneNumber, moderation.ViolationEmail})
	require.NoError(t, err)
	require.Equal(t, TierPenalty, second.Tier)

	// lifting the penalty leaves the older violation governing the status
	lifted, err := engine.LiftSanction(second.ID, "admin")
	require.NoError(t, err)
	require.True(t, lifted)

	status, err := engine.GetUserSanctionStatus(userID)
	require.NoError(t, err)
	assert.Equal(t, TierViolation, status.CurrentTier)
	assert.True(t, status.CanPostProjects)
	assert.True(t, status.WarningBadge)
}

func TestLiftSanction_UnknownRecord(t *testing.T) {
	engine, _ := newTestEngine(t)

	lifted, err := engine.LiftSanction(uuid.New(), "admin")
	require.NoError(t, err)
	assert.False(t, lifted)
}

func TestAppealWorkflow(t *testing.T) {
	engine, _ := newTestEngine(t)
	userID := uuid.New()

	record, err := engine.ApplySanction(userID, "Joao Silva", "freelancer",
		[]moderation.ViolationKind{
			moderation.ViolationPhoneNumber,
			moderation.ViolationEmail,
			moderation.ViolationPaymentRequest,
		})
	require.NoError(t, err)
	require.Equal(t, TierBan, record.Tier)

	ok, err := engine.AppealSanction(record.ID, "não fui eu, conta invadida")
	require.NoError(t, err)
	require.True(t, ok)

	stored, err := engine.GetUserSanctions(userID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, AppealPending, stored[0].AppealStatus)
	require.NotNil(t, stored[0].AppealReason)

	ok, err = engine.ProcessAppeal(record.ID, true)
	require.NoError(t, err)
	require.True(t, ok)

	stored, err = engine.GetUserSanctions(userID)
	require.NoError(t, err)
	assert.Equal(t, AppealApproved, stored[0].AppealStatus)
	assert.Equal(t, StatusLifted, stored[0].Status)

	status, err := engine.GetUserSanctionStatus(userID)
	require.NoError(t, err)
	assert.False(t, status.IsBanned)
	assert.True(t, status.CanUseChat)
}

func TestProcessAppeal_RejectionKeepsSanction(t *testing.T) {
	engine, _ := newTestEngine(t)
	userID := uuid.New()

	record, err := engine.ApplySanction(userID, "Joao Silva", "freelancer",
		[]moderation.ViolationKind{
			moderation.ViolationPhoneNumber,
			moderation.ViolationEmail,
			moderation.ViolationPaymentRequest,
		})
	require.NoError(t, err)

	ok, err := engine.AppealSanction(record.ID, "injusto")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = engine.ProcessAppeal(record.ID, false)
	require.NoError(t, err)
	require.True(t, ok)

	status, err := engine.GetUserSanctionStatus(userID)
	require.NoError(t, err)
	assert.True(t, status.IsBanned)

	// a resolved appeal cannot be processed twice
	ok, err = engine.ProcessAppeal(record.ID, true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProcessAppeal_WithoutPendingAppeal(t *testing.T) {
	engine, _ := newTestEngine(t)

	record, err := engine.ApplySanction(uuid.New(), "Joao Silva", "freelancer",
		[]moderation.ViolationKind{moderation.ViolationPhoneNumber})
	require.NoError(t, err)

	ok, err := engine.ProcessAppeal(record.ID, true)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPenaltyExpiresLazilyOnRead(t *testing.T) {
	engine, _ := newTestEngine(t)
	userID := uuid.New()

	record, err := engine.ApplySanction(userID, "Joao Silva", "freelancer",
		[]moderation.ViolationKind{moderation.ViolationPhoneNumber, moderation.ViolationEmail})
	require.NoError(t, err)
	require.Equal(t, TierPenalty, record.Tier)

	// jump past the penalty window
	engine.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }

	status, err := engine.GetUserSanctionStatus(userID)
	require.NoError(t, err)
	assert.Equal(t, TierNone, status.CurrentTier)
	assert.True(t, status.CanPostProjects)
	assert.Equal(t, 1, status.PenaltyCount)

	stored, err := engine.GetUserSanctions(userID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, StatusExpired, stored[0].Status)
}

func TestGetUserSanctionStatus_UnknownUserIsPermissive(t *testing.T) {
	engine, _ := newTestEngine(t)

	status, err := engine.GetUserSanctionStatus(uuid.New())
	require.NoError(t, err)
	assert.Equal(t, TierNone, status.CurrentTier)
	assert.True(t, status.CanPostProjects)
	assert.True(t, status.CanSendProposals)
	assert.True(t, status.CanUseChat)
	assert.False(t, status.IsBanned)

	can, err := engine.CanSendProposals(uuid.New())
	require.NoError(t, err)
	assert.True(t, can)
	can, err = engine.CanPostProjects(uuid.New())
	require.NoError(t, err)
	assert.True(t, can)
}

func TestGetActiveSanctions_FiltersLiftedAndExpired(t *testing.T) {
	engine, _ := newTestEngine(t)
	alice, bob := uuid.New(), uuid.New()

	kept, err := engine.ApplySanction(alice, "Alice", "client",
		[]moderation.ViolationKind{moderation.ViolationPhoneNumber})
	require.NoError(t, err)

	liftedRec, err := engine.ApplySanction(bob, "Bob", "freelancer",
		[]moderation.ViolationKind{moderation.ViolationEmail})
	require.NoError(t, err)
	ok, err := engine.LiftSanction(liftedRec.ID, "admin")
	require.NoError(t, err)
	require.True(t, ok)

	active, err := engine.GetActiveSanctions()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, kept.ID, active[0].ID)

	all, err := engine.GetAllSanctions()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSanctionMessages(t *testing.T) {
	engine, _ := newTestEngine(t)
	userID := uuid.New()

	_, err := engine.ApplySanction(userID, "Joao Silva", "freelancer",
		[]moderation.ViolationKind{
			moderation.ViolationPhoneNumber,
			moderation.ViolationEmail,
			moderation.ViolationPaymentRequest,
		})
	require.NoError(t, err)

	msg := engine.GetBanMessage(userID)
	assert.Contains(t, msg, "banida")
	assert.Contains(t, msg, tierReasons[TierBan])

	expires := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	assert.Contains(t, GetPenaltyMessage(expires), "15/03/2026")
	assert.NotEmpty(t, GetViolationWarningMessage())
}

type failingStore struct{ *MemoryStore }

func (s failingStore) AppendRecord(*Record) error {
	return errors.New("connection refused")
}

func TestApplySanction_PersistenceFailureSurfaces(t *testing.T) {
	engine := NewEngine(failingStore{NewMemoryStore()}, 30)

	_, err := engine.ApplySanction(uuid.New(), "Joao Silva", "freelancer",
		[]moderation.ViolationKind{moderation.ViolationPhoneNumber})
	require.Error(t, err)
	assert.True(t, IsPersistenceError(err))

	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "append record", pe.Op)
}
