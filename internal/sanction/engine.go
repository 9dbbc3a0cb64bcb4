package sanction

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/freelaz/backend/internal/moderation"
	"github.com/google/uuid"
)

// ErrNoSanctionWarranted is returned when the detected violations do not
// qualify for any tier. Callers are expected to consult the moderator first
// and only invoke the engine on real detections.
var ErrNoSanctionWarranted = errors.New("violations do not warrant a sanction")

const defaultPenaltyDays = 30

// Escalation thresholds, evaluated in precedence order (ban first).
const (
	banHighKinds           = 3 // high-severity kinds in one message
	banPriorPenalties      = 2 // lifetime penalty records
	penaltyHighKinds       = 2
	penaltyPriorViolations = 3
)

var tierReasons = map[Tier]string{
	TierViolation: "Conteúdo proibido detectado em mensagem",
	TierPenalty:   "Reincidência ou múltiplas violações graves",
	TierBan:       "Violações graves repetidas dos termos de uso",
}

// Engine converts moderation detections into escalating, auditable account
// restrictions. All read-decide-write cycles for one user are serialized
// behind a per-user lock so two racing messages cannot lose an escalation.
type Engine struct {
	store      Store
	penaltyTTL time.Duration
	now        func() time.Time

	mu        sync.Mutex
	userLocks map[uuid.UUID]*sync.Mutex
}

// NewEngine creates a sanction engine over the given store. penaltyDays
// controls how long a penalty lasts before it expires on its own; zero or
// negative picks the default window.
func NewEngine(store Store, penaltyDays int) *Engine {
	if penaltyDays <= 0 {
		penaltyDays = defaultPenaltyDays
	}
	return &Engine{
		store:      store,
		penaltyTTL: time.Duration(penaltyDays) * 24 * time.Hour,
		now:        time.Now,
		userLocks:  make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockUser returns the unlock func for the per-user mutex, creating it on
// first use.
func (e *Engine) lockUser(userID uuid.UUID) func() {
	e.mu.Lock()
	lock, ok := e.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.userLocks[userID] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// ApplySanction records a new enforcement action for the detected violation
// kinds and recomputes the user's restriction state. The whole cycle is one
// atomic unit per user: history read, tier decision, record append and
// status recompute happen under the user's lock.
func (e *Engine) ApplySanction(userID uuid.UUID, displayName, role string, kinds []moderation.ViolationKind) (*Record, error) {
	kinds = dedupeKinds(kinds)

	unlock := e.lockUser(userID)
	defer unlock()

	history, err := e.store.GetRecordsByUser(userID)
	if err != nil {
		return nil, &PersistenceError{Op: "get records", Err: err}
	}
	if err := e.expireStale(history); err != nil {
		return nil, err
	}

	tier := decideTier(kinds, history)
	if tier == TierNone {
		return nil, ErrNoSanctionWarranted
	}

	now := e.now()
	record := &Record{
		ID:              uuid.New(),
		UserID:          userID,
		UserDisplayName: displayName,
		UserRole:        role,
		Tier:            tier,
		Kinds:           kinds,
		Reason:          tierReasons[tier],
		Description:     describeKinds(kinds),
		CreatedAt:       now,
		Status:          StatusActive,
		AppealStatus:    AppealNone,
	}
	if tier == TierPenalty {
		expires := now.Add(e.penaltyTTL)
		record.ExpiresAt = &expires
	}

	if err := e.store.AppendRecord(record); err != nil {
		return nil, &PersistenceError{Op: "append record", Err: err}
	}

	if _, err := e.recomputeLocked(userID); err != nil {
		return nil, err
	}
	return record, nil
}

// decideTier applies the escalation rules in precedence order. History
// counts are lifetime counts regardless of record status.
func decideTier(kinds []moderation.ViolationKind, history []Record) Tier {
	high := 0
	for _, k := range kinds {
		if moderation.SeverityOf(k) == moderation.SeverityHigh {
			high++
		}
	}

	priorViolations, priorPenalties := 0, 0
	for _, r := range history {
		switch r.Tier {
		case TierViolation:
			priorViolations++
		case TierPenalty:
			priorPenalties++
		}
	}

	switch {
	case high >= banHighKinds || priorPenalties >= banPriorPenalties:
		return TierBan
	case high >= penaltyHighKinds || priorViolations >= penaltyPriorViolations:
		return TierPenalty
	case high >= 1 || len(kinds) >= 2:
		return TierViolation
	default:
		return TierNone
	}
}

// LiftSanction marks a record lifted and recomputes the user's state from
// the remaining active records. Returns false when the record id does not
// exist.
func (e *Engine) LiftSanction(recordID uuid.UUID, liftedBy string) (bool, error) {
	record, err := e.store.GetRecord(recordID)
	if errors.Is(err, ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Op: "get record", Err: err}
	}

	unlock := e.lockUser(record.UserID)
	defer unlock()

	// re-read under the lock so a racing lift cannot double-apply
	record, err = e.store.GetRecord(recordID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return false, nil
		}
		return false, &PersistenceError{Op: "get record", Err: err}
	}

	if err := e.liftLocked(record, liftedBy); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) liftLocked(record *Record, liftedBy string) error {
	now := e.now()
	record.Status = StatusLifted
	record.LiftedAt = &now
	record.LiftedBy = &liftedBy

	if err := e.store.UpdateRecord(record); err != nil {
		return &PersistenceError{Op: "update record", Err: err}
	}
	_, err := e.recomputeLocked(record.UserID)
	return err
}

// AppealSanction opens an appeal on a record. Returns false when the record
// does not exist.
func (e *Engine) AppealSanction(recordID uuid.UUID, reason string) (bool, error) {
	record, err := e.store.GetRecord(recordID)
	if errors.Is(err, ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Op: "get record", Err: err}
	}

	unlock := e.lockUser(record.UserID)
	defer unlock()

	now := e.now()
	record.AppealStatus = AppealPending
	record.AppealReason = &reason
	record.AppealDate = &now
	if err := e.store.UpdateRecord(record); err != nil {
		return false, &PersistenceError{Op: "update record", Err: err}
	}
	return true, nil
}

// ProcessAppeal resolves a pending appeal. Approval lifts the record
// through the same recompute path as LiftSanction. Returns false when the
// record does not exist or has no pending appeal.
func (e *Engine) ProcessAppeal(recordID uuid.UUID, approved bool) (bool, error) {
	record, err := e.store.GetRecord(recordID)
	if errors.Is(err, ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Op: "get record", Err: err}
	}

	unlock := e.lockUser(record.UserID)
	defer unlock()

	record, err = e.store.GetRecord(recordID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return false, nil
		}
		return false, &PersistenceError{Op: "get record", Err: err}
	}
	if record.AppealStatus != AppealPending {
		return false, nil
	}

	if !approved {
		record.AppealStatus = AppealRejected
		if err := e.store.UpdateRecord(record); err != nil {
			return false, &PersistenceError{Op: "update record", Err: err}
		}
		return true, nil
	}

	record.AppealStatus = AppealApproved
	if err := e.liftLocked(record, "appeal"); err != nil {
		return false, err
	}
	return true, nil
}

// GetUserSanctionStatus returns the user's current restriction state.
// A user with no history gets the permissive defaults. Penalty expiry is
// checked lazily here: an expired penalty observed on read triggers a
// recompute before the status is returned.
func (e *Engine) GetUserSanctionStatus(userID uuid.UUID) (*UserStatus, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	status, err := e.store.GetStatus(userID)
	if err != nil {
		return nil, &PersistenceError{Op: "get status", Err: err}
	}
	if status == nil {
		return defaultStatus(userID), nil
	}

	if status.CurrentTier == TierPenalty && status.BanExpiresAt != nil && e.now().After(*status.BanExpiresAt) {
		records, err := e.store.GetRecordsByUser(userID)
		if err != nil {
			return nil, &PersistenceError{Op: "get records", Err: err}
		}
		if err := e.expireStale(records); err != nil {
			return nil, err
		}
		return e.recomputeLocked(userID)
	}

	return status, nil
}

// GetUserSanctions returns a user's full sanction history, newest first.
func (e *Engine) GetUserSanctions(userID uuid.UUID) ([]Record, error) {
	records, err := e.store.GetRecordsByUser(userID)
	if err != nil {
		return nil, &PersistenceError{Op: "get records", Err: err}
	}
	return records, nil
}

// GetActiveSanctions returns every record still in force. Penalties whose
// window has passed are reported as expired even before their owning user's
// next read writes the transition back.
func (e *Engine) GetActiveSanctions() ([]Record, error) {
	records, err := e.store.ListRecords(true)
	if err != nil {
		return nil, &PersistenceError{Op: "list records", Err: err}
	}
	now := e.now()
	active := records[:0]
	for _, r := range records {
		if r.Tier == TierPenalty && r.ExpiresAt != nil && now.After(*r.ExpiresAt) {
			continue
		}
		active = append(active, r)
	}
	return active, nil
}

// GetAllSanctions returns the complete audit trail.
func (e *Engine) GetAllSanctions() ([]Record, error) {
	records, err := e.store.ListRecords(false)
	if err != nil {
		return nil, &PersistenceError{Op: "list records", Err: err}
	}
	return records, nil
}

// CanSendProposals reports whether the user may submit proposals.
func (e *Engine) CanSendProposals(userID uuid.UUID) (bool, error) {
	status, err := e.GetUserSanctionStatus(userID)
	if err != nil {
		return false, err
	}
	return status.CanSendProposals, nil
}

// CanPostProjects reports whether the user may publish projects.
func (e *Engine) CanPostProjects(userID uuid.UUID) (bool, error) {
	status, err := e.GetUserSanctionStatus(userID)
	if err != nil {
		return false, err
	}
	return status.CanPostProjects, nil
}

// CanUseChat reports whether the user may send chat messages.
func (e *Engine) CanUseChat(userID uuid.UUID) (bool, error) {
	status, err := e.GetUserSanctionStatus(userID)
	if err != nil {
		return false, err
	}
	return status.CanUseChat, nil
}

// IsUserBanned reports whether the user is currently banned.
func (e *Engine) IsUserBanned(userID uuid.UUID) (bool, error) {
	status, err := e.GetUserSanctionStatus(userID)
	if err != nil {
		return false, err
	}
	return status.IsBanned, nil
}

// expireStale transitions active penalties past their window to expired.
// Caller must hold the user lock.
func (e *Engine) expireStale(records []Record) error {
	now := e.now()
	for i := range records {
		r := &records[i]
		if r.Tier == TierPenalty && r.Status == StatusActive && r.ExpiresAt != nil && now.After(*r.ExpiresAt) {
			r.Status = StatusExpired
			if err := e.store.UpdateRecord(r); err != nil {
				return &PersistenceError{Op: "update record", Err: err}
			}
		}
	}
	return nil
}

// recomputeLocked rebuilds the user's projection from the store: lifetime
// counters over all records, capability flags from the highest-severity
// remaining active record. Caller must hold the user lock.
func (e *Engine) recomputeLocked(userID uuid.UUID) (*UserStatus, error) {
	records, err := e.store.GetRecordsByUser(userID)
	if err != nil {
		return nil, &PersistenceError{Op: "get records", Err: err}
	}

	status := defaultStatus(userID)
	var top *Record
	for i := range records {
		r := &records[i]
		switch r.Tier {
		case TierViolation:
			status.ViolationCount++
		case TierPenalty:
			status.PenaltyCount++
		}
		if r.Status != StatusActive {
			continue
		}
		if top == nil || r.Tier.Rank() > top.Tier.Rank() {
			top = r
		}
	}

	if top != nil {
		tier := top.Tier
		status.CurrentTier = tier
		status.IsBanned = tier == TierBan
		status.BanReason = top.Reason
		status.CanPostProjects = tier != TierBan && tier != TierPenalty
		status.CanSendProposals = tier != TierBan
		status.CanUseChat = tier != TierBan
		status.ProposalRankPenalty = tier == TierViolation || tier == TierPenalty
		status.WarningBadge = tier == TierViolation || tier == TierPenalty
		if tier == TierPenalty {
			status.BanExpiresAt = top.ExpiresAt
		}
	}
	status.UpdatedAt = e.now()

	if err := e.store.PutStatus(status); err != nil {
		return nil, &PersistenceError{Op: "put status", Err: err}
	}
	return status, nil
}

func dedupeKinds(kinds []moderation.ViolationKind) []moderation.ViolationKind {
	seen := make(map[moderation.ViolationKind]bool, len(kinds))
	out := make([]moderation.ViolationKind, 0, len(kinds))
	for _, k := range kinds {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

func describeKinds(kinds []moderation.ViolationKind) string {
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, moderation.DescriptionOf(k))
	}
	return strings.Join(parts, ", ")
}
