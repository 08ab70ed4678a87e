package friendship

import (
	"errors"
	"time"

	"github.com/daylogapp/server/model"
)

// Manager owns the relationship lifecycle between pairs of users. Every
// operation takes the authenticated caller's ID explicitly; there is no
// ambient identity. All mutations end in a conditional write at the store,
// so concurrent transitions on the same pair lose with ErrConflict instead
// of corrupting the row.
type Manager struct {
	store Store
}

// NewManager creates a Manager on top of the given store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

func validPair(a, b int64) error {
	if a <= 0 || b <= 0 {
		return ErrInvalidArgument
	}
	return nil
}

// Lookup returns the current relationship between the two users. A missing
// row is the NONE state, not an error.
func (m *Manager) Lookup(callerID, friendID int64) (View, error) {
	if err := validPair(callerID, friendID); err != nil {
		return View{}, err
	}
	f, err := m.store.FindByPair(callerID, friendID)
	if errors.Is(err, ErrNotFound) {
		return NoneView(), nil
	}
	if err != nil {
		return View{}, err
	}
	return viewOf(f), nil
}

// SendRequest creates a PENDING row from caller to friend. Any existing
// relationship in any state, in either direction, is a conflict.
func (m *Manager) SendRequest(callerID, friendID int64) (View, error) {
	if err := validPair(callerID, friendID); err != nil {
		return View{}, err
	}
	if callerID == friendID {
		return View{}, ErrInvalidArgument
	}
	if _, err := m.store.FindByPair(callerID, friendID); err == nil {
		return View{}, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return View{}, err
	}
	f := &model.Friendship{
		SenderID:   callerID,
		ReceiverID: friendID,
		Status:     model.FriendshipPending,
	}
	// The pair unique index closes the read-then-create race: the slower
	// of two concurrent sends gets ErrConflict here.
	if err := m.store.Create(f); err != nil {
		return View{}, err
	}
	return viewOf(f), nil
}

// Apply dispatches a parsed Transition to the matching operation.
func (m *Manager) Apply(callerID, friendID int64, t Transition) (View, error) {
	switch t {
	case TransitionCancel:
		if err := m.CancelRequest(callerID, friendID); err != nil {
			return View{}, err
		}
		return NoneView(), nil
	case TransitionAccept:
		return m.Accept(callerID, friendID)
	case TransitionBlock:
		return m.Block(callerID, friendID)
	case TransitionUnblock:
		return m.Unblock(callerID, friendID)
	default:
		return View{}, ErrInvalidArgument
	}
}

// CancelRequest withdraws a pending request the caller sent.
func (m *Manager) CancelRequest(callerID, friendID int64) error {
	if err := validPair(callerID, friendID); err != nil {
		return err
	}
	f, err := m.store.FindByPair(callerID, friendID)
	if err != nil {
		return err
	}
	if f.Status != model.FriendshipPending {
		return ErrInvalidState
	}
	if f.SenderID != callerID {
		return ErrForbidden
	}
	return m.store.Delete(f.ID, model.FriendshipPending)
}

// Accept turns a pending request addressed to the caller into a friendship.
func (m *Manager) Accept(callerID, friendID int64) (View, error) {
	if err := validPair(callerID, friendID); err != nil {
		return View{}, err
	}
	f, err := m.store.FindByPair(callerID, friendID)
	if err != nil {
		return View{}, err
	}
	if f.Status != model.FriendshipPending {
		return View{}, ErrInvalidState
	}
	if f.ReceiverID != callerID {
		return View{}, ErrForbidden
	}
	err = m.store.UpdateStatus(f.ID, model.FriendshipPending, map[string]interface{}{
		"status": model.FriendshipFriend,
	})
	if err != nil {
		return View{}, err
	}
	f.Status = model.FriendshipFriend
	return viewOf(f), nil
}

// Block adds the caller to the blockers set. Legal from FRIEND or from a
// one-sided block held by the other party (which escalates to BLOCK_BOTH).
// Re-blocking by the same user is a no-op. A PENDING request must be
// resolved before blocking.
func (m *Manager) Block(callerID, friendID int64) (View, error) {
	if err := validPair(callerID, friendID); err != nil {
		return View{}, err
	}
	f, err := m.store.FindByPair(callerID, friendID)
	if errors.Is(err, ErrNotFound) {
		return View{}, ErrInvalidState
	}
	if err != nil {
		return View{}, err
	}
	if f.IsBlocker(callerID) {
		return viewOf(f), nil
	}
	if f.Status != model.FriendshipFriend && f.Status != model.FriendshipBlockOne {
		return View{}, ErrInvalidState
	}

	before := f.Status
	changes := map[string]interface{}{}
	if f.SenderID == callerID {
		changes["blocked_by_sender"] = true
		f.BlockedBySender = true
	} else {
		changes["blocked_by_receiver"] = true
		f.BlockedByReceiver = true
	}
	if len(f.Blockers()) == 2 {
		changes["status"] = model.FriendshipBlockBoth
		f.Status = model.FriendshipBlockBoth
	} else {
		changes["status"] = model.FriendshipBlockOne
		f.Status = model.FriendshipBlockOne
	}
	if err := m.store.UpdateStatus(f.ID, before, changes); err != nil {
		return View{}, err
	}
	return viewOf(f), nil
}

// Unblock removes the caller from the blockers set.
func (m *Manager) Unblock(callerID, friendID int64) (View, error) {
	if err := validPair(callerID, friendID); err != nil {
		return View{}, err
	}
	f, err := m.store.FindByPair(callerID, friendID)
	if errors.Is(err, ErrNotFound) {
		return View{}, ErrInvalidState
	}
	if err != nil {
		return View{}, err
	}
	if f.Status != model.FriendshipBlockOne && f.Status != model.FriendshipBlockBoth {
		return View{}, ErrInvalidState
	}
	if !f.IsBlocker(callerID) {
		return View{}, ErrInvalidState
	}

	before := f.Status
	changes := map[string]interface{}{}
	if f.SenderID == callerID {
		changes["blocked_by_sender"] = false
		f.BlockedBySender = false
	} else {
		changes["blocked_by_receiver"] = false
		f.BlockedByReceiver = false
	}
	if len(f.Blockers()) == 0 {
		changes["status"] = model.FriendshipFriend
		f.Status = model.FriendshipFriend
	} else {
		changes["status"] = model.FriendshipBlockOne
		f.Status = model.FriendshipBlockOne
	}
	if err := m.store.UpdateStatus(f.ID, before, changes); err != nil {
		return View{}, err
	}
	return viewOf(f), nil
}

// Dissolve deletes the relationship in any state, returning the pair to
// NONE. Either participant may do it.
func (m *Manager) Dissolve(callerID, friendID int64) error {
	if err := validPair(callerID, friendID); err != nil {
		return err
	}
	f, err := m.store.FindByPair(callerID, friendID)
	if err != nil {
		return err
	}
	if !f.Involves(callerID) {
		return ErrForbidden
	}
	return m.store.Delete(f.ID, "")
}

// FriendEntry is one friend-list row: the other participant and when the
// relationship was created (list sort key).
type FriendEntry struct {
	UserID int64
	Since  time.Time
}

// ListFriends returns the user's friend list, newest relationship first.
// Blocked pairs are excluded for both parties regardless of who blocked.
func (m *Manager) ListFriends(userID int64, page, size int) ([]FriendEntry, int64, error) {
	rows, total, err := m.store.ListVisible(userID, (page-1)*size, size)
	if err != nil {
		return nil, 0, err
	}
	entries := make([]FriendEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, FriendEntry{
			UserID: rows[i].OtherID(userID),
			Since:  rows[i].CreatedAt,
		})
	}
	return entries, total, nil
}

// ListPendingRequests returns the sender IDs of requests awaiting the user.
func (m *Manager) ListPendingRequests(userID int64, page, size int) ([]int64, int64, error) {
	rows, total, err := m.store.ListPending(userID, (page-1)*size, size)
	if err != nil {
		return nil, 0, err
	}
	senders := make([]int64, 0, len(rows))
	for i := range rows {
		senders = append(senders, rows[i].SenderID)
	}
	return senders, total, nil
}

// CountFriends counts the user's friend list (same scope as ListFriends).
func (m *Manager) CountFriends(userID int64) (int64, error) {
	return m.store.CountVisible(userID)
}

// FriendIDs returns the IDs of every mutual friend of the user.
func (m *Manager) FriendIDs(userID int64) ([]int64, error) {
	return m.store.FriendIDs(userID)
}

// FriendAndBlockedIDs returns the user's friends and the users the caller
// has blocked. Only the caller's own outgoing blocks are surfaced.
func (m *Manager) FriendAndBlockedIDs(userID int64) (friends, blocked []int64, err error) {
	friends, err = m.store.FriendIDs(userID)
	if err != nil {
		return nil, nil, err
	}
	blocked, err = m.store.OutgoingBlockIDs(userID)
	if err != nil {
		return nil, nil, err
	}
	return friends, blocked, nil
}

// IsFriend reports whether the two users are mutual friends.
func (m *Manager) IsFriend(a, b int64) (bool, error) {
	v, err := m.Lookup(a, b)
	if err != nil {
		return false, err
	}
	return v.Status == StatusFriend, nil
}

// CanView is the visibility predicate gating content access. The owner
// always sees their own content; everyone else is gated by the owner's
// sharing setting and, for FRIENDS, the relationship state.
func (m *Manager) CanView(viewerID, ownerID int64, setting Visibility) error {
	if viewerID == ownerID {
		return nil
	}
	switch setting {
	case VisibilityPublic:
		return nil
	case VisibilityFriends:
		ok, err := m.IsFriend(viewerID, ownerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}
		return nil
	case VisibilityOff:
		return ErrForbidden
	default:
		return ErrInvalidArgument
	}
}
