package friendship_test

import (
	"sync"
	"testing"

	"github.com/daylogapp/server/friendship"
	"github.com/daylogapp/server/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = int64(1)
	bob   = int64(2)
	carol = int64(3)
)

func newManager(t *testing.T) *friendship.Manager {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return friendship.NewManager(friendship.NewStore(db))
}

func TestLookupNone(t *testing.T) {
	m := newManager(t)

	view, err := m.Lookup(alice, bob)
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusNone, view.Status)
}

func TestSendRequestSymmetry(t *testing.T) {
	m := newManager(t)

	view, err := m.SendRequest(alice, bob)
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusPending, view.Status)
	assert.Equal(t, alice, view.SenderID)
	assert.Equal(t, bob, view.ReceiverID)

	// Both directions resolve to the same row.
	fromAlice, err := m.Lookup(alice, bob)
	require.NoError(t, err)
	fromBob, err := m.Lookup(bob, alice)
	require.NoError(t, err)
	assert.Equal(t, fromAlice.ID, fromBob.ID)
	assert.Equal(t, friendship.StatusPending, fromBob.Status)
	assert.Equal(t, alice, fromBob.SenderID)
}

func TestSendRequestSelf(t *testing.T) {
	m := newManager(t)

	_, err := m.SendRequest(alice, alice)
	assert.ErrorIs(t, err, friendship.ErrInvalidArgument)
}

func TestSendRequestDuplicateConflict(t *testing.T) {
	m := newManager(t)

	_, err := m.SendRequest(alice, bob)
	require.NoError(t, err)

	// Same direction.
	_, err = m.SendRequest(alice, bob)
	assert.ErrorIs(t, err, friendship.ErrConflict)
	// Opposite direction hits the same pair row.
	_, err = m.SendRequest(bob, alice)
	assert.ErrorIs(t, err, friendship.ErrConflict)
}

func TestAcceptFlow(t *testing.T) {
	m := newManager(t)

	_, err := m.SendRequest(alice, bob)
	require.NoError(t, err)

	// The sender cannot accept their own request.
	_, err = m.Accept(alice, bob)
	assert.ErrorIs(t, err, friendship.ErrForbidden)

	view, err := m.Accept(bob, alice)
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusFriend, view.Status)

	// Accepting again is no longer a legal transition.
	_, err = m.Accept(bob, alice)
	assert.ErrorIs(t, err, friendship.ErrInvalidState)
}

func TestCancelRequest(t *testing.T) {
	m := newManager(t)

	_, err := m.SendRequest(alice, bob)
	require.NoError(t, err)

	// Only the sender may withdraw.
	err = m.CancelRequest(bob, alice)
	assert.ErrorIs(t, err, friendship.ErrForbidden)

	require.NoError(t, m.CancelRequest(alice, bob))

	view, err := m.Lookup(alice, bob)
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusNone, view.Status)

	// The pair is reusable after the round-trip.
	_, err = m.SendRequest(alice, bob)
	assert.NoError(t, err)
}

func befriend(t *testing.T, m *friendship.Manager, a, b int64) {
	t.Helper()
	_, err := m.SendRequest(a, b)
	require.NoError(t, err)
	_, err = m.Accept(b, a)
	require.NoError(t, err)
}

func TestBlockEscalation(t *testing.T) {
	m := newManager(t)
	befriend(t, m, alice, bob)

	view, err := m.Block(alice, bob)
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusBlockOne, view.Status)
	assert.Equal(t, []int64{alice}, view.Blockers)
	assert.Equal(t, []int64{bob}, view.Blocked)

	// The other party blocking back escalates to mutual.
	view, err = m.Block(bob, alice)
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusBlockBoth, view.Status)
	assert.ElementsMatch(t, []int64{alice, bob}, view.Blockers)
	assert.ElementsMatch(t, []int64{alice, bob}, view.Blocked)
}

func TestBlockIdempotentForSameCaller(t *testing.T) {
	m := newManager(t)
	befriend(t, m, alice, bob)

	first, err := m.Block(alice, bob)
	require.NoError(t, err)
	again, err := m.Block(alice, bob)
	require.NoError(t, err)
	assert.Equal(t, first.Status, again.Status)
	assert.Equal(t, first.Blockers, again.Blockers)
}

func TestBlockRequiresExistingRelationship(t *testing.T) {
	m := newManager(t)

	_, err := m.Block(alice, bob)
	assert.ErrorIs(t, err, friendship.ErrInvalidState)
}

func TestBlockWhilePendingRejected(t *testing.T) {
	m := newManager(t)

	_, err := m.SendRequest(alice, bob)
	require.NoError(t, err)

	_, err = m.Block(bob, alice)
	assert.ErrorIs(t, err, friendship.ErrInvalidState)
}

func TestUnblockSteps(t *testing.T) {
	m := newManager(t)
	befriend(t, m, alice, bob)
	_, err := m.Block(alice, bob)
	require.NoError(t, err)
	_, err = m.Block(bob, alice)
	require.NoError(t, err)

	// One side unblocking steps BLOCK_BOTH down to BLOCK_ONE with the
	// other side still blocking.
	view, err := m.Unblock(alice, bob)
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusBlockOne, view.Status)
	assert.Equal(t, []int64{bob}, view.Blockers)

	// The remaining block clearing restores FRIEND.
	view, err = m.Unblock(bob, alice)
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusFriend, view.Status)
}

func TestUnblockByNonBlocker(t *testing.T) {
	m := newManager(t)
	befriend(t, m, alice, bob)
	_, err := m.Block(alice, bob)
	require.NoError(t, err)

	_, err = m.Unblock(bob, alice)
	assert.ErrorIs(t, err, friendship.ErrInvalidState)
}

func TestDissolveFromAnyState(t *testing.T) {
	m := newManager(t)

	// From PENDING.
	_, err := m.SendRequest(alice, bob)
	require.NoError(t, err)
	require.NoError(t, m.Dissolve(bob, alice))
	view, err := m.Lookup(alice, bob)
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusNone, view.Status)

	// From BLOCK_ONE; no residual uniqueness violation afterwards.
	befriend(t, m, alice, bob)
	_, err = m.Block(alice, bob)
	require.NoError(t, err)
	require.NoError(t, m.Dissolve(alice, bob))
	_, err = m.SendRequest(alice, bob)
	assert.NoError(t, err)
}

func TestDissolveMissing(t *testing.T) {
	m := newManager(t)

	err := m.Dissolve(alice, bob)
	assert.ErrorIs(t, err, friendship.ErrNotFound)
}

func TestListFriends(t *testing.T) {
	m := newManager(t)
	befriend(t, m, alice, bob)
	befriend(t, m, alice, carol)

	entries, total, err := m.ListFriends(alice, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	ids := []int64{entries[0].UserID, entries[1].UserID}
	assert.ElementsMatch(t, []int64{bob, carol}, ids)

	count, err := m.CountFriends(alice)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestListFriendsExcludesBlockedPairs(t *testing.T) {
	m := newManager(t)
	befriend(t, m, alice, bob)
	befriend(t, m, alice, carol)
	_, err := m.Block(alice, bob)
	require.NoError(t, err)

	// Neither the blocker nor the blocked sees the pair.
	entries, total, err := m.ListFriends(alice, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, carol, entries[0].UserID)

	_, total, err = m.ListFriends(bob, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestListPendingRequests(t *testing.T) {
	m := newManager(t)
	_, err := m.SendRequest(bob, alice)
	require.NoError(t, err)
	_, err = m.SendRequest(carol, alice)
	require.NoError(t, err)

	senders, total, err := m.ListPendingRequests(alice, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []int64{bob, carol}, senders) // oldest first

	// The senders have no pending list; requests are addressed to alice.
	_, total, err = m.ListPendingRequests(bob, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestFriendAndBlockedIDs(t *testing.T) {
	m := newManager(t)
	befriend(t, m, alice, bob)
	befriend(t, m, alice, carol)
	_, err := m.Block(alice, carol)
	require.NoError(t, err)

	friends, blocked, err := m.FriendAndBlockedIDs(alice)
	require.NoError(t, err)
	assert.Equal(t, []int64{bob}, friends)
	assert.Equal(t, []int64{carol}, blocked)

	// Carol's view: no friends, no outgoing blocks.
	friends, blocked, err = m.FriendAndBlockedIDs(carol)
	require.NoError(t, err)
	assert.Empty(t, friends)
	assert.Empty(t, blocked)
}

func TestCanViewMatrix(t *testing.T) {
	m := newManager(t)
	befriend(t, m, alice, bob)

	// Owner always sees their own content.
	assert.NoError(t, m.CanView(alice, alice, friendship.VisibilityOff))

	// PUBLIC: anyone.
	assert.NoError(t, m.CanView(carol, alice, friendship.VisibilityPublic))

	// FRIENDS: only mutual friends.
	assert.NoError(t, m.CanView(bob, alice, friendship.VisibilityFriends))
	assert.ErrorIs(t, m.CanView(carol, alice, friendship.VisibilityFriends), friendship.ErrForbidden)

	// A pending request is not friendship.
	_, err := m.SendRequest(carol, alice)
	require.NoError(t, err)
	assert.ErrorIs(t, m.CanView(carol, alice, friendship.VisibilityFriends), friendship.ErrForbidden)

	// A block in either direction revokes FRIENDS access.
	_, err = m.Block(alice, bob)
	require.NoError(t, err)
	assert.ErrorIs(t, m.CanView(bob, alice, friendship.VisibilityFriends), friendship.ErrForbidden)

	// OFF: nobody but the owner.
	assert.ErrorIs(t, m.CanView(bob, alice, friendship.VisibilityOff), friendship.ErrForbidden)
}

func TestParseTransition(t *testing.T) {
	cases := map[string]friendship.Transition{
		"requestCancel": friendship.TransitionCancel,
		"friend":        friendship.TransitionAccept,
		"block":         friendship.TransitionBlock,
		"unblock":       friendship.TransitionUnblock,
	}
	for raw, want := range cases {
		got, err := friendship.ParseTransition(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	_, err := friendship.ParseTransition("poke")
	assert.ErrorIs(t, err, friendship.ErrInvalidArgument)
	_, err = friendship.ParseTransition("")
	assert.ErrorIs(t, err, friendship.ErrInvalidArgument)
}

func TestConcurrentSendRequestSinglePair(t *testing.T) {
	m := newManager(t)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Alternate directions; both target the same pair key.
			if i%2 == 0 {
				_, errs[i] = m.SendRequest(alice, bob)
			} else {
				_, errs[i] = m.SendRequest(bob, alice)
			}
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, friendship.ErrConflict)
		}
	}
	assert.Equal(t, 1, succeeded)

	view, err := m.Lookup(alice, bob)
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusPending, view.Status)
}
