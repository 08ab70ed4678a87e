package model

import "time"

// Friendship statuses. A pair with no row is implicitly "NONE".
const (
	FriendshipPending   = "PENDING"
	FriendshipFriend    = "FRIEND"
	FriendshipBlockOne  = "BLOCK_ONE"
	FriendshipBlockBoth = "BLOCK_BOTH"
)

// Friendship is the single row owned jointly by a pair of users.
//
// SenderID is whoever initiated the request; the order only matters while
// the row is PENDING (it resolves who may accept). PairLow/PairHigh hold the
// normalized unordered pair key; the unique index on them guarantees at most
// one row per pair even under concurrent creates from both directions.
type Friendship struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   int64  `gorm:"not null;index:idx_friendship_sender" json:"sender_id"`
	ReceiverID int64  `gorm:"not null;index:idx_friendship_receiver" json:"receiver_id"`
	PairLow    int64  `gorm:"not null;uniqueIndex:idx_friendship_pair,priority:1" json:"-"`
	PairHigh   int64  `gorm:"not null;uniqueIndex:idx_friendship_pair,priority:2" json:"-"`
	Status     string `gorm:"size:12;not null" json:"status"`

	// The blockers set: BlockedBySender means the sender has blocked the
	// receiver, and vice versa. Both false unless status is BLOCK_*.
	BlockedBySender   bool `gorm:"default:false" json:"-"`
	BlockedByReceiver bool `gorm:"default:false" json:"-"`

	CreatedAt time.Time `gorm:"index:idx_friendship_created;autoCreateTime" json:"created_at"`
}

// PairKey normalizes two user IDs into the unordered (low, high) key so that
// (a,b) and (b,a) resolve to the same row.
func PairKey(a, b int64) (low, high int64) {
	if a < b {
		return a, b
	}
	return b, a
}

// OtherID returns the participant that is not userID.
func (f *Friendship) OtherID(userID int64) int64 {
	if f.SenderID == userID {
		return f.ReceiverID
	}
	return f.SenderID
}

// Involves reports whether userID is one of the two participants.
func (f *Friendship) Involves(userID int64) bool {
	return f.SenderID == userID || f.ReceiverID == userID
}

// IsBlocker reports whether userID is in the blockers set.
func (f *Friendship) IsBlocker(userID int64) bool {
	return (f.SenderID == userID && f.BlockedBySender) ||
		(f.ReceiverID == userID && f.BlockedByReceiver)
}

// Blockers returns the user IDs that have blocked the other party.
func (f *Friendship) Blockers() []int64 {
	var ids []int64
	if f.BlockedBySender {
		ids = append(ids, f.SenderID)
	}
	if f.BlockedByReceiver {
		ids = append(ids, f.ReceiverID)
	}
	return ids
}

// BlockedIDs returns the user IDs that are targets of a block, the
// complement of Blockers within the pair.
func (f *Friendship) BlockedIDs() []int64 {
	var ids []int64
	if f.BlockedBySender {
		ids = append(ids, f.ReceiverID)
	}
	if f.BlockedByReceiver {
		ids = append(ids, f.SenderID)
	}
	return ids
}
