package friendship

import (
	"time"

	"github.com/daylogapp/server/model"
)

// Status is the relationship state between two users. StatusNone is the
// implicit state when no row exists; it is a valid lookup result, not an
// error.
type Status string

const (
	StatusNone      Status = "NONE"
	StatusPending   Status = Status(model.FriendshipPending)
	StatusFriend    Status = Status(model.FriendshipFriend)
	StatusBlockOne  Status = Status(model.FriendshipBlockOne)
	StatusBlockBoth Status = Status(model.FriendshipBlockBoth)
)

// View is the tagged result of a lookup or transition. Which fields are
// meaningful depends on Status: Pending/Friend carry sender and receiver,
// Block* carry the blockers/blocked sets, None carries nothing.
type View struct {
	ID        int64     `json:"id,omitempty"`
	Status    Status    `json:"status"`
	SenderID  int64     `json:"sender_id,omitempty"`
	ReceiverID int64    `json:"receiver_id,omitempty"`
	Blockers  []int64   `json:"blockers,omitempty"`
	Blocked   []int64   `json:"blocked,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// NoneView is the lookup result for a pair with no relationship row.
func NoneView() View {
	return View{Status: StatusNone}
}

func viewOf(f *model.Friendship) View {
	v := View{
		ID:        f.ID,
		Status:    Status(f.Status),
		CreatedAt: f.CreatedAt,
	}
	switch f.Status {
	case model.FriendshipPending, model.FriendshipFriend:
		v.SenderID = f.SenderID
		v.ReceiverID = f.ReceiverID
	case model.FriendshipBlockOne, model.FriendshipBlockBoth:
		v.Blockers = f.Blockers()
		v.Blocked = f.BlockedIDs()
	}
	return v
}

// Transition selects one of the relationship mutations dispatched by
// PUT /friendships. Unknown wire values parse to an ErrInvalidArgument
// instead of silently falling through.
type Transition int

const (
	TransitionCancel Transition = iota + 1
	TransitionAccept
	TransitionBlock
	TransitionUnblock
)

// ParseTransition maps the wire "status" query value to a Transition.
func ParseTransition(s string) (Transition, error) {
	switch s {
	case "requestCancel":
		return TransitionCancel, nil
	case "friend":
		return TransitionAccept, nil
	case "block":
		return TransitionBlock, nil
	case "unblock":
		return TransitionUnblock, nil
	default:
		return 0, ErrInvalidArgument
	}
}

// Visibility is a content owner's sharing setting.
type Visibility string

const (
	VisibilityPublic  Visibility = model.SharePublic
	VisibilityFriends Visibility = model.ShareFriends
	VisibilityOff     Visibility = model.ShareOff
)
