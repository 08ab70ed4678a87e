package friendship

import (
	"errors"
	"strings"

	"github.com/daylogapp/server/model"
	"gorm.io/gorm"
)

// Store is the narrow persistence capability the Manager needs. All pair
// reads go through the normalized unordered key, and every mutation is a
// single conditional write so concurrent transitions cannot interleave.
type Store interface {
	// FindByPair returns the row for the unordered pair {a,b}, or ErrNotFound.
	FindByPair(a, b int64) (*model.Friendship, error)
	// Create inserts a new row; a concurrent or pre-existing row for the
	// same pair surfaces as ErrConflict via the pair unique index.
	Create(f *model.Friendship) error
	// UpdateStatus applies changes to the row only if its status still
	// equals expect (compare-and-swap); returns ErrConflict when the row
	// moved under the caller.
	UpdateStatus(id int64, expect string, changes map[string]interface{}) error
	// Delete removes the row. A non-empty expect makes the delete
	// conditional on the status still matching; ErrConflict otherwise.
	Delete(id int64, expect string) error

	// ListVisible returns the rows surfaced in a user's friend list:
	// FRIEND rows only. Any block, one-sided or mutual, removes the pair
	// from both lists. Ordered by created_at descending.
	ListVisible(userID int64, offset, limit int) ([]model.Friendship, int64, error)
	// ListPending returns PENDING rows addressed to the user, oldest first.
	ListPending(userID int64, offset, limit int) ([]model.Friendship, int64, error)
	// CountVisible counts what ListVisible would return.
	CountVisible(userID int64) (int64, error)
	// FriendIDs returns the other party of every FRIEND row involving the user.
	FriendIDs(userID int64) ([]int64, error)
	// OutgoingBlockIDs returns users the given user has blocked.
	OutgoingBlockIDs(userID int64) ([]int64, error)
}

type gormStore struct {
	db *gorm.DB
}

// NewStore returns a gorm-backed Store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) FindByPair(a, b int64) (*model.Friendship, error) {
	low, high := model.PairKey(a, b)
	var f model.Friendship
	err := s.db.Where("pair_low = ? AND pair_high = ?", low, high).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *gormStore) Create(f *model.Friendship) error {
	f.PairLow, f.PairHigh = model.PairKey(f.SenderID, f.ReceiverID)
	if err := s.db.Create(f).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *gormStore) UpdateStatus(id int64, expect string, changes map[string]interface{}) error {
	res := s.db.Model(&model.Friendship{}).
		Where("id = ? AND status = ?", id, expect).
		Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *gormStore) Delete(id int64, expect string) error {
	q := s.db.Where("id = ?", id)
	if expect != "" {
		q = q.Where("status = ?", expect)
	}
	res := q.Delete(&model.Friendship{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// visibleScope selects the user's FRIEND rows. Blocked pairs, in either
// direction, never show in a friend list.
func (s *gormStore) visibleScope(userID int64) *gorm.DB {
	return s.db.Model(&model.Friendship{}).
		Where("(sender_id = ? OR receiver_id = ?) AND status = ?",
			userID, userID, model.FriendshipFriend)
}

func (s *gormStore) ListVisible(userID int64, offset, limit int) ([]model.Friendship, int64, error) {
	var total int64
	if err := s.visibleScope(userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.Friendship
	err := s.visibleScope(userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	return rows, total, err
}

func (s *gormStore) CountVisible(userID int64) (int64, error) {
	var total int64
	err := s.visibleScope(userID).Count(&total).Error
	return total, err
}

func (s *gormStore) ListPending(userID int64, offset, limit int) ([]model.Friendship, int64, error) {
	q := s.db.Model(&model.Friendship{}).
		Where("receiver_id = ? AND status = ?", userID, model.FriendshipPending)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.Friendship
	err := q.Order("created_at ASC").Offset(offset).Limit(limit).Find(&rows).Error
	return rows, total, err
}

func (s *gormStore) FriendIDs(userID int64) ([]int64, error) {
	var rows []model.Friendship
	err := s.db.
		Where("(sender_id = ? OR receiver_id = ?) AND status = ?",
			userID, userID, model.FriendshipFriend).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].OtherID(userID))
	}
	return ids, nil
}

func (s *gormStore) OutgoingBlockIDs(userID int64) ([]int64, error) {
	var rows []model.Friendship
	err := s.db.
		Where("(sender_id = ? AND blocked_by_sender = ?) OR (receiver_id = ? AND blocked_by_receiver = ?)",
			userID, true, userID, true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].OtherID(userID))
	}
	return ids, nil
}

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
