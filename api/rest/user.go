package rest

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/daylogapp/server/config"
	"github.com/daylogapp/server/friendship"
	mw "github.com/daylogapp/server/middleware"
	"github.com/daylogapp/server/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserHandler handles profile endpoints.
type UserHandler struct {
	db      *gorm.DB
	friends *friendship.Manager
	content config.ContentConfig
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB, fm *friendship.Manager, content config.ContentConfig) *UserHandler {
	return &UserHandler{db: db, friends: fm, content: content}
}

// Me handles GET /api/users/me.
func (h *UserHandler) Me(c *gin.Context) {
	userID := mw.GetUserID(c)
	var user model.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	friendCount, err := h.friends.CountFriends(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":        user,
		"friendCount": friendCount,
	})
}

// Get handles GET /api/users/:id. Other users get the public projection;
// a private profile is visible in full only to friends.
func (h *UserHandler) Get(c *gin.Context) {
	callerID := mw.GetUserID(c)
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var user model.User
	if err := h.db.First(&user, targetID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if callerID == targetID {
		c.JSON(http.StatusOK, gin.H{"user": user})
		return
	}

	if user.Private {
		ok, err := h.friends.IsFriend(callerID, targetID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !ok {
			c.JSON(http.StatusOK, gin.H{"user": user.PublicProfile(), "private": true})
			return
		}
	}
	// Full profile minus credentials; PasswordHash is json:"-".
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type updateUserRequest struct {
	Nickname      *string `json:"nickname"`
	Phone         *string `json:"phone"`
	Body          *string `json:"body"`
	PhotoURL      *string `json:"photo"`
	BackgroundURL *string `json:"background"`
	Private       *bool   `json:"private"`
}

// Update handles PUT /api/users/:id. Callers may only edit themselves.
func (h *UserHandler) Update(c *gin.Context) {
	callerID := mw.GetUserID(c)
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if callerID != targetID {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot edit another user"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	changes := map[string]interface{}{}
	if req.Nickname != nil {
		changes["nickname"] = *req.Nickname
	}
	if req.Phone != nil {
		changes["phone"] = *req.Phone
	}
	if req.Body != nil {
		changes["body"] = *req.Body
	}
	if req.PhotoURL != nil {
		changes["photo_url"] = *req.PhotoURL
	}
	if req.BackgroundURL != nil {
		changes["background_url"] = *req.BackgroundURL
	}
	if req.Private != nil {
		changes["private"] = *req.Private
	}
	if len(changes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	if err := h.db.Model(&model.User{}).Where("id = ?", callerID).Updates(changes).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "nickname already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	var user model.User
	if err := h.db.First(&user, callerID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Delete handles DELETE /api/users/:id: account removal. The user's
// relationships and content go with the account.
func (h *UserHandler) Delete(c *gin.Context) {
	callerID := mw.GetUserID(c)
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if callerID != targetID {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot delete another user"})
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("sender_id = ? OR receiver_id = ?", callerID, callerID).
			Delete(&model.Friendship{}).Error; err != nil {
			return err
		}
		for _, m := range []interface{}{
			&model.Diary{}, &model.Goal{}, &model.Todo{},
			&model.Post{}, &model.Comment{},
		} {
			if err := tx.Where("user_id = ?", callerID).Delete(m).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", callerID).Delete(&model.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, callerID).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted", "id": callerID})
}

// Search handles GET /api/users/search?q=&page=&size= matching nickname
// or username by prefix.
func (h *UserHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}
	page, size := pageParams(c, h.content)

	like := escapeLike(q) + "%"
	base := h.db.Model(&model.User{}).
		Where(`nickname LIKE ? ESCAPE '\' OR username LIKE ? ESCAPE '\'`, like, like)
	var total int64
	if err := base.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	var users []model.User
	if err := base.Order("nickname ASC").
		Offset((page - 1) * size).Limit(size).
		Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	results := make([]model.Profile, 0, len(users))
	for i := range users {
		results = append(results, users[i].PublicProfile())
	}
	c.JSON(http.StatusOK, gin.H{
		"results":    results,
		"pagination": newPagination(page, size, total),
	})
}

// CheckNickname handles GET /api/check-nickname?nickname=.
func (h *UserHandler) CheckNickname(c *gin.Context) {
	nickname := strings.TrimSpace(c.Query("nickname"))
	if nickname == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing nickname"})
		return
	}
	var count int64
	if err := h.db.Model(&model.User{}).Where("nickname = ?", nickname).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": count == 0})
}

// CheckEmail handles GET /api/check-email?email=.
func (h *UserHandler) CheckEmail(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email"})
		return
	}
	var count int64
	if err := h.db.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": count == 0})
}

// FindByEmail handles GET /api/find-by-email?email= returning the public
// profile used by the add-friend flow.
func (h *UserHandler) FindByEmail(c *gin.Context) {
	email := strings.ToLower(strings.TrimSpace(c.Query("email")))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email"})
		return
	}
	var user model.User
	err := h.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user.PublicProfile()})
}
