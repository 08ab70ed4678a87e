package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/daylogapp/server/config"
	"github.com/daylogapp/server/friendship"
	mw "github.com/daylogapp/server/middleware"
	"github.com/daylogapp/server/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PostHandler handles goal-update posts: the feed, per-post reads gated by
// the relationship visibility predicate, likes, and the goal timeline.
type PostHandler struct {
	db      *gorm.DB
	friends *friendship.Manager
	content config.ContentConfig
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(db *gorm.DB, fm *friendship.Manager, content config.ContentConfig) *PostHandler {
	return &PostHandler{db: db, friends: fm, content: content}
}

// visibility maps a post's privacy flag onto the shared predicate's
// setting: private posts are friends-only, the rest are public.
func postVisibility(p *model.Post) friendship.Visibility {
	if p.Private {
		return friendship.VisibilityFriends
	}
	return friendship.VisibilityPublic
}

// postItem is one enriched post row.
type postItem struct {
	model.Post
	Author       model.Profile `json:"author"`
	LikeCount    int64         `json:"likeCount"`
	Liked        bool          `json:"liked"`
	CommentCount int64         `json:"commentCount"`
}

// List handles GET /api/posts. mode=feed (default) shows the caller's and
// their friends' posts; mode=mine only the caller's; mode=user&userId=
// another user's posts the caller is allowed to see.
func (h *PostHandler) List(c *gin.Context) {
	callerID := mw.GetUserID(c)
	page, size := pageParams(c, h.content)

	base := h.db.Model(&model.Post{})
	switch c.DefaultQuery("mode", "feed") {
	case "feed":
		friendIDs, err := h.friends.FriendIDs(callerID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		base = base.Where("user_id IN ?", append(friendIDs, callerID))
	case "mine":
		base = base.Where("user_id = ?", callerID)
	case "user":
		ownerID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
		if err != nil || ownerID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid userId"})
			return
		}
		base = base.Where("user_id = ?", ownerID)
		if ownerID != callerID {
			ok, err := h.friends.IsFriend(callerID, ownerID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			if !ok {
				base = base.Where("private = ?", false)
			}
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid mode"})
		return
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	var posts []model.Post
	if err := base.Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	items, err := h.enrich(callerID, posts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results":    items,
		"pagination": newPagination(page, size, total),
	})
}

// Get handles GET /api/posts/:id.
func (h *PostHandler) Get(c *gin.Context) {
	callerID := mw.GetUserID(c)
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	if err := h.friends.CanView(callerID, post.UserID, postVisibility(post)); err != nil {
		abortRelationship(c, err, "not visible")
		return
	}
	items, err := h.enrich(callerID, []model.Post{*post})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": items[0]})
}

type postRequest struct {
	GoalID          int64  `json:"goalId"`
	Body            string `json:"body" binding:"required"`
	PhotoURL        string `json:"photo" binding:"max=255"`
	Private         bool   `json:"private"`
	CommentSettings string `json:"commentSettings"`
}

func validCommentSettings(s string) bool {
	return s == model.SharePublic || s == model.ShareFriends || s == model.ShareOff
}

// Create handles POST /api/posts. A goalId, when given, must reference the
// caller's own goal.
func (h *PostHandler) Create(c *gin.Context) {
	callerID := mw.GetUserID(c)
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CommentSettings == "" {
		req.CommentSettings = model.SharePublic
	}
	if !validCommentSettings(req.CommentSettings) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commentSettings"})
		return
	}
	if req.GoalID != 0 {
		var goal model.Goal
		if err := h.db.First(&goal, req.GoalID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
			return
		}
		if goal.UserID != callerID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your goal"})
			return
		}
	}

	post := model.Post{
		UserID:          callerID,
		GoalID:          req.GoalID,
		Body:            req.Body,
		PhotoURL:        req.PhotoURL,
		Private:         req.Private,
		CommentSettings: req.CommentSettings,
	}
	if err := h.db.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// Update handles PUT /api/posts/:id (owner only).
func (h *PostHandler) Update(c *gin.Context) {
	callerID := mw.GetUserID(c)
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	if post.UserID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your post"})
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.CommentSettings == "" {
		req.CommentSettings = post.CommentSettings
	}
	if !validCommentSettings(req.CommentSettings) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commentSettings"})
		return
	}
	changes := map[string]interface{}{
		"body":             req.Body,
		"photo_url":        req.PhotoURL,
		"private":          req.Private,
		"comment_settings": req.CommentSettings,
	}
	if err := h.db.Model(post).Updates(changes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// Delete handles DELETE /api/posts/:id, removing likes and comments too.
func (h *PostHandler) Delete(c *gin.Context) {
	callerID := mw.GetUserID(c)
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	if post.UserID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your post"})
		return
	}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&model.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "id": post.ID})
}

// Like handles PUT /api/posts/:id/like — a toggle. Liking requires the
// same visibility as reading.
func (h *PostHandler) Like(c *gin.Context) {
	callerID := mw.GetUserID(c)
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	if err := h.friends.CanView(callerID, post.UserID, postVisibility(post)); err != nil {
		abortRelationship(c, err, "not visible")
		return
	}

	var liked bool
	err := h.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", post.ID, callerID).
			Delete(&model.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil // was liked, toggled off
		}
		liked = true
		return tx.Create(&model.PostLike{PostID: post.ID, UserID: callerID}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "like failed"})
		return
	}
	var count int64
	if err := h.db.Model(&model.PostLike{}).Where("post_id = ?", post.ID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "likeCount": count})
}

// likeshipItem is one row of a post's like list: who liked it and the
// caller's relationship with them, so the client can offer follow-up
// actions without extra lookups.
type likeshipItem struct {
	User     model.Profile     `json:"user"`
	Relation friendship.Status `json:"relation"`
}

// Likeship handles GET /api/posts/:id/likeship.
func (h *PostHandler) Likeship(c *gin.Context) {
	callerID := mw.GetUserID(c)
	post, ok := h.loadPost(c)
	if !ok {
		return
	}
	if err := h.friends.CanView(callerID, post.UserID, postVisibility(post)); err != nil {
		abortRelationship(c, err, "not visible")
		return
	}

	var likes []model.PostLike
	if err := h.db.Where("post_id = ?", post.ID).
		Order("created_at DESC").Find(&likes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	ids := make([]int64, 0, len(likes))
	for i := range likes {
		ids = append(ids, likes[i].UserID)
	}
	var users []model.User
	if len(ids) > 0 {
		if err := h.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}
	profiles := make(map[int64]model.Profile, len(users))
	for i := range users {
		profiles[users[i].ID] = users[i].PublicProfile()
	}

	results := make([]likeshipItem, 0, len(likes))
	for i := range likes {
		p, found := profiles[likes[i].UserID]
		if !found {
			continue
		}
		relation := friendship.StatusNone
		if likes[i].UserID != callerID {
			view, err := h.friends.Lookup(callerID, likes[i].UserID)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			relation = view.Status
		}
		results = append(results, likeshipItem{User: p, Relation: relation})
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// OnGoal handles GET /api/posts/on-goal?goalId=&page=&size= — the goal's
// post timeline, oldest first. Visibility follows the goal owner.
func (h *PostHandler) OnGoal(c *gin.Context) {
	callerID := mw.GetUserID(c)
	goalID, err := strconv.ParseInt(c.Query("goalId"), 10, 64)
	if err != nil || goalID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid goalId"})
		return
	}
	var goal model.Goal
	if err := h.db.First(&goal, goalID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
		return
	}
	setting := friendship.VisibilityPublic
	if goal.Private {
		setting = friendship.VisibilityFriends
	}
	if err := h.friends.CanView(callerID, goal.UserID, setting); err != nil {
		abortRelationship(c, err, "not visible")
		return
	}

	page, size := pageParams(c, h.content)
	base := h.db.Model(&model.Post{}).Where("goal_id = ?", goalID)
	if callerID != goal.UserID {
		base = base.Where("private = ?", false)
	}
	var total int64
	if err := base.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	var posts []model.Post
	if err := base.Order("created_at ASC").
		Offset((page - 1) * size).Limit(size).
		Find(&posts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	items, err := h.enrich(callerID, posts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results":    items,
		"pagination": newPagination(page, size, total),
	})
}

func (h *PostHandler) loadPost(c *gin.Context) (*model.Post, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	var post model.Post
	err = h.db.First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, false
	}
	return &post, true
}

func (h *PostHandler) enrich(callerID int64, posts []model.Post) ([]postItem, error) {
	items := make([]postItem, 0, len(posts))
	if len(posts) == 0 {
		return items, nil
	}
	authorIDs := make([]int64, 0, len(posts))
	postIDs := make([]int64, 0, len(posts))
	for i := range posts {
		authorIDs = append(authorIDs, posts[i].UserID)
		postIDs = append(postIDs, posts[i].ID)
	}

	var users []model.User
	if err := h.db.Where("id IN ?", authorIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	authors := make(map[int64]model.Profile, len(users))
	for i := range users {
		authors[users[i].ID] = users[i].PublicProfile()
	}

	var likes []model.PostLike
	if err := h.db.Where("post_id IN ?", postIDs).Find(&likes).Error; err != nil {
		return nil, err
	}
	likeCounts := make(map[int64]int64)
	likedByMe := make(map[int64]bool)
	for i := range likes {
		likeCounts[likes[i].PostID]++
		if likes[i].UserID == callerID {
			likedByMe[likes[i].PostID] = true
		}
	}

	type commentCount struct {
		PostID int64
		Count  int64
	}
	var counts []commentCount
	if err := h.db.Model(&model.Comment{}).
		Select("post_id, count(*) as count").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	commentCounts := make(map[int64]int64, len(counts))
	for i := range counts {
		commentCounts[counts[i].PostID] = counts[i].Count
	}

	for i := range posts {
		items = append(items, postItem{
			Post:         posts[i],
			Author:       authors[posts[i].UserID],
			LikeCount:    likeCounts[posts[i].ID],
			Liked:        likedByMe[posts[i].ID],
			CommentCount: commentCounts[posts[i].ID],
		})
	}
	return items, nil
}
