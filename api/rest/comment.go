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

// CommentHandler handles replies on posts. Reading and writing comments
// follow the post's commentSettings through the visibility predicate.
type CommentHandler struct {
	db      *gorm.DB
	friends *friendship.Manager
	content config.ContentConfig
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(db *gorm.DB, fm *friendship.Manager, content config.ContentConfig) *CommentHandler {
	return &CommentHandler{db: db, friends: fm, content: content}
}

// List handles GET /api/comments?postId=&page=&size=, oldest first.
func (h *CommentHandler) List(c *gin.Context) {
	callerID := mw.GetUserID(c)
	post, ok := h.loadPost(c, c.Query("postId"))
	if !ok {
		return
	}
	if err := h.friends.CanView(callerID, post.UserID, friendship.Visibility(post.CommentSettings)); err != nil {
		abortRelationship(c, err, "comments not visible")
		return
	}

	page, size := pageParams(c, h.content)
	base := h.db.Model(&model.Comment{}).Where("post_id = ?", post.ID)
	var total int64
	if err := base.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	var comments []model.Comment
	if err := base.Order("created_at ASC").
		Offset((page - 1) * size).Limit(size).
		Find(&comments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	authorIDs := make([]int64, 0, len(comments))
	for i := range comments {
		authorIDs = append(authorIDs, comments[i].UserID)
	}
	authors := map[int64]model.Profile{}
	if len(authorIDs) > 0 {
		var users []model.User
		if err := h.db.Where("id IN ?", authorIDs).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		for i := range users {
			authors[users[i].ID] = users[i].PublicProfile()
		}
	}

	type commentItem struct {
		model.Comment
		Author model.Profile `json:"author"`
	}
	results := make([]commentItem, 0, len(comments))
	for i := range comments {
		results = append(results, commentItem{
			Comment: comments[i],
			Author:  authors[comments[i].UserID],
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"results":    results,
		"pagination": newPagination(page, size, total),
	})
}

type commentRequest struct {
	PostID int64  `json:"postId" binding:"required"`
	Body   string `json:"body" binding:"required,max=1000"`
}

// Create handles POST /api/comments.
func (h *CommentHandler) Create(c *gin.Context) {
	callerID := mw.GetUserID(c)
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	post, ok := h.loadPost(c, strconv.FormatInt(req.PostID, 10))
	if !ok {
		return
	}
	if err := h.friends.CanView(callerID, post.UserID, friendship.Visibility(post.CommentSettings)); err != nil {
		abortRelationship(c, err, "commenting not allowed")
		return
	}

	comment := model.Comment{
		UserID: callerID,
		PostID: post.ID,
		Body:   req.Body,
	}
	if err := h.db.Create(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

type updateCommentRequest struct {
	Body string `json:"body" binding:"required,max=1000"`
}

// Update handles PUT /api/comments/:id (author only).
func (h *CommentHandler) Update(c *gin.Context) {
	callerID := mw.GetUserID(c)
	comment, ok := h.loadComment(c)
	if !ok {
		return
	}
	if comment.UserID != callerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your comment"})
		return
	}
	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.db.Model(comment).Update("body", req.Body).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

// Delete handles DELETE /api/comments/:id. Allowed for the comment's
// author and for the owner of the post it sits on.
func (h *CommentHandler) Delete(c *gin.Context) {
	callerID := mw.GetUserID(c)
	comment, ok := h.loadComment(c)
	if !ok {
		return
	}
	if comment.UserID != callerID {
		var post model.Post
		if err := h.db.First(&post, comment.PostID).Error; err != nil || post.UserID != callerID {
			c.JSON(http.StatusForbidden, gin.H{"error": "not your comment"})
			return
		}
	}
	if err := h.db.Delete(comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "id": comment.ID})
}

func (h *CommentHandler) loadPost(c *gin.Context, rawID string) (*model.Post, bool) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid postId"})
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

func (h *CommentHandler) loadComment(c *gin.Context) (*model.Comment, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	var comment model.Comment
	if err := h.db.First(&comment, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
		return nil, false
	}
	return &comment, true
}
