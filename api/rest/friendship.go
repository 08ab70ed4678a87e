package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/daylogapp/server/audit"
	"github.com/daylogapp/server/config"
	"github.com/daylogapp/server/friendship"
	mw "github.com/daylogapp/server/middleware"
	"github.com/daylogapp/server/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// FriendshipHandler exposes the relationship lifecycle over REST. All
// state-machine decisions live in friendship.Manager; this layer only
// parses parameters, maps errors and enriches lists with profiles.
type FriendshipHandler struct {
	db      *gorm.DB
	manager *friendship.Manager
	content config.ContentConfig
	audit   *audit.Service
}

// NewFriendshipHandler creates a new FriendshipHandler.
func NewFriendshipHandler(db *gorm.DB, m *friendship.Manager, content config.ContentConfig, a *audit.Service) *FriendshipHandler {
	return &FriendshipHandler{db: db, manager: m, content: content, audit: a}
}

func friendIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Query("friendId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid friendId"})
		return 0, false
	}
	return id, true
}

// Find handles GET /api/friendships?friendId=. A pair with no row is a
// normal NONE result, not a 404.
func (h *FriendshipHandler) Find(c *gin.Context) {
	callerID := mw.GetUserID(c)
	friendID, ok := friendIDParam(c)
	if !ok {
		return
	}
	view, err := h.manager.Lookup(callerID, friendID)
	if err != nil {
		abortRelationship(c, err, "lookup failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"friendship": view})
}

// Create handles POST /api/friendships?friendId= — send a friend request.
func (h *FriendshipHandler) Create(c *gin.Context) {
	callerID := mw.GetUserID(c)
	friendID, ok := friendIDParam(c)
	if !ok {
		return
	}

	// The target must exist; a dangling request row would never resolve.
	var count int64
	if err := h.db.Model(&model.User{}).Where("id = ?", friendID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	view, err := h.manager.SendRequest(callerID, friendID)
	if err != nil {
		abortRelationship(c, err, "request failed")
		return
	}
	h.logTransition(c, callerID, friendID, "friendship.request", view)
	c.JSON(http.StatusCreated, gin.H{
		"message":    "request sent",
		"friendship": view,
	})
}

// Update handles PUT /api/friendships?friendId=&status= dispatching the
// requested transition (requestCancel | friend | block | unblock).
func (h *FriendshipHandler) Update(c *gin.Context) {
	callerID := mw.GetUserID(c)
	friendID, ok := friendIDParam(c)
	if !ok {
		return
	}
	transition, err := friendship.ParseTransition(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status value"})
		return
	}

	view, err := h.manager.Apply(callerID, friendID, transition)
	if err != nil {
		abortRelationship(c, err, "transition failed")
		return
	}
	h.logTransition(c, callerID, friendID, "friendship."+c.Query("status"), view)
	c.JSON(http.StatusOK, gin.H{
		"message":    "updated",
		"friendship": view,
	})
}

// Delete handles DELETE /api/friendships?friendId= — dissolve in any state.
func (h *FriendshipHandler) Delete(c *gin.Context) {
	callerID := mw.GetUserID(c)
	friendID, ok := friendIDParam(c)
	if !ok {
		return
	}
	if err := h.manager.Dissolve(callerID, friendID); err != nil {
		abortRelationship(c, err, "delete failed")
		return
	}
	h.logTransition(c, callerID, friendID, "friendship.dissolve", friendship.NoneView())
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// friendListItem is one enriched friend-list row.
type friendListItem struct {
	User  model.Profile `json:"user"`
	Since string        `json:"since"`
}

// ListFriends handles GET /api/friendships/friend?page=&size=.
func (h *FriendshipHandler) ListFriends(c *gin.Context) {
	callerID := mw.GetUserID(c)
	page, size := pageParams(c, h.content)

	entries, total, err := h.manager.ListFriends(callerID, page, size)
	if err != nil {
		abortRelationship(c, err, "list failed")
		return
	}
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	profiles, err := h.profilesByID(ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	results := make([]friendListItem, 0, len(entries))
	for _, e := range entries {
		p, found := profiles[e.UserID]
		if !found {
			continue // account deleted since the row was written
		}
		results = append(results, friendListItem{
			User:  p,
			Since: e.Since.Format("2006-01-02"),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"results":    results,
		"pagination": newPagination(page, size, total),
	})
}

// ListRequests handles GET /api/friendships/request?page=&size= — pending
// requests addressed to the caller, oldest first.
func (h *FriendshipHandler) ListRequests(c *gin.Context) {
	callerID := mw.GetUserID(c)
	page, size := pageParams(c, h.content)

	senders, total, err := h.manager.ListPendingRequests(callerID, page, size)
	if err != nil {
		abortRelationship(c, err, "list failed")
		return
	}
	profiles, err := h.profilesByID(senders)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	results := make([]model.Profile, 0, len(senders))
	for _, id := range senders {
		if p, found := profiles[id]; found {
			results = append(results, p)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"results":    results,
		"pagination": newPagination(page, size, total),
	})
}

// friendAndBlockItem tags each row so the picker can render friends and
// blocked users differently.
type friendAndBlockItem struct {
	User   model.Profile `json:"user"`
	Status string        `json:"status"` // FRIEND or BLOCK
}

// FriendAndBlock handles GET /api/friendships/friendandblock?q=&page=&size=
// — one merged list of the caller's friends plus the users the caller has
// blocked, each row tagged FRIEND or BLOCK, optionally filtered by a
// case-insensitive nickname substring. Only the caller's own outgoing
// blocks appear; being blocked by someone else surfaces nothing.
func (h *FriendshipHandler) FriendAndBlock(c *gin.Context) {
	callerID := mw.GetUserID(c)
	q := strings.TrimSpace(c.Query("q"))
	page, size := pageParams(c, h.content)

	friendIDs, blockedIDs, err := h.manager.FriendAndBlockedIDs(callerID)
	if err != nil {
		abortRelationship(c, err, "list failed")
		return
	}

	load := func(ids []int64, status string) ([]friendAndBlockItem, error) {
		if len(ids) == 0 {
			return nil, nil
		}
		query := h.db.Where("id IN ?", ids)
		if q != "" {
			like := "%" + escapeLike(strings.ToLower(q)) + "%"
			query = query.Where(`LOWER(nickname) LIKE ? ESCAPE '\'`, like)
		}
		var users []model.User
		if err := query.Order("nickname ASC").Find(&users).Error; err != nil {
			return nil, err
		}
		items := make([]friendAndBlockItem, 0, len(users))
		for i := range users {
			items = append(items, friendAndBlockItem{User: users[i].PublicProfile(), Status: status})
		}
		return items, nil
	}

	friends, err := load(friendIDs, "FRIEND")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	blocked, err := load(blockedIDs, "BLOCK")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	items := append(friends, blocked...)
	total := int64(len(items))
	lo := min((page-1)*size, len(items))
	hi := min(lo+size, len(items))
	if items == nil {
		items = []friendAndBlockItem{}
	}
	c.JSON(http.StatusOK, gin.H{
		"results":    items[lo:hi],
		"pagination": newPagination(page, size, total),
	})
}

func (h *FriendshipHandler) profilesByID(ids []int64) (map[int64]model.Profile, error) {
	out := make(map[int64]model.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []model.User
	if err := h.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].ID] = users[i].PublicProfile()
	}
	return out, nil
}

func (h *FriendshipHandler) logTransition(c *gin.Context, callerID, friendID int64, action string, view friendship.View) {
	h.audit.Log(audit.Entry{
		TraceID:  mw.GetTraceID(c),
		UserID:   &callerID,
		Action:   action,
		Request:  gin.H{"friendId": friendID},
		Response: view,
		IP:       c.ClientIP(),
	})
}
