package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/daylogapp/server/config"
	mw "github.com/daylogapp/server/middleware"
	"github.com/daylogapp/server/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GoalHandler handles goal endpoints.
type GoalHandler struct {
	db      *gorm.DB
	content config.ContentConfig
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(db *gorm.DB, content config.ContentConfig) *GoalHandler {
	return &GoalHandler{db: db, content: content}
}

type goalRequest struct {
	Title     string `json:"title" binding:"required,max=100"`
	Body      string `json:"body"`
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
	Private   bool   `json:"private"`
}

// List handles GET /api/goals?active=&page=&size=. With active=true only
// goals whose window covers ?date= (default today's client-sent date).
func (h *GoalHandler) List(c *gin.Context) {
	userID := mw.GetUserID(c)
	page, size := pageParams(c, h.content)

	base := h.db.Model(&model.Goal{}).Where("user_id = ?", userID)
	if c.Query("active") == "true" {
		date := c.Query("date")
		if !isISODay(date) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "active filter requires date"})
			return
		}
		base = base.Where("start_date <= ? AND end_date >= ?", date, date)
	}
	var total int64
	if err := base.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	var goals []model.Goal
	if err := base.Order("start_date DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&goals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results":    goals,
		"pagination": newPagination(page, size, total),
	})
}

// Create handles POST /api/goals.
func (h *GoalHandler) Create(c *gin.Context) {
	userID := mw.GetUserID(c)
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !isISODay(req.StartDate) || !isISODay(req.EndDate) || req.StartDate > req.EndDate {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date window"})
		return
	}
	goal := model.Goal{
		UserID:    userID,
		Title:     req.Title,
		Body:      req.Body,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Private:   req.Private,
	}
	if err := h.db.Create(&goal).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"goal": goal})
}

// Update handles PUT /api/goals/:id.
func (h *GoalHandler) Update(c *gin.Context) {
	userID := mw.GetUserID(c)
	goal, ok := h.ownedGoal(c, userID)
	if !ok {
		return
	}
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !isISODay(req.StartDate) || !isISODay(req.EndDate) || req.StartDate > req.EndDate {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date window"})
		return
	}
	changes := map[string]interface{}{
		"title":      req.Title,
		"body":       req.Body,
		"start_date": req.StartDate,
		"end_date":   req.EndDate,
		"private":    req.Private,
	}
	if err := h.db.Model(goal).Updates(changes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// Delete handles DELETE /api/goals/:id. Posts on the goal stay; they keep
// their own visibility and lose only the goal linkage.
func (h *GoalHandler) Delete(c *gin.Context) {
	userID := mw.GetUserID(c)
	goal, ok := h.ownedGoal(c, userID)
	if !ok {
		return
	}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Post{}).Where("goal_id = ?", goal.ID).
			Update("goal_id", 0).Error; err != nil {
			return err
		}
		return tx.Delete(goal).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "id": goal.ID})
}

// goalSearchItem is one deduped title in the public goal search, with the
// number of public posts written against any goal of that title.
type goalSearchItem struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	PostsCount int64  `json:"postsCount"`
}

// Search handles GET /api/goals/search?q=&page=&size=. The search is public:
// it scans every user's non-private goals, dedupes by title (keeping the
// earliest goal id), and counts the public posts attached to each title so
// the app can show how popular a goal is.
func (h *GoalHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}
	page, size := pageParams(c, h.content)

	like := "%" + escapeLike(strings.ToLower(q)) + "%"
	var goals []model.Goal
	if err := h.db.Where(`private = ? AND LOWER(title) LIKE ? ESCAPE '\'`, false, like).
		Order("id ASC").Find(&goals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	seen := map[string]bool{}
	items := make([]goalSearchItem, 0, len(goals))
	for i := range goals {
		if seen[goals[i].Title] {
			continue
		}
		seen[goals[i].Title] = true
		items = append(items, goalSearchItem{ID: goals[i].ID, Title: goals[i].Title})
	}

	total := int64(len(items))
	lo := (page - 1) * size
	if lo > len(items) {
		lo = len(items)
	}
	hi := min(lo+size, len(items))
	pageItems := items[lo:hi]
	for i := range pageItems {
		err := h.db.Model(&model.Post{}).
			Joins("JOIN goals ON goals.id = posts.goal_id").
			Where("goals.title = ? AND posts.private = ?", pageItems[i].Title, false).
			Count(&pageItems[i].PostsCount).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"results":    pageItems,
		"pagination": newPagination(page, size, total),
	})
}

func (h *GoalHandler) ownedGoal(c *gin.Context, userID int64) (*model.Goal, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	var goal model.Goal
	if err := h.db.First(&goal, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
		return nil, false
	}
	if goal.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your goal"})
		return nil, false
	}
	return &goal, true
}
