package rest

import (
	"errors"
	"net/http"
	"strconv"

	mw "github.com/daylogapp/server/middleware"
	"github.com/daylogapp/server/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TodoHandler handles per-day task endpoints. Priority is a dense 0-based
// order inside (user, date): create appends at the end, delete compacts
// the gap, and reorder shifts the rows between the old and new slot.
type TodoHandler struct {
	db *gorm.DB
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(db *gorm.DB) *TodoHandler {
	return &TodoHandler{db: db}
}

// List handles GET /api/todos?date=.
func (h *TodoHandler) List(c *gin.Context) {
	userID := mw.GetUserID(c)
	date := c.Query("date")
	if !isISODay(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}
	var todos []model.Todo
	err := h.db.Where("user_id = ? AND date = ?", userID, date).
		Order("priority ASC").Find(&todos).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": todos})
}

type createTodoRequest struct {
	Date   string `json:"date" binding:"required"`
	Body   string `json:"body" binding:"required,max=255"`
	Public *bool  `json:"public"`
}

// Create handles POST /api/todos, appending at the end of the day's list.
func (h *TodoHandler) Create(c *gin.Context) {
	userID := mw.GetUserID(c)
	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !isISODay(req.Date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}
	public := true
	if req.Public != nil {
		public = *req.Public
	}

	todo := model.Todo{
		UserID: userID,
		Date:   req.Date,
		Body:   req.Body,
		Public: public,
	}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Todo{}).
			Where("user_id = ? AND date = ?", userID, req.Date).
			Count(&count).Error; err != nil {
			return err
		}
		todo.Priority = int(count)
		return tx.Create(&todo).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"todo": todo})
}

type updateTodoRequest struct {
	Body   *string `json:"body"`
	Done   *bool   `json:"done"`
	Public *bool   `json:"public"`
}

// Update handles PUT /api/todos/:id (body, done, public — not priority).
func (h *TodoHandler) Update(c *gin.Context) {
	userID := mw.GetUserID(c)
	todo, ok := h.ownedTodo(c, userID)
	if !ok {
		return
	}
	var req updateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	changes := map[string]interface{}{}
	if req.Body != nil {
		changes["body"] = *req.Body
	}
	if req.Done != nil {
		changes["done"] = *req.Done
	}
	if req.Public != nil {
		changes["public"] = *req.Public
	}
	if len(changes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	if err := h.db.Model(todo).Updates(changes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"todo": todo})
}

// Delete handles DELETE /api/todos/:id, compacting priorities below the
// removed slot.
func (h *TodoHandler) Delete(c *gin.Context) {
	userID := mw.GetUserID(c)
	todo, ok := h.ownedTodo(c, userID)
	if !ok {
		return
	}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(todo).Error; err != nil {
			return err
		}
		return tx.Model(&model.Todo{}).
			Where("user_id = ? AND date = ? AND priority > ?", userID, todo.Date, todo.Priority).
			Update("priority", gorm.Expr("priority - 1")).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "id": todo.ID})
}

type reorderRequest struct {
	TodoID   int64 `json:"todoId" binding:"required"`
	Priority *int  `json:"priority" binding:"required"`
}

// Reorder handles PUT /api/todos/priority/:date, moving one todo to a new
// slot and shifting everything between the old and new position.
func (h *TodoHandler) Reorder(c *gin.Context) {
	userID := mw.GetUserID(c)
	date := c.Param("date")
	if !isISODay(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	target := *req.Priority

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var todo model.Todo
		if err := tx.Where("id = ? AND user_id = ? AND date = ?", req.TodoID, userID, date).
			First(&todo).Error; err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&model.Todo{}).
			Where("user_id = ? AND date = ?", userID, date).
			Count(&count).Error; err != nil {
			return err
		}
		if target < 0 || target >= int(count) {
			return gorm.ErrInvalidValue
		}
		if target == todo.Priority {
			return nil
		}
		if target > todo.Priority {
			// Moving down: rows in (old, new] shift up one.
			if err := tx.Model(&model.Todo{}).
				Where("user_id = ? AND date = ? AND priority > ? AND priority <= ?",
					userID, date, todo.Priority, target).
				Update("priority", gorm.Expr("priority - 1")).Error; err != nil {
				return err
			}
		} else {
			// Moving up: rows in [new, old) shift down one.
			if err := tx.Model(&model.Todo{}).
				Where("user_id = ? AND date = ? AND priority >= ? AND priority < ?",
					userID, date, target, todo.Priority).
				Update("priority", gorm.Expr("priority + 1")).Error; err != nil {
				return err
			}
		}
		return tx.Model(&todo).Update("priority", target).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
		return
	}
	if errors.Is(err, gorm.ErrInvalidValue) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priority out of range"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reorder failed"})
		return
	}

	var todos []model.Todo
	if err := h.db.Where("user_id = ? AND date = ?", userID, date).
		Order("priority ASC").Find(&todos).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": todos})
}

func (h *TodoHandler) ownedTodo(c *gin.Context, userID int64) (*model.Todo, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	var todo model.Todo
	if err := h.db.First(&todo, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
		return nil, false
	}
	if todo.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your todo"})
		return nil, false
	}
	return &todo, true
}
