package rest

import (
	"net/http"
	"strconv"
	"time"

	mw "github.com/daylogapp/server/middleware"
	"github.com/daylogapp/server/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// QuoteHandler serves the home-screen quote rotation and today-pick
// highlights.
type QuoteHandler struct {
	db *gorm.DB
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(db *gorm.DB) *QuoteHandler {
	return &QuoteHandler{db: db}
}

// Daily handles GET /api/quotes — the quote of the day. The pick rotates
// deterministically by day so every client sees the same quote.
func (h *QuoteHandler) Daily(c *gin.Context) {
	var count int64
	if err := h.db.Model(&model.Quote{}).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusOK, gin.H{"quote": nil})
		return
	}
	day := time.Now().UTC().Unix() / 86400
	offset := int(day % count)

	var quote model.Quote
	if err := h.db.Order("id ASC").Offset(offset).First(&quote).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

type todayPickRequest struct {
	DiaryID  int64  `json:"diaryId" binding:"required"`
	Body     string `json:"body" binding:"max=255"`
	ImageURL string `json:"image" binding:"required,max=255"`
}

// CreatePick handles POST /api/today-picks, attaching a highlight photo
// to one of the caller's diary entries.
func (h *QuoteHandler) CreatePick(c *gin.Context) {
	userID := mw.GetUserID(c)
	var req todayPickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var diary model.Diary
	if err := h.db.First(&diary, req.DiaryID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "diary not found"})
		return
	}
	if diary.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your diary"})
		return
	}

	pick := model.TodayPick{
		DiaryID:  diary.ID,
		Date:     diary.Date,
		Body:     req.Body,
		ImageURL: req.ImageURL,
	}
	if err := h.db.Create(&pick).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"todayPick": pick})
}

// ListPicks handles GET /api/today-picks?diaryId= — the highlights on one
// of the caller's entries.
func (h *QuoteHandler) ListPicks(c *gin.Context) {
	userID := mw.GetUserID(c)
	diaryID, err := strconv.ParseInt(c.Query("diaryId"), 10, 64)
	if err != nil || diaryID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid diaryId"})
		return
	}
	var diary model.Diary
	if err := h.db.First(&diary, diaryID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "diary not found"})
		return
	}
	if diary.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your diary"})
		return
	}
	var picks []model.TodayPick
	if err := h.db.Where("diary_id = ?", diaryID).
		Order("created_at ASC").Find(&picks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": picks})
}
