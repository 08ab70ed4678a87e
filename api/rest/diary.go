package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/daylogapp/server/config"
	mw "github.com/daylogapp/server/middleware"
	"github.com/daylogapp/server/model"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DiaryHandler handles journal entry endpoints. Diaries are private to
// their owner; there is no cross-user read path.
type DiaryHandler struct {
	db      *gorm.DB
	content config.ContentConfig
}

// NewDiaryHandler creates a new DiaryHandler.
func NewDiaryHandler(db *gorm.DB, content config.ContentConfig) *DiaryHandler {
	return &DiaryHandler{db: db, content: content}
}

type diaryRequest struct {
	Date       string   `json:"date" binding:"required"`
	Title      string   `json:"title" binding:"max=100"`
	Body       string   `json:"body"`
	Mood       string   `json:"mood" binding:"max=24"`
	Feelings   []string `json:"feelings"`
	Companions string   `json:"companions" binding:"max=255"`
	StartSleep string   `json:"startSleep" binding:"max=5"`
	EndSleep   string   `json:"endSleep" binding:"max=5"`
	Remember   bool     `json:"remember"`
	PhotoURLs  []string `json:"photos"`
}

// List handles GET /api/diaries?date= or ?month=. A single date returns
// at most one entry; a month returns the full set for the calendar view.
func (h *DiaryHandler) List(c *gin.Context) {
	userID := mw.GetUserID(c)

	if date := c.Query("date"); date != "" {
		if !isISODay(date) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
		var diary model.Diary
		err := h.db.Where("user_id = ? AND date = ?", userID, date).First(&diary).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"diary": nil})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"diary": diary})
		return
	}

	month := c.Query("month")
	if !isISOMonth(month) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date or month required"})
		return
	}
	start, end := monthRange(month)
	var diaries []model.Diary
	err := h.db.Where("user_id = ? AND date >= ? AND date < ?", userID, start, end).
		Order("date ASC").Find(&diaries).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": diaries})
}

// Create handles POST /api/diaries. One entry per user per date.
func (h *DiaryHandler) Create(c *gin.Context) {
	userID := mw.GetUserID(c)
	var req diaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !isISODay(req.Date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
		return
	}

	diary := model.Diary{
		UserID:     userID,
		Date:       req.Date,
		Title:      req.Title,
		Body:       req.Body,
		Mood:       req.Mood,
		Feelings:   toJSONArray(req.Feelings),
		Companions: req.Companions,
		StartSleep: req.StartSleep,
		EndSleep:   req.EndSleep,
		Remember:   req.Remember,
		PhotoURLs:  toJSONArray(req.PhotoURLs),
	}
	if err := h.db.Create(&diary).Error; err != nil {
		if isUniqueViolation(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "entry already exists for this date"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"diary": diary})
}

// Update handles PUT /api/diaries/:id. Date is immutable; edit the entry,
// not which day it belongs to.
func (h *DiaryHandler) Update(c *gin.Context) {
	userID := mw.GetUserID(c)
	diary, ok := h.ownedDiary(c, userID)
	if !ok {
		return
	}

	var req diaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	changes := map[string]interface{}{
		"title":       req.Title,
		"body":        req.Body,
		"mood":        req.Mood,
		"feelings":    toJSONArray(req.Feelings),
		"companions":  req.Companions,
		"start_sleep": req.StartSleep,
		"end_sleep":   req.EndSleep,
		"remember":    req.Remember,
		"photo_urls":  toJSONArray(req.PhotoURLs),
	}
	if err := h.db.Model(diary).Updates(changes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"diary": diary})
}

// Delete handles DELETE /api/diaries/:id. Attached today-picks go with
// the entry.
func (h *DiaryHandler) Delete(c *gin.Context) {
	userID := mw.GetUserID(c)
	diary, ok := h.ownedDiary(c, userID)
	if !ok {
		return
	}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("diary_id = ?", diary.ID).Delete(&model.TodayPick{}).Error; err != nil {
			return err
		}
		return tx.Delete(diary).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "id": diary.ID})
}

// Search handles GET /api/diaries/search?q=&page=&size= over title and body.
func (h *DiaryHandler) Search(c *gin.Context) {
	userID := mw.GetUserID(c)
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}
	page, size := pageParams(c, h.content)

	like := "%" + escapeLike(q) + "%"
	base := h.db.Model(&model.Diary{}).
		Where(`user_id = ? AND (title LIKE ? ESCAPE '\' OR body LIKE ? ESCAPE '\')`, userID, like, like)
	var total int64
	if err := base.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	var diaries []model.Diary
	if err := base.Order("date DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&diaries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results":    diaries,
		"pagination": newPagination(page, size, total),
	})
}

// Remembered handles GET /api/diaries/remember?page=&size= — entries the
// user flagged to revisit, newest first.
func (h *DiaryHandler) Remembered(c *gin.Context) {
	userID := mw.GetUserID(c)
	page, size := pageParams(c, h.content)

	base := h.db.Model(&model.Diary{}).Where("user_id = ? AND remember = ?", userID, true)
	var total int64
	if err := base.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	var diaries []model.Diary
	if err := base.Order("date DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&diaries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results":    diaries,
		"pagination": newPagination(page, size, total),
	})
}

// sleepPoint is one day's sleep window for the monthly chart.
type sleepPoint struct {
	Date       string `json:"date"`
	StartSleep string `json:"startSleep"`
	EndSleep   string `json:"endSleep"`
}

// Sleep handles GET /api/diaries/sleep?month= — the month's sleep windows.
func (h *DiaryHandler) Sleep(c *gin.Context) {
	userID := mw.GetUserID(c)
	month := c.Query("month")
	if !isISOMonth(month) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}
	start, end := monthRange(month)
	var diaries []model.Diary
	err := h.db.Select("date", "start_sleep", "end_sleep").
		Where("user_id = ? AND date >= ? AND date < ? AND start_sleep <> ''", userID, start, end).
		Order("date ASC").Find(&diaries).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	points := make([]sleepPoint, 0, len(diaries))
	for i := range diaries {
		points = append(points, sleepPoint{
			Date:       diaries[i].Date,
			StartSleep: diaries[i].StartSleep,
			EndSleep:   diaries[i].EndSleep,
		})
	}
	c.JSON(http.StatusOK, gin.H{"results": points})
}

// tagCount is one entry of the tag frequency ranking.
type tagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
	Rank  int    `json:"rank"`
}

// Tags handles GET /api/diaries/tags?tag=&date=. ?tag selects which fields
// feed the ranking: WITH counts companions, MOOD counts moods, FEELINGS
// counts feeling tags, ALL counts all three. ?date narrows to a year,
// month, or single day. Ranks are by descending count, ties in first-seen
// order.
func (h *DiaryHandler) Tags(c *gin.Context) {
	userID := mw.GetUserID(c)
	kind := c.Query("tag")
	switch kind {
	case "ALL", "WITH", "MOOD", "FEELINGS":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "tag must be ALL, WITH, MOOD or FEELINGS"})
		return
	}

	q := h.db.Where("user_id = ?", userID)
	if date := c.Query("date"); date != "" {
		start, end, ok := dateRange(date)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use YYYY, YYYY-MM or YYYY-MM-DD"})
			return
		}
		q = q.Where("date >= ? AND date < ?", start, end)
	}
	var diaries []model.Diary
	if err := q.Find(&diaries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	counts := map[string]int{}
	var order []string
	bump := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		if _, seen := counts[tag]; !seen {
			order = append(order, tag)
		}
		counts[tag]++
	}
	for i := range diaries {
		d := &diaries[i]
		if kind == "ALL" || kind == "WITH" {
			if d.Companions != "" {
				for _, companion := range strings.Split(d.Companions, ",") {
					bump(companion)
				}
			}
		}
		if kind == "ALL" || kind == "MOOD" {
			bump(d.Mood)
		}
		if kind == "ALL" || kind == "FEELINGS" {
			var feelings []string
			if len(d.Feelings) > 0 {
				_ = json.Unmarshal(d.Feelings, &feelings)
			}
			for _, feeling := range feelings {
				bump(feeling)
			}
		}
	}

	ranked := make([]tagCount, 0, len(order))
	for _, tag := range order {
		ranked = append(ranked, tagCount{Tag: tag, Count: counts[tag]})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	c.JSON(http.StatusOK, gin.H{"results": ranked})
}

func (h *DiaryHandler) ownedDiary(c *gin.Context, userID int64) (*model.Diary, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	var diary model.Diary
	if err := h.db.First(&diary, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "diary not found"})
		return nil, false
	}
	if diary.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your diary"})
		return nil, false
	}
	return &diary, true
}

func toJSONArray(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return datatypes.JSON(b)
}
