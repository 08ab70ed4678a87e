package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/daylogapp/server/api/rest"
	"github.com/daylogapp/server/audit"
	"github.com/daylogapp/server/cache"
	"github.com/daylogapp/server/config"
	"github.com/daylogapp/server/friendship"
	mw "github.com/daylogapp/server/middleware"
	"github.com/daylogapp/server/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testContent = config.ContentConfig{DefaultPageSize: 20, MaxPageSize: 100}

// apiSetup is the wired-up server under test plus the handles the tests
// poke at directly.
type apiSetup struct {
	r     *gin.Engine
	db    *gorm.DB
	cache cache.Cache
	audit *audit.Service
}

func newAPISetup(t *testing.T) *apiSetup {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	sec := config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: 72 * time.Hour, BcryptCost: 4}
	logger := zap.NewNop()
	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(nil) })
	friendMgr := friendship.NewManager(friendship.NewStore(db))

	authH := rest.NewAuthHandler(db, c, sec, auditSvc)
	userH := rest.NewUserHandler(db, friendMgr, testContent)
	friendH := rest.NewFriendshipHandler(db, friendMgr, testContent, auditSvc)
	diaryH := rest.NewDiaryHandler(db, testContent)
	goalH := rest.NewGoalHandler(db, testContent)
	todoH := rest.NewTodoHandler(db)
	postH := rest.NewPostHandler(db, friendMgr, testContent)
	commentH := rest.NewCommentHandler(db, friendMgr, testContent)
	quoteH := rest.NewQuoteHandler(db)

	r := gin.New()
	r.POST("/api/auth/register", authH.Register)
	r.POST("/api/auth/login", authH.Login)

	auth := mw.Auth(sec, c)
	g := r.Group("/api", auth)
	g.POST("/auth/logout", authH.Logout)
	g.POST("/auth/refresh", authH.Refresh)

	g.GET("/users/me", userH.Me)
	g.GET("/users/search", userH.Search)
	g.GET("/users/:id", userH.Get)
	g.PUT("/users/:id", userH.Update)
	g.DELETE("/users/:id", userH.Delete)
	r.GET("/api/check-nickname", userH.CheckNickname)
	r.GET("/api/check-email", userH.CheckEmail)
	g.GET("/find-by-email", userH.FindByEmail)

	g.GET("/friendships", friendH.Find)
	g.POST("/friendships", friendH.Create)
	g.PUT("/friendships", friendH.Update)
	g.DELETE("/friendships", friendH.Delete)
	g.GET("/friendships/friend", friendH.ListFriends)
	g.GET("/friendships/request", friendH.ListRequests)
	g.GET("/friendships/friendandblock", friendH.FriendAndBlock)

	g.GET("/diaries", diaryH.List)
	g.POST("/diaries", diaryH.Create)
	g.GET("/diaries/search", diaryH.Search)
	g.GET("/diaries/remember", diaryH.Remembered)
	g.GET("/diaries/tags", diaryH.Tags)
	g.GET("/diaries/sleep", diaryH.Sleep)
	g.PUT("/diaries/:id", diaryH.Update)
	g.DELETE("/diaries/:id", diaryH.Delete)

	g.GET("/goals", goalH.List)
	g.POST("/goals", goalH.Create)
	g.GET("/goals/search", goalH.Search)
	g.PUT("/goals/:id", goalH.Update)
	g.DELETE("/goals/:id", goalH.Delete)

	g.GET("/todos", todoH.List)
	g.POST("/todos", todoH.Create)
	g.PUT("/todos/priority/:date", todoH.Reorder)
	g.PUT("/todos/:id", todoH.Update)
	g.DELETE("/todos/:id", todoH.Delete)

	g.GET("/posts", postH.List)
	g.POST("/posts", postH.Create)
	g.GET("/posts/on-goal", postH.OnGoal)
	g.GET("/posts/:id", postH.Get)
	g.PUT("/posts/:id", postH.Update)
	g.DELETE("/posts/:id", postH.Delete)
	g.PUT("/posts/:id/like", postH.Like)
	g.GET("/posts/:id/likeship", postH.Likeship)

	g.GET("/comments", commentH.List)
	g.POST("/comments", commentH.Create)
	g.PUT("/comments/:id", commentH.Update)
	g.DELETE("/comments/:id", commentH.Delete)

	g.GET("/quotes", quoteH.Daily)
	g.GET("/today-picks", quoteH.ListPicks)
	g.POST("/today-picks", quoteH.CreatePick)

	return &apiSetup{r: r, db: db, cache: c, audit: auditSvc}
}

// register creates a user through the real endpoint and returns its id
// and session token.
func (s *apiSetup) register(t *testing.T, name string) (int64, string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": name,
		"email":    name + "@example.com",
		"nickname": name,
		"password": "secret1234",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID int64 `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.User.ID, resp.Token
}

// login opens a fresh session for an already-registered user.
func (s *apiSetup) login(t *testing.T, name string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"identifier": name,
		"password":   "secret1234",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

// do performs one request against the router; body may be nil.
func (s *apiSetup) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
