package main

import (
	"fmt"
	"log"
	"os"
	"time"

	apirest "github.com/daylogapp/server/api/rest"
	"github.com/daylogapp/server/audit"
	"github.com/daylogapp/server/cache"
	"github.com/daylogapp/server/config"
	dbadapter "github.com/daylogapp/server/db"
	"github.com/daylogapp/server/friendship"
	mw "github.com/daylogapp/server/middleware"
	"github.com/daylogapp/server/model"
	"github.com/daylogapp/server/scheduler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Security.JWTSecret == "" {
		log.Fatal("security.jwt_secret must be set")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(nil)

	// ---- Cache ----
	c, err := cache.New(cfg.Cache)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Relationship manager ----
	friendMgr := friendship.NewManager(friendship.NewStore(db))

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	sched.AddTicker("audit_purge", cfg.Audit.PurgeInterval, func() {
		auditSvc.Purge(time.Duration(cfg.Audit.RetentionDays) * 24 * time.Hour)
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security, auditSvc)
	userH := apirest.NewUserHandler(db, friendMgr, cfg.Content)
	friendH := apirest.NewFriendshipHandler(db, friendMgr, cfg.Content, auditSvc)
	diaryH := apirest.NewDiaryHandler(db, cfg.Content)
	goalH := apirest.NewGoalHandler(db, cfg.Content)
	todoH := apirest.NewTodoHandler(db)
	postH := apirest.NewPostHandler(db, friendMgr, cfg.Content)
	commentH := apirest.NewCommentHandler(db, friendMgr, cfg.Content)
	quoteH := apirest.NewQuoteHandler(db)

	auth := mw.Auth(cfg.Security, c)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/register", authH.Register)
		authG.POST("/login", authH.Login)
		authG.POST("/logout", auth, authH.Logout)
		authG.POST("/refresh", auth, authH.Refresh)

		usersG := api.Group("/users")
		usersG.Use(auth)
		usersG.GET("/me", userH.Me)
		usersG.GET("/search", userH.Search)
		usersG.GET("/:id", userH.Get)
		usersG.PUT("/:id", userH.Update)
		usersG.DELETE("/:id", userH.Delete)

		api.GET("/check-nickname", userH.CheckNickname)
		api.GET("/check-email", userH.CheckEmail)
		api.GET("/find-by-email", auth, userH.FindByEmail)

		friendsG := api.Group("/friendships")
		friendsG.Use(auth)
		friendsG.GET("", friendH.Find)
		friendsG.POST("", friendH.Create)
		friendsG.PUT("", friendH.Update)
		friendsG.DELETE("", friendH.Delete)
		friendsG.GET("/friend", friendH.ListFriends)
		friendsG.GET("/request", friendH.ListRequests)
		friendsG.GET("/friendandblock", friendH.FriendAndBlock)

		diariesG := api.Group("/diaries")
		diariesG.Use(auth)
		diariesG.GET("", diaryH.List)
		diariesG.POST("", diaryH.Create)
		diariesG.GET("/search", diaryH.Search)
		diariesG.GET("/remember", diaryH.Remembered)
		diariesG.GET("/tags", diaryH.Tags)
		diariesG.GET("/sleep", diaryH.Sleep)
		diariesG.PUT("/:id", diaryH.Update)
		diariesG.DELETE("/:id", diaryH.Delete)

		goalsG := api.Group("/goals")
		goalsG.Use(auth)
		goalsG.GET("", goalH.List)
		goalsG.POST("", goalH.Create)
		goalsG.GET("/search", goalH.Search)
		goalsG.PUT("/:id", goalH.Update)
		goalsG.DELETE("/:id", goalH.Delete)

		todosG := api.Group("/todos")
		todosG.Use(auth)
		todosG.GET("", todoH.List)
		todosG.POST("", todoH.Create)
		todosG.PUT("/priority/:date", todoH.Reorder)
		todosG.PUT("/:id", todoH.Update)
		todosG.DELETE("/:id", todoH.Delete)

		postsG := api.Group("/posts")
		postsG.Use(auth)
		postsG.GET("", postH.List)
		postsG.POST("", postH.Create)
		postsG.GET("/on-goal", postH.OnGoal)
		postsG.GET("/:id", postH.Get)
		postsG.PUT("/:id", postH.Update)
		postsG.DELETE("/:id", postH.Delete)
		postsG.PUT("/:id/like", postH.Like)
		postsG.GET("/:id/likeship", postH.Likeship)

		commentsG := api.Group("/comments")
		commentsG.Use(auth)
		commentsG.GET("", commentH.List)
		commentsG.POST("", commentH.Create)
		commentsG.PUT("/:id", commentH.Update)
		commentsG.DELETE("/:id", commentH.Delete)

		api.GET("/quotes", auth, quoteH.Daily)
		api.GET("/today-picks", auth, quoteH.ListPicks)
		api.POST("/today-picks", auth, quoteH.CreatePick)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server starting", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
