package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"catblog-backend/config"
	"catblog-backend/internal/api/community"
	"catblog-backend/internal/api/user"
	"catblog-backend/internal/middleware"
	"catblog-backend/internal/repository/sqlstore"
	"catblog-backend/internal/service"
	"catblog-backend/internal/session"
	"catblog-backend/internal/storage"
	"catblog-backend/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			util.Logger.Error("程序发生严重错误", zap.Any("error", r))
		}
	}()

	// 初始化配置
	config.Init()
	cfg := config.AppConfig

	// 初始化日志
	util.InitLogger(cfg.LogLevel)
	defer util.Logger.Sync()

	util.Logger.Info("应用程序启动")

	// 注册自定义验证器
	if err := util.RegisterValidators(); err != nil {
		util.Logger.Fatal("注册验证器失败", zap.Error(err))
	}

	ctx := context.Background()
	db, dialect, err := openDatabase(ctx, cfg)
	if err != nil {
		util.Logger.Fatal("连接数据库失败", zap.Error(err))
	}
	defer db.Close()

	store, err := storage.New(ctx, cfg)
	if err != nil {
		util.Logger.Fatal("初始化存储失败", zap.Error(err), zap.String("backend", cfg.StorageBackend))
	}

	r := setupRouter(cfg, db, dialect, store)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		util.Logger.Info("服务器正在启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Logger.Fatal("启动服务器失败", zap.Error(err))
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	util.Logger.Info("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		util.Logger.Error("服务器强制关闭", zap.Error(err))
	}

	util.Logger.Info("服务器已优雅关闭")
}

// openDatabase 按配置连接 MySQL 或 SQLite，并创建表结构
func openDatabase(ctx context.Context, cfg config.Config) (*sql.DB, sqlstore.Dialect, error) {
	dialect, err := sqlstore.DialectFor(cfg.DBDriver)
	if err != nil {
		return nil, dialect, err
	}

	dsn := cfg.MySQLDSN()
	if dialect.Name == sqlstore.SQLite.Name {
		dsn = sqlstore.SQLiteDSN(cfg.SQLitePath)
	}

	db, err := sqlstore.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, dialect, err
	}
	if err := sqlstore.Migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, dialect, err
	}
	return db, dialect, nil
}

func setupRouter(cfg config.Config, db *sql.DB, dialect sqlstore.Dialect, store storage.Storage) *gin.Engine {
	// 初始化存储库、服务和处理器
	userRepo := sqlstore.NewUserRepository(db, dialect)
	postRepo := sqlstore.NewPostRepository(db)
	engagementRepo := sqlstore.NewEngagementRepository(db, dialect)

	var mailer service.WelcomeMailer
	if cfg.SMTPEnabled() {
		mailer = service.NewEmailService()
	} else {
		util.Logger.Info("SMTP 未配置，不发送欢迎邮件")
	}

	userService := service.NewUserService(userRepo, mailer, cfg.DefaultAvatar)
	postService := service.NewPostService(postRepo, engagementRepo, store)
	engagementService := service.NewEngagementService(postRepo, engagementRepo, cfg.PostsPerPage)
	avatarService := service.NewAvatarService(userRepo, store, cfg.DefaultAvatar)

	sessions := session.NewManager(cfg.JWTSecret, time.Duration(cfg.SessionTTLHours)*time.Hour,
		cfg.SessionCookie, strings.HasPrefix(cfg.FrontendURL, "https://"))

	authHandler := user.NewAuthHandler(userService, sessions)
	profileHandler := user.NewProfileHandler(userService, postService, avatarService, store)
	communityHandler := community.NewCommunityHandler(engagementService, postService)

	// 初始化错误监控
	errorMonitor := middleware.NewErrorMonitor()

	r := gin.New()
	r.MaxMultipartMemory = int64(cfg.MaxUploadMB) << 20

	r.Use(gin.Logger())
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.ErrorMonitorMiddleware(errorMonitor))

	// 配置 CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendURL}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	r.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	r.Use(middleware.BodyLimit(int64(cfg.MaxUploadMB) << 20))
	r.Use(middleware.SessionMiddleware(sessions))

	if cfg.StorageBackend == "" || cfg.StorageBackend == "local" {
		r.Static(storage.UploadsURLPrefix, cfg.LocalStoragePath)
	}

	r.GET("/", communityHandler.ListPosts)
	r.GET("/category/:category", communityHandler.ListPosts)
	r.POST("/post/new", middleware.RequireLogin("Please login to create a post!"), communityHandler.CreatePost)
	r.GET("/post/:id", communityHandler.GetPost)
	r.POST("/post/:id/like", communityHandler.ToggleLike)
	r.POST("/post/:id/comment", communityHandler.AddComment)

	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.GET("/logout", authHandler.Logout)
	r.POST("/logout", authHandler.Logout)

	r.GET("/profile", middleware.RequireLogin("Please login to view your profile!"), profileHandler.GetProfile)
	r.POST("/profile/avatar", profileHandler.UploadAvatar)

	r.GET("/healthz", func(c *gin.Context) {
		status := http.StatusOK
		dbStatus := "ok"
		if err := db.PingContext(c.Request.Context()); err != nil {
			util.Logger.Error("数据库健康检查失败", zap.Error(err))
			status = http.StatusServiceUnavailable
			dbStatus = "unavailable"
		}
		c.JSON(status, gin.H{
			"status":       dbStatus,
			"error_counts": errorMonitor.GetErrorCounts(),
		})
	})

	if cfg.Debug {
		for _, route := range r.Routes() {
			util.Logger.Debug("路由",
				zap.String("method", route.Method),
				zap.String("path", route.Path),
				zap.String("handler", route.Handler))
		}
	}
	return r
}
