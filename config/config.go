package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// Config 结构体用于存储应用程序的配置信息
type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	JWTSecret       string
	SessionCookie   string
	SessionTTLHours int

	LogLevel     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FrontendURL  string

	StorageBackend     string
	LocalStoragePath   string
	S3Region           string
	S3Bucket           string
	GCSBucketName      string
	GCSCredentialsFile string

	DefaultAvatar  string
	PostsPerPage   int
	MaxUploadMB    int
	RequestTimeout time.Duration
	Port           string
	Debug          bool // 是否开启调试模式
}

// AppConfig 是全局配置变量
var AppConfig Config

// Init 函数用于初始化配置
func Init() {
	// 加载 .env 文件
	if err := godotenv.Load(); err != nil {
		log.Printf("警告：无法加载 .env 文件: %v", err)
	}

	AppConfig = Load()

	if err := AppConfig.Validate(); err != nil {
		log.Fatalf("错误：%v", err)
	}

	if AppConfig.Debug {
		gin.SetMode(gin.DebugMode)
		log.Println("应用程序运行在调试模式")
	} else {
		gin.SetMode(gin.ReleaseMode)
		log.Println("应用程序运行在生产模式")
	}

	log.Printf("配置加载完成。数据库驱动：%s，存储后端：%s", AppConfig.DBDriver, AppConfig.StorageBackend)
}

// Load 从环境变量中读取配置
func Load() Config {
	return Config{
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "cat_blog"),
		SQLitePath: getEnv("SQLITE_PATH", "cat_blog.db"),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		SessionCookie:   getEnv("SESSION_COOKIE", "catblog_session"),
		SessionTTLHours: getEnvAsInt("SESSION_TTL_HOURS", 24*7),

		LogLevel:     getEnv("LOG_LEVEL", "info"),
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 465),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),

		StorageBackend:     strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
		LocalStoragePath:   getEnv("LOCAL_STORAGE_PATH", "static/uploads"),
		S3Region:           getEnv("S3_REGION", "us-west-2"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		GCSBucketName:      getEnv("GCS_BUCKET_NAME", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),

		DefaultAvatar:  getEnv("DEFAULT_AVATAR", "default-avatar.jpg"),
		PostsPerPage:   getEnvAsInt("POSTS_PER_PAGE", 6),
		MaxUploadMB:    getEnvAsInt("MAX_UPLOAD_MB", 16),
		RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 120)) * time.Second,
		Port:           getEnv("PORT", "10000"),
		Debug:          getEnvAsBool("DEBUG", false),
	}
}

// SMTPEnabled 只有在 SMTP 配置完整时才发送邮件
func (c Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUsername != "" && c.SMTPPassword != ""
}

// MySQLDSN 生成 MySQL 连接字符串
func (c Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// Validate 检查配置是否完整
func (c Config) Validate() error {
	switch c.DBDriver {
	case "mysql":
		if c.DBHost == "" || c.DBPort == "" || c.DBUser == "" || c.DBName == "" {
			return fmt.Errorf("数据库配置不完整")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH 未设置")
		}
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.DBDriver)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT密钥未设置")
	}

	switch c.StorageBackend {
	case "local":
		if c.LocalStoragePath == "" {
			return fmt.Errorf("LOCAL_STORAGE_PATH 未设置")
		}
	case "s3":
		if c.S3Bucket == "" || c.S3Region == "" {
			return fmt.Errorf("S3 配置不完整")
		}
	case "gcs":
		if c.GCSBucketName == "" {
			return fmt.Errorf("GCS 配置不完整")
		}
	default:
		return fmt.Errorf("不支持的存储后端: %s", c.StorageBackend)
	}

	if c.PostsPerPage <= 0 {
		return fmt.Errorf("POSTS_PER_PAGE 必须大于 0")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB 必须大于 0")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}
