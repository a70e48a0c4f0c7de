package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"catblog-backend/internal/common"
	"catblog-backend/internal/util"

	"go.uber.org/zap"
)

// SQLiteDSN 开启外键约束，否则级联删除不会生效
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}

// Open 连接数据库并配置连接池
func Open(ctx context.Context, dialect Dialect, dsn string) (*sql.DB, error) {
	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	if dialect.Name == SQLite.Name {
		// SQLite 只允许一个写连接
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	err = common.WithRetry(ctx, 5, time.Second, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			util.Logger.Warn("数据库连接测试失败，稍后重试", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	util.Logger.Info("数据库连接成功", zap.String("driver", dialect.Name))
	return db, nil
}

// Migrate 创建表结构，重复执行是安全的
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	for _, stmt := range dialect.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			util.Logger.Error("创建表结构失败", zap.Error(err), zap.String("dialect", dialect.Name))
			return fmt.Errorf("migrate: %w", err)
		}
	}
	util.Logger.Info("表结构已创建或已存在", zap.String("dialect", dialect.Name))
	return nil
}

// placeholders 生成 IN 子句的占位符和参数
func placeholders(ids []int) (string, []interface{}) {
	args := make([]interface{}, len(ids))
	marks := make([]byte, 0, len(ids)*2)
	for i, id := range ids {
		if i > 0 {
			marks = append(marks, ',')
		}
		marks = append(marks, '?')
		args[i] = id
	}
	return string(marks), args
}
