package sqlstore

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// Dialect 描述 MySQL 和 SQLite 之间的差异；两者都使用 ? 占位符
type Dialect struct {
	Name       string
	Driver     string
	Schema     []string
	LockClause string
	uniqueErr  func(err error) bool
	retryErr   func(err error) bool
}

// IsUniqueViolation 判断错误是否为唯一约束冲突
func (d Dialect) IsUniqueViolation(err error) bool {
	return err != nil && d.uniqueErr(err)
}

// IsRetryable 判断错误是否为死锁或锁等待超时，整个事务可以重新执行
func (d Dialect) IsRetryable(err error) bool {
	return err != nil && d.retryErr != nil && d.retryErr(err)
}

var MySQL = Dialect{
	Name:       "mysql",
	Driver:     "mysql",
	LockClause: " FOR UPDATE",
	uniqueErr: func(err error) bool {
		var mysqlErr *mysql.MySQLError
		return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
	},
	// 1213 死锁，1205 锁等待超时；两个请求对不存在的行 FOR UPDATE 时会持有间隙锁，随后的插入可能互相死锁
	retryErr: func(err error) bool {
		var mysqlErr *mysql.MySQLError
		return errors.As(err, &mysqlErr) && (mysqlErr.Number == 1213 || mysqlErr.Number == 1205)
	},
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(80) NOT NULL,
			email VARCHAR(120) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			avatar VARCHAR(200) NOT NULL DEFAULT 'default-avatar.jpg',
			created_at DATETIME(6) NOT NULL,
			UNIQUE KEY uq_users_username (username),
			UNIQUE KEY uq_users_email (email)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS posts (
			id INT AUTO_INCREMENT PRIMARY KEY,
			title VARCHAR(200) NOT NULL,
			content TEXT NOT NULL,
			image VARCHAR(200) NULL,
			category VARCHAR(50) NOT NULL DEFAULT 'general',
			created_at DATETIME(6) NOT NULL,
			updated_at DATETIME(6) NOT NULL,
			user_id INT NOT NULL,
			KEY idx_posts_created (created_at),
			KEY idx_posts_category_created (category, created_at),
			CONSTRAINT fk_posts_user FOREIGN KEY (user_id) REFERENCES users (id)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS likes (
			id INT AUTO_INCREMENT PRIMARY KEY,
			user_id INT NOT NULL,
			post_id INT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			UNIQUE KEY uq_likes_user_post (user_id, post_id),
			KEY idx_likes_post (post_id),
			CONSTRAINT fk_likes_user FOREIGN KEY (user_id) REFERENCES users (id),
			CONSTRAINT fk_likes_post FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS comments (
			id INT AUTO_INCREMENT PRIMARY KEY,
			content TEXT NOT NULL,
			created_at DATETIME(6) NOT NULL,
			user_id INT NOT NULL,
			post_id INT NOT NULL,
			KEY idx_comments_post_created (post_id, created_at),
			CONSTRAINT fk_comments_user FOREIGN KEY (user_id) REFERENCES users (id),
			CONSTRAINT fk_comments_post FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
}

var SQLite = Dialect{
	Name:   "sqlite",
	Driver: "sqlite3",
	// SQLite 的写事务本身是串行的，不支持 FOR UPDATE
	LockClause: "",
	uniqueErr: func(err error) bool {
		var sqliteErr sqlite3.Error
		if !errors.As(err, &sqliteErr) {
			return false
		}
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	},
	retryErr: func(err error) bool {
		var sqliteErr sqlite3.Error
		return errors.As(err, &sqliteErr) &&
			(sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked)
	},
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT 'default-avatar.jpg',
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			image TEXT,
			category TEXT NOT NULL DEFAULT 'general',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			user_id INTEGER NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users (id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_created ON posts (created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_posts_category_created ON posts (category, created_at)`,
		`CREATE TABLE IF NOT EXISTS likes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			post_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE (user_id, post_id),
			FOREIGN KEY (user_id) REFERENCES users (id),
			FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_likes_post ON likes (post_id)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			content TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			user_id INTEGER NOT NULL,
			post_id INTEGER NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users (id),
			FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at)`,
	},
}

// DialectFor 根据配置中的驱动名返回方言
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "mysql":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return Dialect{}, errors.New("unsupported database driver: " + driver)
}
