package database

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/minerva/erp/internal/config"
)

// Connection wraps the MySQL/TiDB pool.
// sql.DB is already safe for concurrent use; no extra locking here.
type Connection struct {
	db *sql.DB
}

var (
	instance *Connection
	once     sync.Once
	initErr  error
	tlsOnce  sync.Once
)

// GetInstance opens the shared connection on first use.
func GetInstance(cfg *config.Config) (*Connection, error) {
	once.Do(func() {
		instance, initErr = newConnection(cfg)
	})
	return instance, initErr
}

// NewFromDB wraps an existing pool (tests, tools).
func NewFromDB(db *sql.DB) *Connection {
	return &Connection{db: db}
}

func newConnection(cfg *config.Config) (*Connection, error) {
	dsn := cfg.DSN()
	if isRemoteHost(cfg.DB.Host) {
		// TiDB Cloud and managed MySQL require TLS with the host as ServerName
		tlsOnce.Do(func() {
			if err := mysql.RegisterTLSConfig("minerva", &tls.Config{
				MinVersion: tls.VersionTLS12,
				ServerName: cfg.DB.Host,
			}); err != nil {
				log.Printf("⚠️ Failed to register TLS config: %v", err)
			}
		})
		dsn += "&tls=minerva"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// MaxIdleConns matches MaxOpenConns to avoid churning connections under load
	maxConns := cfg.DB.MaxOpenConns
	if maxConns <= 0 {
		maxConns = 50
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("✅ Connected to database %s at %s:%d", cfg.DB.Name, cfg.DB.Host, cfg.DB.Port)
	return &Connection{db: db}, nil
}

func isRemoteHost(host string) bool {
	return host != "" && host != "127.0.0.1" && host != "localhost"
}

// Ping checks the database is reachable.
func (c *Connection) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// DB returns the underlying pool.
func (c *Connection) DB() *sql.DB {
	return c.db
}

func (c *Connection) Close() error {
	return c.db.Close()
}
