package migration

import (
	"database/sql"
	"fmt"
	"os"
	"regexp"

	_ "github.com/go-sql-driver/mysql"

	"dtp/internal/config"
)

var databaseNamePattern = regexp.MustCompile(`^\w{1,64}$`)

// DatabaseManager provisions the per-worker MySQL test databases.
type DatabaseManager struct {
	config *config.Config
}

// NewDatabaseManager creates a new DatabaseManager
func NewDatabaseManager(cfg *config.Config) *DatabaseManager {
	return &DatabaseManager{config: cfg}
}

// EnsureDatabases creates any missing worker databases and returns the worker
// IDs that have one. Connection settings come from the usual Laravel DB_* env
// variables.
func (dm *DatabaseManager) EnsureDatabases(workerCount int) ([]int, error) {
	db, err := dm.connect()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	workers := make([]int, 0, workerCount)
	for i := 1; i <= workerCount; i++ {
		name := dm.config.GetDatabaseName(i)
		exists, err := dm.databaseExists(db, name)
		if err != nil {
			return nil, fmt.Errorf("check database %s: %w", name, err)
		}
		if !exists {
			if err := dm.createDatabase(db, name); err != nil {
				return nil, fmt.Errorf("create database %s: %w", name, err)
			}
		}
		workers = append(workers, i)
	}
	return workers, nil
}

func (dm *DatabaseManager) connect() (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/",
		envOr("DB_USERNAME", "root"),
		os.Getenv("DB_PASSWORD"),
		envOr("DB_HOST", "127.0.0.1"),
		envOr("DB_PORT", "3306"))

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to database server: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database server: %w", err)
	}
	return db, nil
}

func (dm *DatabaseManager) databaseExists(db *sql.DB, name string) (bool, error) {
	var exists bool
	query := "SELECT EXISTS(SELECT SCHEMA_NAME FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?)"
	err := db.QueryRow(query, name).Scan(&exists)
	return exists, err
}

func (dm *DatabaseManager) createDatabase(db *sql.DB, name string) error {
	// The name is interpolated into DDL, so it must stay strictly word-shaped.
	if !databaseNamePattern.MatchString(name) {
		return fmt.Errorf("invalid database name: %s", name)
	}
	_, err := db.Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name))
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
