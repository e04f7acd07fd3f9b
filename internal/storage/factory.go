package storage

import (
	"fmt"

	"github.com/hrcadm/cadencecase/internal"
	"github.com/hrcadm/cadencecase/internal/config"
)

// Repositories groups the repositories of one backend. Close releases it.
type Repositories struct {
	Sleep    SleepLogRepository
	Active   ActiveSleepRepository
	Patterns PatternRepository
	Close    func() error
}

func NewFileRepositories(sleepFile, activeFile, patternFile string, logger internal.Logger) (*Repositories, error) {
	s, err := NewFileStorage(sleepFile, activeFile, patternFile, logger)
	if err != nil {
		return nil, err
	}
	return &Repositories{Sleep: s, Active: s, Patterns: s, Close: s.Close}, nil
}

func NewPostgresRepositories(dsn string, logger internal.Logger) (*Repositories, error) {
	s, err := NewPostgresStorage(dsn, logger)
	if err != nil {
		return nil, err
	}
	return &Repositories{Sleep: s, Active: s, Patterns: s, Close: s.Close}, nil
}

func NewSQLiteRepositories(path string, logger internal.Logger) (*Repositories, error) {
	s, err := NewSQLiteStorage(path, logger)
	if err != nil {
		return nil, err
	}
	return &Repositories{Sleep: s, Active: s, Patterns: s, Close: s.Close}, nil
}

// NewRepositories picks the backend named by cfg.DBType.
func NewRepositories(cfg *config.Config, logger internal.Logger) (*Repositories, error) {
	switch cfg.DBType {
	case "file":
		return NewFileRepositories(cfg.FileSleep, cfg.FileActive, cfg.FilePatterns, logger)
	case "postgres":
		return NewPostgresRepositories(cfg.DBDSN, logger)
	case "sqlite":
		return NewSQLiteRepositories(cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.DBType)
	}
}
