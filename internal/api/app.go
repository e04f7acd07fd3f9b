package api

import (
	"time"

	"github.com/hrcadm/cadencecase/internal"
	"github.com/hrcadm/cadencecase/internal/analysis"
	"github.com/hrcadm/cadencecase/internal/config"
	"github.com/hrcadm/cadencecase/internal/storage"
)

type App interface {
	Logger() internal.Logger
	Config() *config.Config
	SleepRepo() storage.SleepLogRepository
	ActiveRepo() storage.ActiveSleepRepository
	PatternRepo() storage.PatternRepository
	Analyzer() *analysis.Analyzer
	Now() time.Time
}

// Server is the App backed by a storage backend and a shared Analyzer.
type Server struct {
	cfg      *config.Config
	logger   internal.Logger
	repos    *storage.Repositories
	analyzer *analysis.Analyzer
	clock    func() time.Time
}

type Option func(*Server)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.clock = now }
}

func NewServer(cfg *config.Config, logger internal.Logger, repos *storage.Repositories, analyzer *analysis.Analyzer, opts ...Option) *Server {
	s := &Server{cfg: cfg, logger: logger, repos: repos, analyzer: analyzer, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Logger() internal.Logger                   { return s.logger }
func (s *Server) Config() *config.Config                    { return s.cfg }
func (s *Server) SleepRepo() storage.SleepLogRepository     { return s.repos.Sleep }
func (s *Server) ActiveRepo() storage.ActiveSleepRepository { return s.repos.Active }
func (s *Server) PatternRepo() storage.PatternRepository    { return s.repos.Patterns }
func (s *Server) Analyzer() *analysis.Analyzer              { return s.analyzer }
func (s *Server) Now() time.Time                            { return s.clock() }

var _ App = (*Server)(nil)
