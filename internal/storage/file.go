package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/hrcadm/cadencecase/internal"
)

type FileStorage struct {
	sleepLogs      map[string]*internal.SleepLog        // id -> SleepLog
	userSleepIndex map[string][]*internal.SleepLog      // userID -> slice of SleepLogs (sorted descending)
	active         map[string]*internal.ActiveSleep     // userID -> ActiveSleep
	patterns       map[string]*internal.PatternSnapshot // userID -> PatternSnapshot
	mu             sync.RWMutex
	writeMu        sync.Mutex
	sleepFile      string
	activeFile     string
	patternFile    string
	saveLogsChan   chan struct{}
	saveStateChan  chan struct{}
	shutdownChan   chan struct{}
	workers        sync.WaitGroup
	closeOnce      sync.Once
	saveDelay      time.Duration
	logger         internal.Logger
}

func NewFileStorage(sleepFile, activeFile, patternFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		sleepLogs:      make(map[string]*internal.SleepLog),
		userSleepIndex: make(map[string][]*internal.SleepLog),
		active:         make(map[string]*internal.ActiveSleep),
		patterns:       make(map[string]*internal.PatternSnapshot),
		sleepFile:      sleepFile,
		activeFile:     activeFile,
		patternFile:    patternFile,
		saveLogsChan:   make(chan struct{}, 1),
		saveStateChan:  make(chan struct{}, 1),
		shutdownChan:   make(chan struct{}),
		saveDelay:      500 * time.Millisecond,
		logger:         logger,
	}

	for _, f := range []string{sleepFile, activeFile, patternFile} {
		if err := os.MkdirAll(filepath.Dir(f), 0755); err != nil {
			logger.Errorf("storage: failed to create data dir for %s: %v", f, err)
			return nil, err
		}
	}

	if err := s.loadSleepLogs(); err != nil {
		logger.Errorf("storage: failed to load sleep logs: %v", err)
		return nil, err
	}
	if err := s.loadState(); err != nil {
		logger.Errorf("storage: failed to load active sleeps and patterns: %v", err)
		return nil, err
	}

	s.workers.Add(2)
	go s.saveWorker(s.saveLogsChan, s.saveSleepLogs, "sleep logs")
	go s.saveWorker(s.saveStateChan, s.saveState, "active sleeps and patterns")

	return s, nil
}

// readJSONFile decodes path into v. A missing or empty file leaves v untouched.
func readJSONFile(path string, v interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (s *FileStorage) loadSleepLogs() error {
	var logs []*internal.SleepLog
	if err := readJSONFile(s.sleepFile, &logs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range logs {
		s.sleepLogs[l.ID] = l
		s.userSleepIndex[l.UserID] = append(s.userSleepIndex[l.UserID], l)
	}

	// Sort each user's logs descending by StartTime
	for userID := range s.userSleepIndex {
		sort.Slice(s.userSleepIndex[userID], func(i, j int) bool {
			return s.userSleepIndex[userID][i].StartTime.After(s.userSleepIndex[userID][j].StartTime)
		})
	}

	return nil
}

func (s *FileStorage) loadState() error {
	var active []*internal.ActiveSleep
	if err := readJSONFile(s.activeFile, &active); err != nil {
		return err
	}
	var patterns []*internal.PatternSnapshot
	if err := readJSONFile(s.patternFile, &patterns); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range active {
		s.active[a.UserID] = a
	}
	for _, p := range patterns {
		s.patterns[p.UserID] = p
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveSleepLogs() error {
	s.mu.RLock()
	logs := make([]*internal.SleepLog, 0, len(s.sleepLogs))
	for _, l := range s.sleepLogs {
		logs = append(logs, l)
	}
	s.mu.RUnlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return atomicWriteFileJSON(s.sleepFile, logs)
}

func (s *FileStorage) saveState() error {
	s.mu.RLock()
	active := make([]*internal.ActiveSleep, 0, len(s.active))
	for _, a := range s.active {
		active = append(active, a)
	}
	patterns := make([]*internal.PatternSnapshot, 0, len(s.patterns))
	for _, p := range s.patterns {
		patterns = append(patterns, p)
	}
	s.mu.RUnlock()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := atomicWriteFileJSON(s.activeFile, active); err != nil {
		return err
	}
	return atomicWriteFileJSON(s.patternFile, patterns)
}

// saveWorker batches save operations to avoid frequent disk writes
func (s *FileStorage) saveWorker(signal <-chan struct{}, save func() error, what string) {
	defer s.workers.Done()
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-signal:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := save(); err != nil {
				s.logger.Errorf("storage: error saving %s: %v", what, err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (s *FileStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.shutdownChan)
		s.workers.Wait()

		// Save pending data synchronously on shutdown
		if err = s.saveSleepLogs(); err != nil {
			return
		}
		err = s.saveState()
	})
	return err
}

// --- SleepLogRepository ---
func (s *FileStorage) SaveSleepLog(ctx context.Context, log *internal.SleepLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *log
	s.sleepLogs[log.ID] = &stored
	logs := s.userSleepIndex[log.UserID]
	inserted := false
	for i, existing := range logs {
		if existing.StartTime.Before(log.StartTime) {
			logs = append(logs[:i], append([]*internal.SleepLog{&stored}, logs[i:]...)...)
			inserted = true
			break
		}
	}
	if !inserted {
		logs = append(logs, &stored)
	}
	s.userSleepIndex[log.UserID] = logs
	notify(s.saveLogsChan)
	return nil
}

func (s *FileStorage) GetSleepLog(ctx context.Context, userID, id string) (*internal.SleepLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.sleepLogs[id]
	if !ok || l.UserID != userID {
		return nil, ErrNotFound
	}
	out := *l
	return &out, nil
}

func (s *FileStorage) UpdateQuality(ctx context.Context, userID, id string, quality int) (*internal.SleepLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.sleepLogs[id]
	if !ok || l.UserID != userID {
		return nil, ErrNotFound
	}

	// stored logs are immutable once shared with a save worker; swap in a copy
	updated := *l
	q := quality
	updated.Quality = &q
	s.sleepLogs[id] = &updated
	for i, existing := range s.userSleepIndex[userID] {
		if existing == l {
			s.userSleepIndex[userID][i] = &updated
			break
		}
	}
	notify(s.saveLogsChan)
	out := updated
	return &out, nil
}

func (s *FileStorage) ListSleepLogs(ctx context.Context, userID string) ([]internal.SleepLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	logsPtr, ok := s.userSleepIndex[userID]
	if !ok {
		return []internal.SleepLog{}, nil
	}
	logs := make([]internal.SleepLog, len(logsPtr))
	for i, l := range logsPtr {
		logs[i] = *l
	}
	return logs, nil
}

// --- ActiveSleepRepository ---
func (s *FileStorage) StartActive(ctx context.Context, active *internal.ActiveSleep) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[active.UserID]; ok {
		return ErrActiveSleepExists
	}
	stored := *active
	s.active[active.UserID] = &stored
	notify(s.saveStateChan)
	return nil
}

func (s *FileStorage) GetActive(ctx context.Context, userID string) (*internal.ActiveSleep, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.active[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *a
	return &out, nil
}

func (s *FileStorage) ClearActive(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[userID]; !ok {
		return ErrNotFound
	}
	delete(s.active, userID)
	notify(s.saveStateChan)
	return nil
}

func (s *FileStorage) CountActive(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.active), nil
}

// --- PatternRepository ---
func (s *FileStorage) SavePattern(ctx context.Context, snapshot *internal.PatternSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *snapshot
	s.patterns[snapshot.UserID] = &stored
	notify(s.saveStateChan)
	return nil
}

func (s *FileStorage) GetPattern(ctx context.Context, userID string) (*internal.PatternSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patterns[userID]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

// --- Compile-time assertions ---
var _ SleepLogRepository = (*FileStorage)(nil)
var _ ActiveSleepRepository = (*FileStorage)(nil)
var _ PatternRepository = (*FileStorage)(nil)
