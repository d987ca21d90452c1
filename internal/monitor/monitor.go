// Package monitor reports the extension's health: session summary, command
// count and uptime, both to the host and to a status file next to the module.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/shipmanifest/extension/internal/dispatcher"
	"github.com/shipmanifest/extension/internal/logging"
	"github.com/shipmanifest/extension/internal/session"
)

// StatusFileName is the file written into Dependencies.Dir.
const StatusFileName = "status.json"

// StatusSource supplies the session summary.
type StatusSource interface {
	Status() session.Status
}

// CommandCounter reports how many host commands are registered.
type CommandCounter interface {
	Commands() int
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Session    StatusSource
	Commands   CommandCounter
	LogManager *logging.SlogManager
	Version    string
	Storage    string
	Dir        string
	Now        func() time.Time
}

// Report is one status snapshot.
type Report struct {
	Time     time.Time      `json:"time"`
	Uptime   string         `json:"uptime"`
	Version  string         `json:"version"`
	Storage  string         `json:"storage"`
	Commands int            `json:"commands"`
	Session  session.Status `json:"session"`
}

// Service builds reports and writes the status file.
type Service struct {
	deps    Dependencies
	started time.Time

	mu        sync.Mutex
	lastWrite time.Time
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{
		deps:    deps,
		started: deps.Now(),
	}
}

// Report returns the current status.
func (s *Service) Report() Report {
	now := s.deps.Now()
	r := Report{
		Time:    now,
		Uptime:  now.Sub(s.started).Round(time.Second).String(),
		Version: s.deps.Version,
		Storage: s.deps.Storage,
	}
	if s.deps.Commands != nil {
		r.Commands = s.deps.Commands.Commands()
	}
	if s.deps.Session != nil {
		r.Session = s.deps.Session.Status()
	}
	return r
}

// StatusPath returns where the status file is written.
func (s *Service) StatusPath() string {
	return filepath.Join(s.deps.Dir, StatusFileName)
}

// WriteStatus writes the current report to the status file. The file is
// replaced whole, so a reader never sees a partial report.
func (s *Service) WriteStatus() (Report, error) {
	r := s.Report()
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return Report{}, fmt.Errorf("error marshalling status: %w", err)
	}

	path := s.StatusPath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return Report{}, fmt.Errorf("error writing status file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return Report{}, fmt.Errorf("error replacing status file: %w", err)
	}

	s.mu.Lock()
	s.lastWrite = r.Time
	s.mu.Unlock()

	if s.deps.LogManager != nil {
		s.deps.LogManager.WriteLog("writeStatus", fmt.Sprintf("status written to %s", path), "DEBUG")
	}
	return r, nil
}

// LastWrite returns when the status file was last written.
func (s *Service) LastWrite() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWrite
}

// Register binds the monitor commands to d.
func (s *Service) Register(d *dispatcher.Dispatcher) {
	d.Register(":MONITOR:REPORT:", func(dispatcher.Event) (any, error) {
		return s.Report(), nil
	}, dispatcher.Recovered())
	d.Register(":MONITOR:WRITE:", func(dispatcher.Event) (any, error) {
		return s.WriteStatus()
	}, dispatcher.Logged(), dispatcher.Recovered())
}
