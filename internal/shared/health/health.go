// Package health reports readiness of the process's backing services.
package health

import (
	"context"
	"sort"
	"time"
)

// Checker pings one dependency.
type Checker interface {
	Ping(ctx context.Context) error
}

// CheckFunc adapts a function to Checker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Ping(ctx context.Context) error { return f(ctx) }

const defaultTimeout = 2 * time.Second

// Service runs named checks. A Service with no checks is always healthy.
type Service struct {
	Checks  map[string]Checker
	Timeout time.Duration
}

// NewService constructs a health service with no checks.
func NewService() *Service {
	return &Service{Checks: map[string]Checker{}}
}

// Add registers a check under name.
func (s *Service) Add(name string, c Checker) {
	if s.Checks == nil {
		s.Checks = map[string]Checker{}
	}
	s.Checks[name] = c
}

// Report is the health payload.
type Report struct {
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Status runs every check and reports "ok" or the error text per check.
func (s *Service) Status(ctx context.Context) Report {
	rep := Report{OK: true}
	if s == nil || len(s.Checks) == 0 {
		return rep
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	names := make([]string, 0, len(s.Checks))
	for name := range s.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	rep.Checks = make(map[string]string, len(names))
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		err := s.Checks[name].Ping(cctx)
		cancel()
		if err != nil {
			rep.OK = false
			rep.Checks[name] = err.Error()
			continue
		}
		rep.Checks[name] = "ok"
	}
	return rep
}
