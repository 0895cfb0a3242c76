package internal

import (
	"sync/atomic"
	"time"

	"DirectiveFinder/internal/directive"
)

// AppStats atomic counters for totals
type AppStats struct {
	start          time.Time
	FilesFound     atomic.Int64
	FilesProcessed atomic.Int64
	Client         atomic.Int64
	Server         atomic.Int64
	Default        atomic.Int64
	Skipped        atomic.Int64
	Errors         atomic.Int64
}

func (s *AppStats) Start() {
	s.start = time.Now()
}

func (s *AppStats) Elapsed() time.Duration {
	return time.Since(s.start)
}

func (s *AppStats) count(k directive.Kind) {
	switch k {
	case directive.Client:
		s.Client.Add(1)
	case directive.Server:
		s.Server.Add(1)
	default:
		s.Default.Add(1)
	}
}
