package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const jobMaxRuntime = 5 * time.Minute

// SchedulerService runs background maintenance jobs on cron schedules
type SchedulerService struct {
	cron    *cron.Cron
	parser  cron.Parser
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	jobs    map[string]cron.EntryID
	active  map[string]bool
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(loc *time.Location) *SchedulerService {
	if loc == nil {
		loc = time.Local
	}
	return &SchedulerService{
		cron:   cron.New(cron.WithLocation(loc)),
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		jobs:   make(map[string]cron.EntryID),
		active: make(map[string]bool),
	}
}

// AddJob registers fn under name with a five-field cron expression. A job
// still running when its next tick fires is skipped.
func (s *SchedulerService) AddJob(name, spec string, fn func(ctx context.Context) error) error {
	schedule, err := s.parser.Parse(spec)
	if err != nil {
		return fmt.Errorf("invalid cron expression for %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %s already registered", name)
	}
	s.jobs[name] = s.cron.Schedule(schedule, cron.FuncJob(func() { s.runJob(name, fn) }))
	return nil
}

// RunNow executes a registered job immediately in the calling goroutine.
func (s *SchedulerService) RunNow(name string, fn func(ctx context.Context) error) {
	s.runJob(name, fn)
}

// NextRun reports when a job fires next.
func (s *SchedulerService) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *SchedulerService) runJob(name string, fn func(ctx context.Context) error) {
	s.mu.Lock()
	if s.active[name] {
		s.mu.Unlock()
		log.Printf("⏭️ Job %s is already running, skipping", name)
		return
	}
	s.active[name] = true
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("🔥 Panic in scheduled job %s: %v", name, r)
		}
		s.mu.Lock()
		delete(s.active, name)
		s.mu.Unlock()
		s.wg.Done()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jobMaxRuntime)
	defer cancel()

	start := time.Now()
	if err := fn(ctx); err != nil {
		log.Printf("❌ Scheduled job %s failed after %v: %v", name, time.Since(start), err)
		return
	}
	log.Printf("⏰ Scheduled job %s completed in %v", name, time.Since(start))
}

// Start begins running jobs in the background
func (s *SchedulerService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
	log.Println("⏰ Scheduler service started")
}

// Stop waits for running jobs to finish
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.wg.Wait()
	log.Println("⏰ Scheduler service stopped")
}
