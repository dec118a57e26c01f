package services

import (
	"sync"
	"time"
)

// IntakeRegistry keeps one Intake per browser session so a submission in
// flight blocks a second one from the same session.
type IntakeRegistry struct {
	mu        sync.Mutex
	inspector FileInspector
	entries   map[string]*intakeEntry
	now       func() time.Time
}

type intakeEntry struct {
	intake   *Intake
	lastSeen time.Time
}

func NewIntakeRegistry(inspector FileInspector) *IntakeRegistry {
	return &IntakeRegistry{
		inspector: inspector,
		entries:   make(map[string]*intakeEntry),
		now:       time.Now,
	}
}

// For returns the session's intake, creating it on first use.
func (r *IntakeRegistry) For(sessionID string) *Intake {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[sessionID]
	if !ok {
		entry = &intakeEntry{intake: NewIntake(r.inspector)}
		r.entries[sessionID] = entry
	}
	entry.lastSeen = r.now()
	return entry.intake
}

// Sweep drops intakes idle for longer than maxIdle. Intakes with a
// submission in flight are kept.
func (r *IntakeRegistry) Sweep(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	cutoff := r.now().Add(-maxIdle)
	for sessionID, entry := range r.entries {
		if entry.lastSeen.After(cutoff) {
			continue
		}
		if entry.intake.State().Analyzing {
			continue
		}
		delete(r.entries, sessionID)
		removed++
	}
	return removed
}

func (r *IntakeRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
