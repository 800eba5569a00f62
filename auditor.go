package keygate

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/MrEthical07/keygate/biometric"
)

// IssueSeverity defines a public type used by keygate APIs.
//
// IssueSeverity instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type IssueSeverity uint8

const (
	// SeverityLow is an exported constant or variable used by the key lifecycle engine.
	SeverityLow IssueSeverity = iota
	// SeverityMedium is an exported constant or variable used by the key lifecycle engine.
	SeverityMedium
	// SeverityHigh is an exported constant or variable used by the key lifecycle engine.
	SeverityHigh
	// SeverityCritical is an exported constant or variable used by the key lifecycle engine.
	SeverityCritical
)

// String describes the string operation and its observable behavior.
func (s IssueSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	default:
		return "low"
	}
}

func (s IssueSeverity) penalty() int {
	switch s {
	case SeverityCritical:
		return 25
	case SeverityHigh:
		return 15
	case SeverityMedium:
		return 8
	default:
		return 3
	}
}

// SecurityIssue is one finding in an audit report.
type SecurityIssue struct {
	Severity       IssueSeverity
	Category       string
	Description    string
	Recommendation string
}

// SecurityAuditReport is a derived, disposable snapshot. It is never
// persisted; each audit invocation recomputes it from current state.
// Scoring is a pure function of that state: identical key and capability
// state yields an identical report, timestamp aside.
type SecurityAuditReport struct {
	GeneratedAt     time.Time
	Score           int
	Grade           string
	Issues          []SecurityIssue
	Recommendations []string
}

// SecurityAuditor inspects key and biometric state and produces a scored
// report. It is strictly observational: it reads through KeyManager and
// the biometric gate and mutates neither.
type SecurityAuditor struct {
	keys      *KeyManager
	gate      *biometric.Gate
	clock     Clock
	cfg       AuditorConfig
	audit     *auditDispatcher
	metrics   *Metrics
	mu        sync.Mutex
	last      *SecurityAuditReport
	ticker    *time.Ticker
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newSecurityAuditor(keys *KeyManager, gate *biometric.Gate, cfg AuditorConfig, clock Clock, audit *auditDispatcher, metrics *Metrics) *SecurityAuditor {
	a := &SecurityAuditor{
		keys:    keys,
		gate:    gate,
		clock:   clock,
		cfg:     cfg,
		audit:   audit,
		metrics: metrics,
		done:    make(chan struct{}),
	}

	if cfg.Interval > 0 {
		a.ticker = time.NewTicker(cfg.Interval)
		a.wg.Add(1)
		go a.run()
	}

	return a
}

func (a *SecurityAuditor) run() {
	defer a.wg.Done()
	defer a.ticker.Stop()

	for {
		select {
		case <-a.ticker.C:
			if _, err := a.PerformAudit(context.Background()); err != nil {
				log.Print("keygate: periodic security audit failed")
			}
		case <-a.done:
			return
		}
	}
}

// PerformAudit gathers key listings and the capability snapshot, derives
// issues, and scores the posture. Collaborator failures surface as errors;
// no partially-gathered report is ever returned.
func (a *SecurityAuditor) PerformAudit(ctx context.Context) (SecurityAuditReport, error) {
	keys, err := a.keys.ListKeys(ctx, true)
	if err != nil {
		return SecurityAuditReport{}, err
	}
	cap, err := a.gate.CheckCapabilities(ctx)
	if err != nil {
		return SecurityAuditReport{}, err
	}

	var expired, deprecated int
	for _, meta := range keys {
		switch meta.Status {
		case KeyExpired:
			expired++
		case KeyDeprecated:
			deprecated++
		}
	}

	var issues []SecurityIssue
	if !cap.Available {
		issues = append(issues, SecurityIssue{
			Severity:       SeverityMedium,
			Category:       "biometric",
			Description:    "no biometric capability available on this device",
			Recommendation: "enable a biometric modality or require device credentials",
		})
	}
	if expired > 0 {
		issues = append(issues, SecurityIssue{
			Severity:       SeverityHigh,
			Category:       "keys",
			Description:    fmt.Sprintf("%d expired keys found", expired),
			Recommendation: "rotate or delete expired keys",
		})
	}
	if deprecated > a.cfg.DeprecatedKeyThreshold {
		issues = append(issues, SecurityIssue{
			Severity:       SeverityMedium,
			Category:       "keys",
			Description:    fmt.Sprintf("too many deprecated keys (%d)", deprecated),
			Recommendation: "re-encrypt old data and delete deprecated keys",
		})
	}

	score := 100
	for _, issue := range issues {
		score -= issue.Severity.penalty()
	}
	if score < 0 {
		score = 0
	}

	report := SecurityAuditReport{
		GeneratedAt: a.clock.Now(),
		Score:       score,
		Grade:       gradeFor(score),
		Issues:      issues,
	}
	if len(issues) == 0 {
		report.Recommendations = []string{
			"review key rotation cadence",
			"review authentication policy durations",
		}
	} else {
		for _, issue := range issues {
			report.Recommendations = append(report.Recommendations, issue.Recommendation)
		}
	}

	a.mu.Lock()
	a.last = &report
	a.mu.Unlock()

	a.metrics.Inc(MetricAuditPerformed)
	if a.audit != nil {
		a.audit.Emit(ctx, AuditEvent{
			Timestamp: report.GeneratedAt,
			EventType: EventAuditPerformed,
			Success:   true,
			Metadata: map[string]string{
				"score": fmt.Sprintf("%d", report.Score),
				"grade": report.Grade,
			},
		})
	}

	return report, nil
}

// LastReport returns the most recent report, or false when no audit has
// run yet.
func (a *SecurityAuditor) LastReport() (SecurityAuditReport, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last == nil {
		return SecurityAuditReport{}, false
	}
	return *a.last, true
}

// Close cancels the periodic audit task, if one was configured. Safe to
// call more than once.
func (a *SecurityAuditor) Close() {
	a.closeOnce.Do(func() {
		close(a.done)
		a.wg.Wait()
	})
}

func gradeFor(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
