package keygate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/keygate/biometric"
	"github.com/MrEthical07/keygate/crypto"
	"github.com/MrEthical07/keygate/keystore"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakePlatform struct {
	mu      sync.Mutex
	cap     biometric.Capability
	capErr  error
	outcome biometric.Outcome
	err     error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		cap: biometric.Capability{
			Available:  true,
			Modalities: []biometric.Modality{biometric.ModalityFingerprint},
		},
		outcome: biometric.OutcomeSuccess,
	}
}

func (p *fakePlatform) Capabilities(context.Context) (biometric.Capability, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cap, p.capErr
}

func (p *fakePlatform) Prompt(context.Context, biometric.PromptRequest) (biometric.PromptResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return biometric.PromptResult{}, p.err
	}
	return biometric.PromptResult{
		Outcome:  p.outcome,
		Modality: biometric.ModalityFingerprint,
	}, nil
}

func (p *fakePlatform) setOutcome(o biometric.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcome = o
}

func (p *fakePlatform) setAvailable(available bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cap.Available = available
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.Session.QuickSessionTTL = 5 * time.Minute
	cfg.Session.StrongSessionTTL = 30 * time.Minute
	return cfg
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *fakeClock, *fakePlatform, func()) {
	t.Helper()

	clock := newFakeClock()
	platform := newFakePlatform()

	engine, err := New().
		WithConfig(cfg).
		WithKeyStore(keystore.NewMemoryStore()).
		WithPlatformAuthenticator(platform).
		WithClock(clock).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}

	return engine, clock, platform, engine.Close
}

func generateTestKey(t *testing.T, engine *Engine, usage crypto.Usage, alg crypto.Algorithm) string {
	t.Helper()
	id, err := engine.Keys().GenerateKey(context.Background(), GenerateKeyInput{
		Usage:     usage,
		Algorithm: alg,
	})
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return id
}
