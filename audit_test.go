package keygate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/MrEthical07/keygate/crypto"
	"github.com/MrEthical07/keygate/keystore"
)

func TestAuditEventsReachSink(t *testing.T) {
	sink := NewChannelSink(16)
	cfg := testConfig()
	cfg.Audit.Enabled = true

	clock := newFakeClock()
	engine, err := New().
		WithConfig(cfg).
		WithKeyStore(keystore.NewMemoryStore()).
		WithPlatformAuthenticator(newFakePlatform()).
		WithAuditSink(sink).
		WithClock(clock).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}

	keyID := generateTestKey(t, engine, crypto.UsageSymmetricEncryption, crypto.AES256GCM)
	if err := engine.Keys().RevokeKey(context.Background(), keyID); err != nil {
		t.Fatalf("RevokeKey: %v", err)
	}
	engine.Close()

	var got []AuditEvent
	for {
		select {
		case event := <-sink.Events():
			got = append(got, event)
			continue
		default:
		}
		break
	}

	if len(got) != 2 {
		t.Fatalf("received %d events, want 2", len(got))
	}
	if got[0].EventType != EventKeyGenerated || got[0].KeyID != keyID {
		t.Fatalf("first event = %+v, want key.generated for %s", got[0], keyID)
	}
	if got[1].EventType != EventKeyRevoked {
		t.Fatalf("second event = %+v, want key.revoked", got[1])
	}
	if !got[0].Timestamp.Equal(clock.Now()) {
		t.Fatalf("event timestamp = %v, want %v", got[0].Timestamp, clock.Now())
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Unix(1700000000, 0).UTC(),
		EventType: EventKeyGenerated,
		KeyID:     "k1",
		Success:   true,
	})
	sink.Emit(context.Background(), AuditEvent{
		EventType: EventAuthFailure,
		Error:     "prompt rejected",
	})

	scanner := bufio.NewScanner(&buf)
	var lines int
	for scanner.Scan() {
		lines++
		var event AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		if event.EventType == "" {
			t.Fatalf("line %d lost the event type", lines)
		}
	}
	if lines != 2 {
		t.Fatalf("wrote %d lines, want 2", lines)
	}
}

type blockingSink struct {
	started chan struct{}
	release chan struct{}
	seen    chan AuditEvent
}

func newBlockingSink() *blockingSink {
	return &blockingSink{
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
		seen:    make(chan AuditEvent, 16),
	}
}

func (s *blockingSink) Emit(_ context.Context, event AuditEvent) {
	s.started <- struct{}{}
	<-s.release
	s.seen <- event
}

func TestAuditDispatcherDropsWhenFull(t *testing.T) {
	sink := newBlockingSink()
	d := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink)

	ctx := context.Background()
	d.Emit(ctx, AuditEvent{EventType: "e1"})
	// Wait until the worker is inside the sink so the buffer is empty again.
	<-sink.started
	d.Emit(ctx, AuditEvent{EventType: "e2"})
	d.Emit(ctx, AuditEvent{EventType: "e3"})

	if got := d.Dropped(); got != 1 {
		t.Fatalf("dropped = %d, want 1", got)
	}

	close(sink.release)
	d.Close()

	var delivered int
	for {
		select {
		case <-sink.seen:
			delivered++
			continue
		default:
		}
		break
	}
	if delivered != 2 {
		t.Fatalf("delivered %d events, want 2", delivered)
	}
}

func TestAuditDispatcherDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 8,
		DropIfFull: true,
	}, sink)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		d.Emit(ctx, AuditEvent{EventType: EventKeyGenerated})
	}
	d.Close()

	var drained int
	for {
		select {
		case <-sink.Events():
			drained++
			continue
		default:
		}
		break
	}
	if drained != 5 {
		t.Fatalf("drained %d events, want 5", drained)
	}

	// Emitting after Close is a silent no-op.
	d.Emit(ctx, AuditEvent{EventType: EventKeyDeleted})
	if got := d.Dropped(); got != 0 {
		t.Fatalf("dropped after close = %d, want 0", got)
	}
}

func TestDisabledAuditDispatcherIsNil(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, nil)
	if d != nil {
		t.Fatal("disabled audit config must yield a nil dispatcher")
	}
	d.Emit(context.Background(), AuditEvent{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}
