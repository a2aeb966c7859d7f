package sse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/careerbridge/careerbridge-backend/internal/pkg/logger"
	"github.com/careerbridge/careerbridge-backend/internal/types"
)

func recvMessage(t *testing.T, ch <-chan Message, timeout time.Duration) Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return Message{}
}

func progressMsg(userID uuid.UUID, xp int) Message {
	rec := types.DefaultProgress()
	rec.ExperiencePoints = xp
	return Message{
		Type:      EventProgressUpdate,
		UserID:    userID.String(),
		Progress:  rec,
		Timestamp: time.Now().UTC(),
	}
}

func TestBroadcastOrderingAndReconnect(t *testing.T) {
	hub := NewHub(logger.NewNop())
	userID := uuid.New()

	clientA := NewClient(userID)
	unsubA := hub.Subscribe(userID, clientA)

	hub.Broadcast(userID, progressMsg(userID, 10))
	hub.Broadcast(userID, progressMsg(userID, 60))

	first := recvMessage(t, clientA.Outbound, time.Second)
	second := recvMessage(t, clientA.Outbound, time.Second)
	if first.Progress.ExperiencePoints != 10 || second.Progress.ExperiencePoints != 60 {
		t.Fatalf("out of order: got xp %d then %d", first.Progress.ExperiencePoints, second.Progress.ExperiencePoints)
	}

	unsubA()
	clientA.Close()

	clientB := NewClient(userID)
	unsubB := hub.Subscribe(userID, clientB)
	defer unsubB()
	hub.Broadcast(userID, progressMsg(userID, 110))
	reconnect := recvMessage(t, clientB.Outbound, time.Second)
	if reconnect.Progress.ExperiencePoints != 110 {
		t.Fatalf("reconnect got xp=%d, want 110", reconnect.Progress.ExperiencePoints)
	}
}

func TestBroadcastTargetsOnlyThatUser(t *testing.T) {
	hub := NewHub(logger.NewNop())
	alice, bob := uuid.New(), uuid.New()

	aliceClient := NewClient(alice)
	defer hub.Subscribe(alice, aliceClient)()
	bobClient := NewClient(bob)
	defer hub.Subscribe(bob, bobClient)()

	hub.Broadcast(alice, progressMsg(alice, 25))

	got := recvMessage(t, aliceClient.Outbound, time.Second)
	if got.UserID != alice.String() {
		t.Fatalf("wrong user on message: %s", got.UserID)
	}
	select {
	case msg := <-bobClient.Outbound:
		t.Fatalf("bob received alice's update: %+v", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMultipleSinksPerUserEachDelivered(t *testing.T) {
	hub := NewHub(logger.NewNop())
	userID := uuid.New()

	tab1 := NewClient(userID)
	defer hub.Subscribe(userID, tab1)()
	tab2 := NewClient(userID)
	defer hub.Subscribe(userID, tab2)()

	hub.Broadcast(userID, progressMsg(userID, 5))

	if got := recvMessage(t, tab1.Outbound, time.Second); got.Type != EventProgressUpdate {
		t.Fatalf("tab1 got %s", got.Type)
	}
	if got := recvMessage(t, tab2.Outbound, time.Second); got.Type != EventProgressUpdate {
		t.Fatalf("tab2 got %s", got.Type)
	}
}

func TestSlowConsumerDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(logger.NewNop())
	userID := uuid.New()
	client := NewClient(userID)
	defer hub.Subscribe(userID, client)()

	for i := 0; i < outboundBuffer; i++ {
		if err := client.Emit(progressMsg(userID, i)); err != nil {
			t.Fatalf("emit %d: %v", i, err)
		}
	}
	if err := client.Emit(progressMsg(userID, 999)); !errors.Is(err, ErrSlowConsumer) {
		t.Fatalf("err=%v, want ErrSlowConsumer", err)
	}

	// A full sink must not stall the broadcast path.
	done := make(chan struct{})
	go func() {
		hub.Broadcast(userID, progressMsg(userID, 1000))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("broadcast blocked on a full sink")
	}
}

func TestEmitAfterClose(t *testing.T) {
	client := NewClient(uuid.New())
	client.Close()
	client.Close() // idempotent
	if err := client.Emit(progressMsg(client.UserID, 1)); !errors.Is(err, ErrClientClosed) {
		t.Fatalf("err=%v, want ErrClientClosed", err)
	}
}

type flakySink struct {
	mu    sync.Mutex
	calls int
}

func (s *flakySink) Emit(Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return errors.New("broken pipe")
}

func TestHeartbeatReachesEveryOpenStream(t *testing.T) {
	hub := NewHub(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice := NewClient(uuid.New())
	defer hub.Subscribe(alice.UserID, alice)()
	bob := NewClient(uuid.New())
	defer hub.Subscribe(bob.UserID, bob)()
	broken := &flakySink{}
	defer hub.Subscribe(uuid.New(), broken)()

	hub.StartHeartbeat(ctx, 10*time.Millisecond)

	if got := recvMessage(t, alice.Outbound, time.Second); got.Type != EventHeartbeat {
		t.Fatalf("alice got %s, want heartbeat", got.Type)
	}
	if got := recvMessage(t, bob.Outbound, time.Second); got.Type != EventHeartbeat {
		t.Fatalf("bob got %s, want heartbeat", got.Type)
	}
}

type syncRecorder struct {
	mu sync.Mutex
	*httptest.ResponseRecorder
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *syncRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ResponseRecorder.Flush()
}

func (r *syncRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Body.String()
}

func TestServeHTTPFramesEvents(t *testing.T) {
	hub := NewHub(logger.NewNop())
	userID := uuid.New()
	client := NewClient(userID)
	defer hub.Subscribe(userID, client)()

	if err := client.Emit(progressMsg(userID, 42)); err != nil {
		t.Fatalf("emit: %v", err)
	}

	rec := &syncRecorder{ResponseRecorder: httptest.NewRecorder()}
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/progress/stream", nil).WithContext(ctx)

	served := make(chan struct{})
	go func() {
		hub.ServeHTTP(rec, req, client)
		close(served)
	}()

	deadline := time.Now().Add(time.Second)
	for !strings.Contains(rec.body(), "event: progress_update") {
		if time.Now().After(deadline) {
			t.Fatalf("frame never written, body=%q", rec.body())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case <-served:
	case <-time.After(time.Second):
		t.Fatalf("ServeHTTP did not return after disconnect")
	}

	body := rec.body()
	if !strings.Contains(body, "data: {") || !strings.Contains(body, "\"experiencePoints\":42") {
		t.Fatalf("unexpected frame body: %q", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type=%q", ct)
	}
}
