package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"surplus/internal/domain"
)

// Mock implementations
type mockChannel struct {
	mu       sync.Mutex
	SendFunc func(ctx context.Context, restaurantID string, event Event) error
	calls    int
}

func (m *mockChannel) Send(ctx context.Context, restaurantID string, event Event) error {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.SendFunc(ctx, restaurantID, event)
}

type mockWriter struct {
	WriteMessagesFunc func(ctx context.Context, msgs ...kafka.Message) error
	closed            bool
}

func (m *mockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	return m.WriteMessagesFunc(ctx, msgs...)
}

func (m *mockWriter) Close() error {
	m.closed = true
	return nil
}

func testEvent() Event {
	return Event{
		Type:       EventNewOrder,
		OrderID:    "o-1",
		Status:     domain.OrderStatusPending,
		OccurredAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	router := chi.NewRouter()
	router.Get("/ws/restaurants/{restaurantId}", NewHandler(hub, zap.NewNop()).HandleRestaurantSession)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, restaurantID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/restaurants/" + restaurantID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

// Tests

func TestHub_DeliversToRestaurantSessionsOnly(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := newTestServer(t, hub)

	mine := dial(t, srv, "r-1")
	defer mine.Close()
	other := dial(t, srv, "r-2")
	defer other.Close()

	require.Eventually(t, func() bool { return hub.Count("r-1") == 1 && hub.Count("r-2") == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Send(context.Background(), "r-1", testEvent()))

	mine.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := mine.ReadMessage()
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, EventNewOrder, got.Type)
	assert.Equal(t, "o-1", got.OrderID)

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = other.ReadMessage()
	assert.Error(t, err, "other restaurant must not receive the event")
}

func TestHub_PurgesSessionOnDisconnect(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := newTestServer(t, hub)

	conn := dial(t, srv, "r-1")
	require.Eventually(t, func() bool { return hub.Count("r-1") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()

	require.Eventually(t, func() bool { return hub.Count("r-1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestHub_SendWithoutSessionsIsNoop(t *testing.T) {
	hub := NewHub(zap.NewNop())
	assert.NoError(t, hub.Send(context.Background(), "nobody", testEvent()))
}

func TestKafkaPublisher_Send(t *testing.T) {
	var captured []kafka.Message
	writer := &mockWriter{
		WriteMessagesFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			captured = append(captured, msgs...)
			return nil
		},
	}
	publisher := NewKafkaPublisher(writer, "surplus-api")

	require.NoError(t, publisher.Send(context.Background(), "r-1", testEvent()))

	require.Len(t, captured, 1)
	assert.Equal(t, []byte("r-1"), captured[0].Key)
	assert.Equal(t, "x-event-type", captured[0].Headers[0].Key)
	assert.Equal(t, []byte("new_order"), captured[0].Headers[0].Value)

	var env Envelope
	require.NoError(t, json.Unmarshal(captured[0].Value, &env))
	assert.Equal(t, EventNewOrder, env.EventType)
	assert.Equal(t, "surplus-api", env.Producer)
	assert.Equal(t, "r-1", env.RestaurantID)
	assert.Equal(t, "o-1", env.OrderID)
	assert.NotEmpty(t, env.EventID)

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)
}

func TestKafkaPublisher_SendError(t *testing.T) {
	writer := &mockWriter{
		WriteMessagesFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			return errors.New("broker unavailable")
		},
	}

	err := NewKafkaPublisher(writer, "surplus-api").Send(context.Background(), "r-1", testEvent())

	assert.ErrorContains(t, err, "broker unavailable")
}

func TestDispatcher_FailingChannelDoesNotStopOthers(t *testing.T) {
	failing := &mockChannel{SendFunc: func(ctx context.Context, restaurantID string, event Event) error {
		return errors.New("down")
	}}
	var got Event
	working := &mockChannel{SendFunc: func(ctx context.Context, restaurantID string, event Event) error {
		got = event
		return nil
	}}
	d := NewDispatcher(zap.NewNop(), time.Second,
		Route{Name: "first", Channel: failing},
		Route{Name: "second", Channel: working},
	)

	d.Notify(context.Background(), "r-1", testEvent())
	d.Wait()

	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, working.calls)
	assert.Equal(t, "o-1", got.OrderID)
}

func TestDispatcher_IgnoresCallerCancellation(t *testing.T) {
	var ctxErr error
	ch := &mockChannel{SendFunc: func(ctx context.Context, restaurantID string, event Event) error {
		ctxErr = ctx.Err()
		return nil
	}}
	d := NewDispatcher(zap.NewNop(), time.Second, Route{Name: "ws", Channel: ch})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Notify(ctx, "r-1", testEvent())
	d.Wait()

	assert.NoError(t, ctxErr)
}

func TestHandler_RejectsPlainHTTPRequest(t *testing.T) {
	hub := NewHub(zap.NewNop())
	router := chi.NewRouter()
	router.Get("/ws/restaurants/{restaurantId}", NewHandler(hub, zap.NewNop()).HandleRestaurantSession)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/restaurants/r-1", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, hub.Count("r-1"))
}
