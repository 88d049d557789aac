package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/sobanshoaib/schedular-app-challenge/models"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func dial(t *testing.T, hub *Hub, actor models.Actor) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, actor)
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func session() models.Session {
	return models.Session{
		ID: "1", Date: "2026-02-05", StartTime: "16:00", EndTime: "19:00",
		SlotsTotal: 20, SlotsFilled: 15, CostPerHour: decimal.NewFromInt(25),
		EnrolledStudents: []string{"s1", "s2"},
	}
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	hub, _ := startHub(t)
	admin := dial(t, hub, models.Actor{Username: "admin", Role: models.RoleAdmin})
	parent := dial(t, hub, models.Actor{Username: "parent", Role: models.RoleParent, StudentID: "s2"})
	waitForClients(t, hub, 2)

	hub.SessionChanged(session(), "registered")

	for name, conn := range map[string]*websocket.Conn{"admin": admin, "parent": parent} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("%s read: %v", name, err)
		}
		if ev.Type != "registered" || ev.SessionID != "1" || ev.Session.SlotsFilled != 15 {
			t.Errorf("%s got unexpected event %+v", name, ev)
		}
		want := 2
		if name == "parent" {
			want = 1
		}
		if len(ev.Session.EnrolledStudents) != want {
			t.Errorf("%s sees %v", name, ev.Session.EnrolledStudents)
		}
	}
}

func TestParentEventsHideOtherStudents(t *testing.T) {
	ev := redact(Event{Session: session()}, "s9")
	if len(ev.Session.EnrolledStudents) != 0 {
		t.Errorf("expected no students, got %v", ev.Session.EnrolledStudents)
	}
	ev = redact(Event{Session: session()}, "s1")
	if len(ev.Session.EnrolledStudents) != 1 || ev.Session.EnrolledStudents[0] != "s1" {
		t.Errorf("expected only s1, got %v", ev.Session.EnrolledStudents)
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub, _ := startHub(t)
	conn := dial(t, hub, models.Actor{Username: "admin", Role: models.RoleAdmin})
	waitForClients(t, hub, 1)

	_ = conn.Close()
	waitForClients(t, hub, 0)
}

func TestShutdownClosesClients(t *testing.T) {
	hub, cancel := startHub(t)
	conn := dial(t, hub, models.Actor{Username: "admin", Role: models.RoleAdmin})
	waitForClients(t, hub, 1)

	cancel()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("expected a normal close, got %v", err)
	}
}

func TestSessionChangedNeverBlocks(t *testing.T) {
	hub := NewHub(nil) // not running
	done := make(chan struct{})
	go func() {
		for i := 0; i < eventBuffer+10; i++ {
			hub.SessionChanged(session(), "registered")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SessionChanged blocked on a full queue")
	}
}
