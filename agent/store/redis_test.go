package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	statex "github.com/merrysway/brewflow/agent/state"
)

func newTestRestClient(t *testing.T, server *httptest.Server, opts ...RestOption) *RestClient {
	t.Helper()
	opts = append([]RestOption{WithHTTPClient(server.Client())}, opts...)
	client, err := NewRestClient(RestConfig{URL: server.URL, Token: "token"}, opts...)
	if err != nil {
		t.Fatalf("NewRestClient() error = %v", err)
	}
	return client
}

func TestRestClientSetJSONSendsSetCommand(t *testing.T) {
	t.Parallel()

	var gotCommand []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Errorf("decode command: %v", err)
		}
		fmt.Fprint(w, `{"result":"OK"}`)
	}))
	t.Cleanup(server.Close)

	client := newTestRestClient(t, server)
	if err := client.SetJSON(context.Background(), "brew:memory:u1", memoryRecord{
		Memory: statex.UserMemory{Name: "Asha"},
	}); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}

	if len(gotCommand) != 3 {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
	if gotCommand[0] != "SET" || gotCommand[1] != "brew:memory:u1" {
		t.Fatalf("unexpected command prefix: %#v", gotCommand[:2])
	}
}

func TestRestClientSetJSONAppendsTTL(t *testing.T) {
	t.Parallel()

	var gotCommand []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Errorf("decode command: %v", err)
		}
		fmt.Fprint(w, `{"result":"OK"}`)
	}))
	t.Cleanup(server.Close)

	client := newTestRestClient(t, server, WithTTL(90*time.Second))
	if err := client.SetJSON(context.Background(), "k", map[string]string{"a": "b"}); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}

	if len(gotCommand) != 5 {
		t.Fatalf("expected SET with EX, got %#v", gotCommand)
	}
	if gotCommand[3] != "EX" {
		t.Fatalf("command[3] = %v, want EX", gotCommand[3])
	}
	if gotCommand[4] != float64(90) {
		t.Fatalf("command[4] = %v, want 90", gotCommand[4])
	}
}

func TestRestClientGetJSONDecodesRecord(t *testing.T) {
	t.Parallel()

	seed := memoryRecord{Memory: statex.UserMemory{Name: "Asha", Likes: []string{"Latte"}}}
	payload, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("marshal seed: %v", err)
	}
	encoded, err := json.Marshal(string(payload))
	if err != nil {
		t.Fatalf("marshal encoded seed: %v", err)
	}

	var gotCommand []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Errorf("decode command: %v", err)
		}
		fmt.Fprintf(w, `{"result":%s}`, encoded)
	}))
	t.Cleanup(server.Close)

	client := newTestRestClient(t, server)

	var rec memoryRecord
	found, err := client.GetJSON(context.Background(), "brew:memory:u1", &rec)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if !found {
		t.Fatal("expected record found")
	}
	if rec.Memory.Name != "Asha" || len(rec.Memory.Likes) != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if gotCommand[0] != "GET" {
		t.Fatalf("command[0] = %v, want GET", gotCommand[0])
	}
}

func TestRestClientGetJSONMissingKey(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":null}`)
	}))
	t.Cleanup(server.Close)

	client := newTestRestClient(t, server)

	var rec memoryRecord
	found, err := client.GetJSON(context.Background(), "brew:memory:unknown", &rec)
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if found {
		t.Fatal("expected record not found")
	}
}

func TestRestClientSurfacesRedisError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"WRONGTYPE"}`)
	}))
	t.Cleanup(server.Close)

	client := newTestRestClient(t, server)
	if err := client.Delete(context.Background(), "k"); err == nil {
		t.Fatal("expected redis error")
	}
}

func TestRestClientRejectsEmptyKey(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":"OK"}`)
	}))
	t.Cleanup(server.Close)

	client := newTestRestClient(t, server)

	var rec memoryRecord
	if _, err := client.GetJSON(context.Background(), "   ", &rec); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestMemoryStoreRoundTripKeys(t *testing.T) {
	t.Parallel()

	var gotCommands [][]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var cmd []any
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			t.Errorf("decode command: %v", err)
		}
		gotCommands = append(gotCommands, cmd)
		fmt.Fprint(w, `{"result":"OK"}`)
	}))
	t.Cleanup(server.Close)

	client := newTestRestClient(t, server)
	store, err := NewMemoryStore(client)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}

	if err := store.Put(context.Background(), "u1", statex.UserMemory{Name: "Asha"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if len(gotCommands) != 1 || gotCommands[0][1] != "brew:memory:u1" {
		t.Fatalf("unexpected commands: %#v", gotCommands)
	}

	if _, err := store.Get(context.Background(), "  "); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestOrderStorePutPendingDeletesEmptyCart(t *testing.T) {
	t.Parallel()

	var gotCommand []any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&gotCommand); err != nil {
			t.Errorf("decode command: %v", err)
		}
		fmt.Fprint(w, `{"result":1}`)
	}))
	t.Cleanup(server.Close)

	client := newTestRestClient(t, server)
	store, err := NewOrderStore(client, nil)
	if err != nil {
		t.Fatalf("NewOrderStore() error = %v", err)
	}

	if err := store.PutPending(context.Background(), "u1", nil, 0); err != nil {
		t.Fatalf("PutPending() error = %v", err)
	}
	if gotCommand[0] != "DEL" || gotCommand[1] != "brew:order:u1" {
		t.Fatalf("unexpected command: %#v", gotCommand)
	}
}

func TestOrderStoreConfirmWithoutHistoryReturnsID(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":1}`)
	}))
	t.Cleanup(server.Close)

	client := newTestRestClient(t, server)
	store, err := NewOrderStore(client, nil)
	if err != nil {
		t.Fatalf("NewOrderStore() error = %v", err)
	}

	id, err := store.Confirm(context.Background(), "u1",
		[]statex.OrderLine{statex.NewOrderLine("Latte", 1, 150.0)}, 150.0)
	if err != nil {
		t.Fatalf("Confirm() error = %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty confirmation id")
	}
}
