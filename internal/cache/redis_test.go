package cache

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// ---------- tiny RESP2 server (GET/SET/PING; +OK for anything else) ----------

type fakeRedis struct {
	ln   net.Listener
	mu   sync.Mutex
	data map[string]string
	ttls map[string]string
}

func startFakeRedis(t *testing.T) *fakeRedis {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	f := &fakeRedis{ln: ln, data: map[string]string{}, ttls: map[string]string{}}
	t.Cleanup(func() { _ = ln.Close() })
	go f.serve()
	return f
}

func (f *fakeRedis) addr() string { return f.ln.Addr().String() }

func (f *fakeRedis) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakeRedis) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		_, _ = io.WriteString(conn, f.exec(args))
	}
}

func (f *fakeRedis) exec(args []string) string {
	if len(args) == 0 {
		return "-ERR empty\r\n"
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch strings.ToUpper(args[0]) {
	case "PING":
		return "+PONG\r\n"
	case "GET":
		v, ok := f.data[args[1]]
		if !ok {
			return "$-1\r\n"
		}
		return fmt.Sprintf("$%d\r\n%s\r\n", len(v), v)
	case "SET":
		f.data[args[1]] = args[2]
		if len(args) >= 5 {
			f.ttls[args[1]] = strings.ToUpper(args[3]) + " " + args[4]
		}
		return "+OK\r\n"
	default:
		return "+OK\r\n"
	}
}

func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "*")))
	if err != nil {
		return nil, err
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		hdr, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(hdr, "$")))
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func newTestClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Protocol:     2,
		DialTimeout:  200 * time.Millisecond,
		ReadTimeout:  200 * time.Millisecond,
		WriteTimeout: 200 * time.Millisecond,
		MaxRetries:   -1,
	})
}

// ---------- tests ----------

func TestKey(t *testing.T) {
	if got := Key("machine learning"); got != "roadmap:title:machine learning" {
		t.Fatalf("Key = %q", got)
	}
}

func TestDisabledCache_IsNoop(t *testing.T) {
	ctx := context.Background()
	for _, c := range []*RoadmapCache{nil, Disabled(), New(nil, 0)} {
		if c.Enabled() {
			t.Fatalf("expected disabled cache")
		}
		c.Set(ctx, "go", Entry{ID: "r1", Content: "[]"})
		if _, ok := c.Get(ctx, "go"); ok {
			t.Fatalf("disabled cache must never hit")
		}
		if err := c.Ping(ctx); err != nil {
			t.Fatalf("Ping on disabled cache: %v", err)
		}
		if err := c.Close(); err != nil {
			t.Fatalf("Close on disabled cache: %v", err)
		}
	}
}

func TestOpen_EmptyURL_Disabled(t *testing.T) {
	c, err := Open(context.Background(), "", time.Hour)
	if err != nil || c.Enabled() {
		t.Fatalf("Open(\"\") = (%v, %v); want disabled, nil", c, err)
	}
}

func TestOpen_BadURL_ReturnsDisabledAndError(t *testing.T) {
	c, err := Open(context.Background(), "not-a-url", time.Hour)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if c == nil || c.Enabled() {
		t.Fatalf("expected a usable disabled cache on error")
	}
}

func TestSetThenGet_RoundTripsWithTTL(t *testing.T) {
	srv := startFakeRedis(t)
	c := New(newTestClient(srv.addr()), 90*time.Second)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	if _, ok := c.Get(ctx, "rust"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	c.Set(ctx, "rust", Entry{ID: "r1", Content: `[{"name":"Rust"}]`})

	got, ok := c.Get(ctx, "rust")
	if !ok || got.ID != "r1" || got.Content != `[{"name":"Rust"}]` {
		t.Fatalf("Get = (%+v, %v)", got, ok)
	}

	srv.mu.Lock()
	ttl := srv.ttls[Key("rust")]
	srv.mu.Unlock()
	if ttl != "EX 90" {
		t.Fatalf("stored ttl = %q; want EX 90", ttl)
	}
}

func TestGet_CorruptEntryIsMiss(t *testing.T) {
	srv := startFakeRedis(t)
	srv.data[Key("go")] = "not json"
	c := New(newTestClient(srv.addr()), time.Minute)
	t.Cleanup(func() { _ = c.Close() })

	if _, ok := c.Get(context.Background(), "go"); ok {
		t.Fatalf("corrupt entry must be a miss")
	}
}

func TestUnreachableRedis_DegradesToMiss(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close() // nothing listens here any more

	c := New(newTestClient(addr), time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	ctx := context.Background()

	c.Set(ctx, "go", Entry{ID: "r1", Content: "[]"}) // must not panic
	if _, ok := c.Get(ctx, "go"); ok {
		t.Fatalf("unreachable redis must be a miss")
	}
	if err := c.Ping(ctx); err == nil {
		t.Fatalf("Ping should surface the connection error")
	}

	if oc, err := Open(ctx, "redis://"+addr, time.Minute); err == nil || oc.Enabled() {
		t.Fatalf("Open against dead server = (%v, %v); want disabled + error", oc, err)
	}
}
