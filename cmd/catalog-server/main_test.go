package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/signalsfoundry/orbitwatch/internal/ingest"
	"github.com/signalsfoundry/orbitwatch/internal/journal"
	"github.com/signalsfoundry/orbitwatch/internal/logging"
	"github.com/signalsfoundry/orbitwatch/internal/query"
)

const upstreamBody = `[
  {"OBJECT_NAME":"COSMOS 1408 DEB","NORAD_CAT_ID":49863,"MEAN_MOTION":15.5,"ECCENTRICITY":0.001,"INCLINATION":82.56},
  {"OBJECT_NAME":"INTELSAT 901","NORAD_CAT_ID":26824,"MEAN_MOTION":1.0027,"ECCENTRICITY":0.0002,"INCLINATION":0.02}
]`

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestCatalogServerStartupSmoke(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, upstreamBody)
	}))
	defer upstream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}

	cfg := Config{
		ListenAddress:   lis.Addr().String(),
		HTTPAddress:     freeAddr(t),
		MetricsAddress:  "",
		UpstreamURL:     upstream.URL,
		UpstreamTimeout: 2 * time.Second,
		JournalPath:     filepath.Join(t.TempDir(), "journal.db"),
		LogLevel:        "warn",
		LogFormat:       "text",
	}
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: io.Discard})

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, log, lis)
	}()

	conn, err := grpc.NewClient(cfg.ListenAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("grpc.NewClient: %v", err)
	}
	defer conn.Close()
	client := query.NewClient(conn)

	deadline := time.Now().Add(5 * time.Second)
	for {
		st, err := client.GetStatistics(ctx)
		if err == nil && st.Total == 2 {
			if st.HighRisk != 1 || st.LEO != 1 {
				t.Fatalf("GetStatistics = %+v, want 1 high risk and 1 LEO", st)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("catalog never loaded: stats=%+v err=%v", st, err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	recs, total, err := client.ListDebris(ctx, "cosmos", "")
	if err != nil {
		t.Fatalf("ListDebris: %v", err)
	}
	if total != 2 || len(recs) != 1 || recs[0].CatalogID != 49863 {
		t.Fatalf("ListDebris = %+v (total %d)", recs, total)
	}

	resp := getWithRetry(t, "http://"+cfg.HTTPAddress+"/debris")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /debris status = %d", resp.StatusCode)
	}
	if string(body) != upstreamBody {
		t.Fatalf("GET /debris body = %q", body)
	}

	cancel()

	if err := <-errCh; err != nil {
		t.Fatalf("server returned error: %v", err)
	}

	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	defer j.Close()
	entries, err := j.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Records != 2 {
		t.Fatalf("journal entries = %+v, want one live load of 2", entries)
	}
}

func getWithRetry(t *testing.T, url string) *http.Response {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			return resp
		}
		if time.Now().After(deadline) {
			t.Fatalf("GET %s: %v", url, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestShutdownDuringInitialLoadIsJournaled(t *testing.T) {
	requested := make(chan struct{})
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(requested)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer upstream.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}

	cfg := Config{
		ListenAddress:   lis.Addr().String(),
		UpstreamURL:     upstream.URL,
		UpstreamTimeout: 30 * time.Second,
		JournalPath:     filepath.Join(t.TempDir(), "journal.db"),
	}
	log := logging.New(logging.Config{Level: "error", Output: io.Discard})

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, cfg, log, lis)
	}()

	select {
	case <-requested:
	case <-time.After(5 * time.Second):
		t.Fatalf("upstream was never called")
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("server returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancel")
	}

	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	defer j.Close()
	entries, err := j.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].Source != ingest.SourceFallback {
		t.Fatalf("journal entries = %+v, want one fallback load", entries)
	}
}
