package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type recordingObserver struct {
	outcomes []string
}

func (r *recordingObserver) ObserveUpstreamFetch(outcome string, _ time.Duration) {
	r.outcomes = append(r.outcomes, outcome)
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchDecodesElementSets(t *testing.T) {
	srv := serve(t, http.StatusOK, `[
		{"OBJECT_NAME":"ISS (ZARYA)","NORAD_CAT_ID":25544,"MEAN_MOTION":15.5,"INCLINATION":51.64,"ECCENTRICITY":0.0003},
		{"NORAD_CAT_ID":1,"MEAN_MOTION":14.0,"ECCENTRICITY":0.02}
	]`)
	obs := &recordingObserver{}
	c := New(srv.URL, WithObserver(obs))

	sets, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("len(sets) = %d, want 2", len(sets))
	}
	if sets[0].ObjectName != "ISS (ZARYA)" || sets[0].Inclination == nil || *sets[0].Inclination != 51.64 {
		t.Fatalf("first set = %+v", sets[0])
	}
	if sets[1].ObjectName != "" || sets[1].Inclination != nil {
		t.Fatalf("missing fields not left empty: %+v", sets[1])
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != "ok" {
		t.Fatalf("outcomes = %v", obs.outcomes)
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := serve(t, http.StatusServiceUnavailable, `{"error":"down"}`)
	obs := &recordingObserver{}
	c := New(srv.URL, WithObserver(obs))

	_, err := c.Fetch(context.Background())
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("err = %v, want ErrUnexpectedStatus", err)
	}
	if obs.outcomes[0] != "bad_status" {
		t.Fatalf("outcome = %s", obs.outcomes[0])
	}
}

func TestFetchMalformedPayload(t *testing.T) {
	for _, body := range []string{`not json`, `{"OBJECT_NAME":"x"}`, `null`} {
		srv := serve(t, http.StatusOK, body)
		_, err := New(srv.URL).Fetch(context.Background())
		if !errors.Is(err, ErrMalformedPayload) {
			t.Fatalf("body %q: err = %v, want ErrMalformedPayload", body, err)
		}
	}
}

func TestFetchTransportError(t *testing.T) {
	srv := serve(t, http.StatusOK, `[]`)
	url := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	_, err := New(url, WithObserver(obs), WithTimeout(time.Second)).Fetch(context.Background())
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if obs.outcomes[0] != "transport_error" {
		t.Fatalf("outcome = %s", obs.outcomes[0])
	}
}

func TestFetchRawForwardsBody(t *testing.T) {
	srv := serve(t, http.StatusOK, `[{"OBJECT_NAME":"A"}]`)
	body, err := New(srv.URL).FetchRaw(context.Background())
	if err != nil {
		t.Fatalf("FetchRaw error: %v", err)
	}
	if string(body) != `[{"OBJECT_NAME":"A"}]` {
		t.Fatalf("body = %s", body)
	}

	bad := serve(t, http.StatusOK, `<html>`)
	if _, err := New(bad.URL).FetchRaw(context.Background()); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("FetchRaw html err = %v", err)
	}
}

func TestNewDefaultsURL(t *testing.T) {
	if got := New("").URL(); got != DefaultURL {
		t.Fatalf("URL() = %q", got)
	}
}
