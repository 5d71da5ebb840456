package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const nextMatchesBody = `{
  "status": true,
  "matchs": [
    {"id": "X1", "timeA": "Espanha", "timeB": "Itália", "hora": "21", "minuto": 5, "horario": "21.05",
     "odds": {"odd_resultado_final_casa": "1.80", "odd_resultado_final_empate": 3.4, "odd_over_2.5": null}},
    {"id": 991, "timeA": "França", "timeB": "Alemanha", "hora": 21, "minuto": "08", "horario": "21:08", "odds": null,
     "resultadoFt": "2-1"}
  ]
}`

func TestNextMatchesRequestShape(t *testing.T) {
	var calls int
	var seenEndpoints []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPost || r.URL.Path != EndpointNextMatches {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-rapidapi-key") != "k" || r.Header.Get("x-rapidapi-host") != "h" {
			t.Errorf("missing rapidapi headers: %v", r.Header)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("content type = %s", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostForm.Get("league") != "euro" || r.PostForm.Get("home") != "bet365" || r.PostForm.Get("sport_id") != "1" {
			t.Errorf("form = %v", r.PostForm)
		}
		_, _ = w.Write([]byte(nextMatchesBody))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL + "/", APIKey: "k", APIHost: "h"}, nil)
	c.OnRequest = func(endpoint string, code int, _ time.Duration) {
		seenEndpoints = append(seenEndpoints, endpoint)
		if code != http.StatusOK {
			t.Errorf("observed code %d", code)
		}
	}

	res, err := c.NextMatches(context.Background(), "euro")
	if err != nil {
		t.Fatalf("next matches: %v", err)
	}
	if calls != 1 || len(seenEndpoints) != 1 {
		t.Fatalf("calls = %d observed = %v", calls, seenEndpoints)
	}
	if !res.Status || len(res.Matchs) != 2 {
		t.Fatalf("response = %+v", res)
	}

	first := res.Matchs[0]
	if first.ID != "X1" || first.Minuto != "5" || first.Horario != "21.05" {
		t.Fatalf("first record = %+v", first)
	}
	odds, err := first.OddsMap()
	if err != nil {
		t.Fatal(err)
	}
	if odds["odd_resultado_final_casa"] != "1.80" || odds["odd_resultado_final_empate"] != "3.4" || odds["odd_over_2.5"] != "" {
		t.Fatalf("odds = %v", odds)
	}

	second := res.Matchs[1]
	if second.ID != "991" || second.FinalScore() != "2-1" {
		t.Fatalf("second record = %+v", second)
	}
	if h, ok := second.Hora.Int(); !ok || h != 21 {
		t.Fatalf("hora = %v", second.Hora)
	}
	if m, err := second.OddsMap(); err != nil || len(m) != 0 {
		t.Fatalf("null odds = %v %v", m, err)
	}
}

func TestFailuresAreTyped(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name:    "non-2xx",
			handler: func(w http.ResponseWriter, r *http.Request) { http.Error(w, "quota", http.StatusTooManyRequests) },
			want:    ErrHTTPStatus,
		},
		{
			name:    "bad json",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("<html>")) },
			want:    ErrDecode,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			},
			want: ErrTransport,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
			res, err := c.Matches(context.Background(), "copa")
			if res != nil {
				t.Fatalf("expected nil response, got %+v", res)
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestStatusFalseIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": false, "matchs": []}`))
	}))
	defer srv.Close()

	res, err := New(Options{BaseURL: srv.URL}, nil).Matches(context.Background(), "super")
	if err != nil || res == nil || res.Status || len(res.Matchs) != 0 {
		t.Fatalf("res = %+v err = %v", res, err)
	}
}

func TestLastUpdated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != EndpointLastUpdated {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"status": true, "updated": "2025-03-10 21:00:00"}`))
	}))
	defer srv.Close()

	out, err := New(Options{BaseURL: srv.URL}, nil).LastUpdated(context.Background(), "premier")
	if err != nil || out["updated"] != "2025-03-10 21:00:00" {
		t.Fatalf("out = %v err = %v", out, err)
	}
}
