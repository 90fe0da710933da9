package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleNodesJSON = `[
	{"public_key":"F3A9C2","adv_name":"Guildford West","type":2,
	 "adv_lat":-33.85,"adv_lon":150.98,
	 "params":{"freq":915.8,"sf":11,"bw":250},
	 "last_advert":"2026-08-20T02:15:00Z"},
	{"public_key":"0b77de","name":"Westmead","type":1,
	 "adv_lat":-33.80,"adv_lon":150.99,
	 "params":{"freq":915.8,"sf":11}},
	{"public_key":"ffffff","type":2},
	{"public_key":"a1b2c3","adv_name":"NoLocation","type":1}
]`

func TestParseNodes(t *testing.T) {
	nodes, dropped, err := parseNodes([]byte(sampleNodesJSON))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if dropped != 1 {
		t.Fatalf("expected 1 dropped nameless record, got %d", dropped)
	}
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}

	g := nodes[0]
	if g.Name != "Guildford West" || g.PublicKey != "f3a9c2" {
		t.Fatalf("unexpected first node: %+v", g)
	}
	if !g.IsRepeater() || g.FreqMHz != 915.8 || g.SF != 11 || g.BW != 250 {
		t.Fatalf("radio params not parsed: %+v", g)
	}
	if !g.HasLocation || g.LastSeen.IsZero() {
		t.Fatalf("location/last-seen not parsed: %+v", g)
	}

	if nodes[1].Name != "Westmead" {
		t.Fatalf("expected fallback name field to be used, got %q", nodes[1].Name)
	}
	if nodes[2].HasLocation {
		t.Fatalf("expected no location for node without coordinates")
	}
}

func TestParseNodesWrappedList(t *testing.T) {
	nodes, _, err := parseNodes([]byte(`{"nodes":[{"adv_name":"X","type":1}]}`))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(nodes) != 1 || nodes[0].Name != "X" {
		t.Fatalf("unexpected nodes: %+v", nodes)
	}
}

func TestParseNodesNotAList(t *testing.T) {
	if _, _, err := parseNodes([]byte(`{"error":"nope"}`)); err == nil {
		t.Fatalf("expected error for non-list response")
	}
}

func TestClientFetchAllNodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/nodes" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sampleNodesJSON))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	nodes, err := c.FetchAllNodes(context.Background())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
}

func TestClientFetchAllNodesBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.FetchAllNodes(context.Background()); err == nil {
		t.Fatalf("expected error for non-200 status")
	}
}

func TestNodeSummaryLine(t *testing.T) {
	nodes, _, _ := parseNodes([]byte(sampleNodesJSON))
	line := nodes[0].SummaryLine()
	want := "Guildford West(RPT)|-33.8500,150.9800|915.8MHz|SF11|BW250|heard:2026-08-20 02:15"
	if line != want {
		t.Fatalf("expected %q, got %q", want, line)
	}
	if len(line) > 280 {
		t.Fatalf("summary line exceeds outbound limit: %d", len(line))
	}
}
