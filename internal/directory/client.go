package directory

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	defaultFetchTimeout = 10 * time.Second
	maxResponseBytes    = 32 << 20
)

// Source supplies the full node list. The cache is its only caller.
type Source interface {
	FetchAllNodes(ctx context.Context) ([]NodeRecord, error)
}

// Client fetches node records from the MeshCore map API.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	LogPrefix  string
}

func NewClient(baseURL, logPrefix string) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: defaultFetchTimeout},
		BaseURL:    strings.TrimRight(baseURL, "/"),
		LogPrefix:  logPrefix,
	}
}

func (c *Client) FetchAllNodes(ctx context.Context) ([]NodeRecord, error) {
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultFetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/nodes", nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch nodes: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch nodes: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch nodes: read body: %w", err)
	}

	nodes, dropped, err := parseNodes(body)
	if err != nil {
		return nil, err
	}
	if dropped > 0 && strings.TrimSpace(c.LogPrefix) != "" {
		log.Printf("%s directory fetch dropped %d malformed records", c.LogPrefix, dropped)
	}
	return nodes, nil
}

// parseNodes converts the loose map-API JSON into typed records at the
// boundary. Records without a usable name are dropped and counted, never
// propagated half-typed.
func parseNodes(body []byte) (nodes []NodeRecord, dropped int, err error) {
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		// Some deployments wrap the list in {"nodes": [...]}.
		root = root.Get("nodes")
		if !root.IsArray() {
			return nil, 0, fmt.Errorf("parse nodes: response is not a node list")
		}
	}

	root.ForEach(func(_, v gjson.Result) bool {
		n, ok := parseNode(v)
		if !ok {
			dropped++
			return true
		}
		nodes = append(nodes, n)
		return true
	})
	return nodes, dropped, nil
}

func parseNode(v gjson.Result) (NodeRecord, bool) {
	name := strings.TrimSpace(v.Get("adv_name").String())
	if name == "" {
		name = strings.TrimSpace(v.Get("name").String())
	}
	if name == "" {
		return NodeRecord{}, false
	}

	n := NodeRecord{
		PublicKey: strings.ToLower(strings.TrimSpace(v.Get("public_key").String())),
		Name:      name,
		Type:      int(v.Get("type").Int()),
		FreqMHz:   v.Get("params.freq").Float(),
		SF:        int(v.Get("params.sf").Int()),
		BW:        v.Get("params.bw").Float(),
	}

	lat, lon := v.Get("adv_lat"), v.Get("adv_lon")
	if lat.Exists() && lon.Exists() && (lat.Float() != 0 || lon.Float() != 0) {
		n.Lat, n.Lon = lat.Float(), lon.Float()
		n.HasLocation = true
	}

	if raw := strings.TrimSpace(v.Get("last_advert").String()); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			n.LastSeen = ts
		} else if unix := v.Get("last_advert").Int(); unix > 0 {
			n.LastSeen = time.Unix(unix, 0)
		}
	}
	return n, true
}
