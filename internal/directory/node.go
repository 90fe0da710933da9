package directory

import (
	"fmt"
	"strings"
	"time"
)

// Node type values used by the map API.
const (
	TypeCompanion = 1
	TypeRepeater  = 2
)

// NodeRecord is one network participant as reported by the map API. Records
// are immutable snapshots; a cache refresh replaces them wholesale.
type NodeRecord struct {
	PublicKey string
	Name      string
	Type      int
	FreqMHz   float64
	SF        int
	BW        float64
	LastSeen  time.Time

	Lat, Lon    float64
	HasLocation bool
}

func (n NodeRecord) IsRepeater() bool { return n.Type == TypeRepeater }

// CategoryLabel is the short type tag used in outbound messages.
func (n NodeRecord) CategoryLabel() string {
	if n.IsRepeater() {
		return "RPT"
	}
	return "Node"
}

// SummaryLine renders the fixed-shape lookup answer: name, category and every
// known radio/location field, pipe-separated.
func (n NodeRecord) SummaryLine() string {
	parts := []string{fmt.Sprintf("%s(%s)", n.Name, n.CategoryLabel())}
	if n.HasLocation {
		parts = append(parts, fmt.Sprintf("%.4f,%.4f", n.Lat, n.Lon))
	}
	if n.FreqMHz > 0 {
		parts = append(parts, fmt.Sprintf("%gMHz", n.FreqMHz))
	}
	if n.SF > 0 {
		parts = append(parts, fmt.Sprintf("SF%d", n.SF))
	}
	if n.BW > 0 {
		parts = append(parts, fmt.Sprintf("BW%g", n.BW))
	}
	if !n.LastSeen.IsZero() {
		parts = append(parts, "heard:"+n.LastSeen.UTC().Format("2006-01-02 15:04"))
	}
	return strings.Join(parts, "|")
}

// ContextLine is the reduced form used in LLM context bundles.
func (n NodeRecord) ContextLine() string {
	loc := "N/A"
	if n.HasLocation {
		loc = fmt.Sprintf("%.2f,%.2f", n.Lat, n.Lon)
	}
	freq := "N/A"
	if n.FreqMHz > 0 {
		freq = fmt.Sprintf("%gMHz", n.FreqMHz)
	}
	sf := "N/A"
	if n.SF > 0 {
		sf = fmt.Sprintf("SF%d", n.SF)
	}
	return fmt.Sprintf("%s(%s,%s,%s,%s)", n.Name, n.CategoryLabel(), freq, sf, loc)
}

// Region selects one of the nested geographic search tiers.
type Region int

const (
	// RegionMetro is the primary search tier (Greater Sydney).
	RegionMetro Region = iota
	// RegionWide is the fallback tier (NSW); a superset of RegionMetro.
	RegionWide
)

func (r Region) String() string {
	switch r {
	case RegionMetro:
		return "sydney"
	case RegionWide:
		return "nsw"
	default:
		return fmt.Sprintf("region(%d)", int(r))
	}
}

type boundingBox struct {
	latMin, latMax float64
	lonMin, lonMax float64
}

func (b boundingBox) contains(n NodeRecord) bool {
	if !n.HasLocation {
		return false
	}
	return n.Lat >= b.latMin && n.Lat <= b.latMax &&
		n.Lon >= b.lonMin && n.Lon <= b.lonMax
}

// Greater Sydney, then the broader NSW box that contains it.
var (
	metroBounds = boundingBox{latMin: -34.5, latMax: -33.0, lonMin: 150.0, lonMax: 151.5}
	wideBounds  = boundingBox{latMin: -38.0, latMax: -28.0, lonMin: 140.0, lonMax: 154.0}
)
