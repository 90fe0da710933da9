package directory

import "strings"

// bestMatch finds a node within one region tier. Match tiers, in order:
// public-key prefix for short hex queries, exact name, substring (guarded
// against tiny fragments), then name prefix. Nodes are already ordered
// most-recently-seen first, so the first hit in a tier wins.
func bestMatch(nodes []NodeRecord, query string) (NodeRecord, bool) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || len(nodes) == 0 {
		return NodeRecord{}, false
	}

	if isHexQuery(query) {
		for _, n := range nodes {
			if n.PublicKey != "" && strings.HasPrefix(n.PublicKey, query) {
				return n, true
			}
		}
	}

	for _, n := range nodes {
		if strings.ToLower(n.Name) == query {
			return n, true
		}
	}

	for _, n := range nodes {
		name := strings.ToLower(n.Name)
		if strings.Contains(name, query) {
			return n, true
		}
		// Reverse containment only counts when the name is not a tiny
		// fragment of the query.
		if strings.Contains(query, name) && len(name)*2 > len(query) {
			return n, true
		}
	}

	for _, n := range nodes {
		if strings.HasPrefix(strings.ToLower(n.Name), query) {
			return n, true
		}
	}

	return NodeRecord{}, false
}

// isHexQuery reports whether the query looks like a public-key prefix:
// 2 to 4 hex digits.
func isHexQuery(q string) bool {
	if len(q) < 2 || len(q) > 4 {
		return false
	}
	for _, r := range q {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
