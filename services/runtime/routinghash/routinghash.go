// Package routinghash picks which node serves a dataset key using a
// consistent-hash argmax: every candidate node is scored by
// sha256_hex("key|node") and the node with the highest score wins, with
// ties resolved toward the earliest node in sorted order. Grounded
// directly on the original server's routing_hash.rs.
package routinghash

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// Route returns the node that owns datasetKey among nodes, or "" if nodes
// is empty. Sorting nodes first makes the tie-break deterministic:
// sha256_hex comparisons are strict-greater to replace the current best,
// so the first node encountered in sorted order wins any tie.
func Route(datasetKey string, nodes []string) (string, bool) {
	if len(nodes) == 0 {
		return "", false
	}
	sorted := append([]string(nil), nodes...)
	sort.Strings(sorted)

	var bestNode, bestScore string
	haveBest := false
	for _, node := range sorted {
		score := scoreHex(datasetKey, node)
		if haveBest && score <= bestScore {
			continue
		}
		bestScore = score
		bestNode = node
		haveBest = true
	}
	return bestNode, haveBest
}

func scoreHex(datasetKey, node string) string {
	sum := sha256.Sum256([]byte(datasetKey + "|" + node))
	return hex.EncodeToString(sum[:])
}
