package signals

import "testing"

func TestCluster_GroupsSimilarSingletonsAndClusters(t *testing.T) {
	embeddings := [][]float32{
		{1, 0, 0}, // a
		{0.99, 0.01, 0}, // b, close to a
		{0, 1, 0}, // c, far from a/b -> singleton (alone in its neighborhood)
	}
	groups := Cluster(embeddings, 0.1, 2)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups (1 cluster of 2 + 1 singleton), got %d: %v", len(groups), groups)
	}
	var sizes []int
	for _, g := range groups {
		sizes = append(sizes, len(g))
	}
	foundPair, foundSingleton := false, false
	for _, s := range sizes {
		if s == 2 {
			foundPair = true
		}
		if s == 1 {
			foundSingleton = true
		}
	}
	if !foundPair || !foundSingleton {
		t.Fatalf("expected one pair and one singleton, got sizes %v", sizes)
	}
}

func TestCluster_AllNoiseWhenFarApart(t *testing.T) {
	embeddings := [][]float32{{1, 0}, {0, 1}, {-1, 0}}
	groups := Cluster(embeddings, 0.01, 2)
	if len(groups) != 3 {
		t.Fatalf("expected 3 singleton groups, got %d", len(groups))
	}
}
