package determinism

import "testing"

func TestParseDockerStats_ParsesAllFields(t *testing.T) {
	stats, err := parseDockerStats("12.50%,40.00%,256MiB / 1GiB\n")
	if err != nil {
		t.Fatalf("parseDockerStats: %v", err)
	}
	if stats.CPUPercent != 12.5 || stats.MemoryPercent != 40.0 || stats.MemoryUsedMB != 256 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestParseDockerStats_GigabyteUsage(t *testing.T) {
	stats, err := parseDockerStats("1.00%,2.00%,1.5GiB / 4GiB\n")
	if err != nil {
		t.Fatalf("parseDockerStats: %v", err)
	}
	if stats.MemoryUsedMB != 1536 {
		t.Fatalf("expected 1536MB, got %f", stats.MemoryUsedMB)
	}
}

func TestParseDockerStats_MalformedLine(t *testing.T) {
	if _, err := parseDockerStats("garbage"); err == nil {
		t.Fatal("expected error for malformed line")
	}
}
