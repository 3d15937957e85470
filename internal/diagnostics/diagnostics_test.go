package diagnostics

import "testing"

func TestLogFieldsAreKeyValuePairs(t *testing.T) {
	snap := Snapshot{CPUPercent: 12.5, MemPercent: 40, MemUsedBytes: 100, MemTotalBytes: 200}
	fields := snap.LogFields()
	if len(fields)%2 != 0 {
		t.Fatalf("expected an even number of key/value entries, got %d", len(fields))
	}
	if fields[0] != "host_cpu_pct" || fields[1] != 12.5 {
		t.Fatalf("unexpected first pair: %+v", fields[:2])
	}
}
