package internaldefs

import (
	"strings"
	"testing"
)

func TestCumulative(t *testing.T) {
	got := Cumulative([]uint64{1, 0, 2, 0, 0, 0, 0, 3})
	want := []uint64{1, 1, 3, 3, 3, 3, 3, 6}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bucket %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestCumulativeShortInput(t *testing.T) {
	got := Cumulative([]uint64{4})
	if len(got) != BucketCount || got[BucketCount-1] != 4 {
		t.Fatalf("got %v", got)
	}
	if empty := Cumulative(nil); empty[BucketCount-1] != 0 {
		t.Fatalf("nil input total = %d", empty[BucketCount-1])
	}
}

func TestDefsAreUniqueAndNamespaced(t *testing.T) {
	seen := map[string]bool{}
	all := append(append([]Def{}, CounterDefs...), HistogramDefs...)
	all = append(all, AuditDropped)
	for _, d := range all {
		if !strings.HasPrefix(d.Name, Namespace) {
			t.Fatalf("%s missing namespace", d.Name)
		}
		if seen[d.Name] {
			t.Fatalf("duplicate metric name %s", d.Name)
		}
		seen[d.Name] = true
	}
}
