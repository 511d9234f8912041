package mirrors

import "testing"

func TestRegistryPreservesOrder(t *testing.T) {
	bases := []string{"https://m1", "https://m2", "https://m3"}
	reg := New(bases)

	got := reg.Captions()
	for i, want := range bases {
		if got[i] != want {
			t.Fatalf("Captions()[%d] = %q, want %q", i, got[i], want)
		}
	}
	if reg.Len() != 3 {
		t.Errorf("Len() = %d", reg.Len())
	}
}

func TestRegistryCopiesInput(t *testing.T) {
	bases := []string{"https://m1", "https://m2"}
	reg := New(bases)

	bases[0] = "https://mutated"
	if reg.Audio()[0] != "https://m1" {
		t.Error("registry shares backing storage with the caller's slice")
	}
}
