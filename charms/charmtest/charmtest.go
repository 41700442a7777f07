// Package charmtest holds helpers shared by the charm builder tests.
package charmtest

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// AssertGolden compares the JSON rendering of got with the JSON document in
// the golden file. Key order and formatting are ignored.
func AssertGolden(t *testing.T, got any, golden string) {
	t.Helper()
	raw, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var gotDoc any
	if err := json.Unmarshal(raw, &gotDoc); err != nil {
		t.Fatalf("unmarshal rendered: %v", err)
	}
	want, err := os.ReadFile(golden)
	if err != nil {
		t.Fatalf("read golden %s: %v", golden, err)
	}
	var wantDoc any
	if err := json.Unmarshal(want, &wantDoc); err != nil {
		t.Fatalf("unmarshal golden %s: %v", golden, err)
	}
	if diff := cmp.Diff(wantDoc, gotDoc); diff != "" {
		t.Errorf("%s mismatch (-want +got):\n%s", golden, diff)
	}
}
