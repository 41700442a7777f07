package naming

import "testing"

func TestShortHash(t *testing.T) {
	// sha1("") = da39a3ee5e6b4b0d3255bfef95601890afd80709
	if got := ShortHash("", DefaultHashLength); got != "da39a3" {
		t.Fatalf("ShortHash(\"\") = %q", got)
	}
	if got := ShortHash("x", 100); len(got) != 40 {
		t.Fatalf("expected length clamped to 40, got %d", len(got))
	}
	if ShortHash("a", 6) == ShortHash("b", 6) {
		t.Fatalf("distinct inputs collided")
	}
}

func TestGeneratedNames(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"cluster role", ClusterRoleName("knative-serving", "controller"), "knative-serving-controller"},
		{"first role", RoleName("controller", 0), "controller"},
		{"second role", RoleName("controller", 1), "controller-1"},
		{"pull secret", PullSecretName("activator"), "activator-registry"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Fatalf("got %q, want %q", tc.got, tc.want)
			}
		})
	}
}
