package kube

import (
	"sort"
	"strings"

	"github.com/kompox/knative-charms/internal/naming"
)

// ComputeContentHash returns a short hash of kv that does not depend on map
// iteration order.
func ComputeContentHash(kv map[string]string) string {
	if len(kv) == 0 {
		return naming.ShortHash("", naming.DefaultHashLength)
	}
	var keys []string
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kv[k])
		b.WriteByte(0)
	}
	return naming.ShortHash(b.String(), naming.DefaultHashLength)
}
