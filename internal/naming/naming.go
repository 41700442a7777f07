// Package naming centralizes the names and short hashes given to generated
// Kubernetes objects so the format can change without touching call sites.
package naming

import (
	"crypto/sha1"
	"fmt"
)

// DefaultHashLength is the hex length of hashes used in annotations.
const DefaultHashLength = 6

// ShortHash returns the hex SHA1 prefix of length n (clamped to digest size).
func ShortHash(s string, n int) string {
	sum := sha1.Sum([]byte(s))
	h := fmt.Sprintf("%x", sum)
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}

// ClusterRoleName returns the name of a cluster-scoped role owned by an
// application. Cluster roles share one namespace across the cluster, so the
// application's namespace is part of the name.
//
//	<namespace>-<role>
func ClusterRoleName(namespace, role string) string {
	return fmt.Sprintf("%s-%s", namespace, role)
}

// RoleName returns the name of the i-th role of app when the role is unnamed.
// The first role takes the application name.
func RoleName(app string, i int) string {
	if i == 0 {
		return app
	}
	return fmt.Sprintf("%s-%d", app, i)
}

// PullSecretName returns the name of the registry credentials secret of app.
func PullSecretName(app string) string {
	return app + "-registry"
}
