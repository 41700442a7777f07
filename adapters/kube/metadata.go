package kube

// Label and annotation keys put on every generated object.
// Keep these constants stable; changes are API-visible in clusters.
const (
	// Domain is the prefix of the custom labels and annotations.
	Domain = "knative-charms.kompox.dev"

	LabelAppK8sName      = "app.kubernetes.io/name"
	LabelAppK8sInstance  = "app.kubernetes.io/instance"
	LabelAppK8sManagedBy = "app.kubernetes.io/managed-by"
	LabelAppK8sComponent = "app.kubernetes.io/component"

	// ManagedBy is the value of LabelAppK8sManagedBy.
	ManagedBy = "knative-charm"

	// AnnotationConfigHash records the configuration fingerprint of the unit.
	AnnotationConfigHash = Domain + "/config-hash"
	// AnnotationContentHash changes whenever the descriptor changes so the pod
	// template rolls.
	AnnotationContentHash = Domain + "/content-hash"
)
