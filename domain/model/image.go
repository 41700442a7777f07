package model

// ImageInfo describes the container image a charm deploys.
// Username and Password are set only for private registries.
type ImageInfo struct {
	Path     string
	Username string
	Password string
}
