package assembly

import "errors"

// Sentinel errors for document assembly.
var (
	ErrAssemblyFailed = errors.New("document assembly failed")
	ErrNotEmbeddable  = errors.New("image type is not embeddable")
)
