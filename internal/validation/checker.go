package validation

import (
	"devcheck/internal/containerizer"
)

// Checker runs the checks that need a container engine or a devcontainer CLI.
// Pure filesystem and descriptor checks are package functions.
type Checker struct {
	Runtime      containerizer.ContainerRuntime
	DevContainer containerizer.DevContainerCLI
	Catalog      Catalog
}

// NewChecker builds a Checker with the default toolchain catalog.
func NewChecker(runtime containerizer.ContainerRuntime, dc containerizer.DevContainerCLI) *Checker {
	return &Checker{Runtime: runtime, DevContainer: dc, Catalog: DefaultCatalog()}
}
