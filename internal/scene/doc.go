// Package scene provides the host-side collaborators the rebake procedure
// runs against: selectable objects, skeleton instances with copy
// constraints, a sampler that resolves constrained poses per frame, and the
// append-only animation track container.
//
// Everything here can be replaced by a real content-creation host. The
// in-memory implementations (MemoryHost, MemoryContainer, Solver) back the
// CLI and the tests.
package scene
