// Package clmem is the host-side resource manager for an OpenCL-family
// device memory subsystem: capability-typed buffers, a crash-safe resize
// engine, and an event bus coordinating asynchronous device completions.
//
// A Context owns a Driver connection and a BufferRegistry. Buffers are
// assembled from a fixed set of capability traits (KernelBindable,
// Readable, Writable, Dynamic, HostShadowed) via the builder functions in
// concrete.go; capability gating happens at call time, not at the type
// level, so every Buffer satisfies every capability interface and a
// misuse (writing to a read-only buffer, say) surfaces as a KindConfigError
// rather than a compile error.
package clmem
