package clmem

// Shadow exposes the buffer's pinned host staging bytes directly,
// avoiding a per-call allocation. Only legal on buffers built with
// HostShadowed.
func (b *Buffer) Shadow() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.hasHostShadow || b.status != BufferRunning {
		return nil
	}
	return b.staging
}
