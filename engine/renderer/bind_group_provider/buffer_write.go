package bind_group_provider

// BufferWrite is a pending upload of uniform data into the buffer at one binding of a
// provider. Writes are queued while a frame is encoded and flushed before submission, so
// every draw slot must own distinct buffers.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// Valid reports whether the write targets an existing buffer.
func (w BufferWrite) Valid() bool {
	return w.Provider != nil && w.Provider.Buffer(w.Binding) != nil && len(w.Data) > 0
}
