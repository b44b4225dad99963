package rhi

// SwapChain owns the backbuffers and the present queue. Frame N+K reuses
// the command allocator K mod GetBufferCount after its fence wait.
type SwapChain interface {
	GetBufferCount() uint32

	// GetCurrentBackbufferIndex is the frame ring index CPU-side recording
	// targets this frame.
	GetCurrentBackbufferIndex() uint32

	GetCurrentBackbuffer() Texture
	GetCurrentBackbufferRTV() RenderTargetView

	Present() error

	// SwapBackbuffer advances the ring after a present.
	SwapBackbuffer()

	Resize(width, height uint32) error

	GetWidth() uint32
	GetHeight() uint32
	GetBackbufferFormat() PixelFormat
}
