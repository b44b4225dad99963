package noop

import (
	"github.com/codeonwort/cyseal/rhi"
)

// SwapChain cycles N offscreen textures. Present is a no-op.
type SwapChain struct {
	device *Device
	params rhi.SwapChainCreateParams

	backbuffers []rhi.Texture
	currentIx   uint32
}

func newSwapChain(device *Device, params rhi.SwapChainCreateParams) *SwapChain {
	if params.Width == 0 {
		params.Width = 1
	}
	if params.Height == 0 {
		params.Height = 1
	}
	if params.BackbufferFormat == rhi.PixelFormatUnknown {
		params.BackbufferFormat = rhi.PixelFormatB8G8R8A8UnormSRGB
	}
	sc := &SwapChain{device: device, params: params}
	sc.createBackbuffers()
	return sc
}

func (sc *SwapChain) createBackbuffers() {
	sc.backbuffers = make([]rhi.Texture, sc.params.BufferCount)
	for i := range sc.backbuffers {
		tex, _ := sc.device.CreateTexture(rhi.Texture2D(
			sc.params.BackbufferFormat,
			rhi.TextureAccessRTV,
			sc.params.Width, sc.params.Height, 1))
		sc.backbuffers[i] = tex
	}
}

func (sc *SwapChain) GetBufferCount() uint32            { return sc.params.BufferCount }
func (sc *SwapChain) GetCurrentBackbufferIndex() uint32 { return sc.currentIx }
func (sc *SwapChain) GetCurrentBackbuffer() rhi.Texture { return sc.backbuffers[sc.currentIx] }

func (sc *SwapChain) GetCurrentBackbufferRTV() rhi.RenderTargetView {
	return sc.backbuffers[sc.currentIx].GetRTV()
}

func (sc *SwapChain) Present() error { return nil }

func (sc *SwapChain) SwapBackbuffer() {
	sc.currentIx = (sc.currentIx + 1) % sc.params.BufferCount
}

func (sc *SwapChain) Resize(width, height uint32) error {
	sc.params.Width = width
	sc.params.Height = height
	sc.createBackbuffers()
	return nil
}

func (sc *SwapChain) GetWidth() uint32                      { return sc.params.Width }
func (sc *SwapChain) GetHeight() uint32                     { return sc.params.Height }
func (sc *SwapChain) GetBackbufferFormat() rhi.PixelFormat  { return sc.params.BackbufferFormat }
