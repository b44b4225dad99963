package webgpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/codeonwort/cyseal/rhi"
)

// SwapChain configures the wgpu surface and exposes the acquired surface
// texture as the current backbuffer. Headless devices cycle offscreen
// textures instead.
type SwapChain struct {
	device *Device
	params rhi.SwapChainCreateParams

	surfaceFormat wgpu.TextureFormat
	currentIx     uint32

	// Windowed path: the acquired texture for the frame in flight. Its
	// RTV lives in a swap-chain-owned heap so the global RTV pool does
	// not fill up with per-frame slots.
	acquired *wgpu.Texture
	current  *Texture
	rtvHeap  rhi.DescriptorHeap

	// Headless path: persistent offscreen ring.
	offscreen []rhi.Texture
}

func newSwapChain(device *Device, params rhi.SwapChainCreateParams) (*SwapChain, error) {
	if params.Width == 0 {
		params.Width = 1
	}
	if params.Height == 0 {
		params.Height = 1
	}
	sc := &SwapChain{device: device, params: params}

	if device.surface == nil {
		if params.BackbufferFormat == rhi.PixelFormatUnknown {
			sc.params.BackbufferFormat = rhi.PixelFormatB8G8R8A8UnormSRGB
		}
		if err := sc.createOffscreenRing(); err != nil {
			return nil, err
		}
		return sc, nil
	}

	heap, err := device.CreateDescriptorHeap(rhi.DescriptorHeapDesc{
		Type:           rhi.DescriptorHeapTypeRTV,
		NumDescriptors: params.BufferCount,
	})
	if err != nil {
		return nil, err
	}
	heap.SetDebugName("SwapChain_RTVHeap")
	sc.rtvHeap = heap

	if err := sc.configureSurface(); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sc *SwapChain) configureSurface() error {
	caps := sc.device.surface.GetCapabilities(sc.device.adapter)
	if len(caps.Formats) == 0 {
		return fmt.Errorf("surface reports no formats")
	}
	sc.surfaceFormat = caps.Formats[0]
	if want := intoTextureFormat(sc.params.BackbufferFormat); want != wgpu.TextureFormatUndefined {
		for _, f := range caps.Formats {
			if f == want {
				sc.surfaceFormat = f
				break
			}
		}
	}
	sc.params.BackbufferFormat = fromTextureFormat(sc.surfaceFormat)

	presentMode := wgpu.PresentModeImmediate
	if sc.params.VSync {
		presentMode = wgpu.PresentModeFifo
	}
	sc.device.surface.Configure(sc.device.adapter, sc.device.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      sc.surfaceFormat,
		Width:       sc.params.Width,
		Height:      sc.params.Height,
		PresentMode: presentMode,
		AlphaMode:   caps.AlphaModes[0],
	})
	return nil
}

func (sc *SwapChain) createOffscreenRing() error {
	sc.offscreen = make([]rhi.Texture, sc.params.BufferCount)
	for i := range sc.offscreen {
		tex, err := sc.device.CreateTexture(rhi.Texture2D(
			sc.params.BackbufferFormat,
			rhi.TextureAccessRTV,
			sc.params.Width, sc.params.Height, 1))
		if err != nil {
			return fmt.Errorf("create offscreen backbuffer: %w", err)
		}
		tex.SetDebugName(fmt.Sprintf("Texture_Backbuffer_%d", i))
		sc.offscreen[i] = tex
	}
	return nil
}

func (sc *SwapChain) GetBufferCount() uint32            { return sc.params.BufferCount }
func (sc *SwapChain) GetCurrentBackbufferIndex() uint32 { return sc.currentIx }

func (sc *SwapChain) GetCurrentBackbuffer() rhi.Texture {
	if sc.device.surface == nil {
		return sc.offscreen[sc.currentIx]
	}
	if sc.current == nil {
		acquired, err := sc.device.surface.GetCurrentTexture()
		if err != nil {
			panic(fmt.Sprintf("acquire surface texture: %v", err))
		}
		sc.acquired = acquired
		sc.current = &Texture{
			device: sc.device,
			createParams: rhi.Texture2D(sc.params.BackbufferFormat,
				rhi.TextureAccessRTV, sc.params.Width, sc.params.Height, 1),
			native:    acquired,
			debugName: "Texture_Backbuffer",
		}
		rtv, err := sc.device.CreateRTV(sc.current, rhi.RenderTargetViewDesc{
			Format: sc.params.BackbufferFormat,
		}, sc.rtvHeap)
		if err != nil {
			panic(err)
		}
		sc.current.rtv = rtv
	}
	return sc.current
}

func (sc *SwapChain) GetCurrentBackbufferRTV() rhi.RenderTargetView {
	return sc.GetCurrentBackbuffer().GetRTV()
}

func (sc *SwapChain) Present() error {
	if sc.device.surface == nil {
		return nil
	}
	sc.device.surface.Present()
	if sc.current != nil {
		if rtv, ok := sc.current.rtv.(*RenderTargetView); ok {
			sc.rtvHeap.ReleaseDescriptorIndex(rtv.index)
		}
		if sc.current.view != nil {
			sc.current.view.Release()
		}
		sc.acquired.Release()
		sc.current = nil
		sc.acquired = nil
	}
	return nil
}

func (sc *SwapChain) SwapBackbuffer() {
	sc.currentIx = (sc.currentIx + 1) % sc.params.BufferCount
}

func (sc *SwapChain) Resize(width, height uint32) error {
	sc.params.Width = width
	sc.params.Height = height
	if sc.device.surface == nil {
		return sc.createOffscreenRing()
	}
	return sc.configureSurface()
}

func (sc *SwapChain) GetWidth() uint32                     { return sc.params.Width }
func (sc *SwapChain) GetHeight() uint32                    { return sc.params.Height }
func (sc *SwapChain) GetBackbufferFormat() rhi.PixelFormat { return sc.params.BackbufferFormat }
