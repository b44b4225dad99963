package render

import (
	"fmt"

	"github.com/codeonwort/cyseal/core"
	"github.com/codeonwort/cyseal/rhi"
	"github.com/codeonwort/cyseal/world"
)

// RendererOptions toggle optional pipeline features.
type RendererOptions struct {
	EnableRayTracing bool
}

// AnyRayTracingEnabled gates LOD selection; raytraced scenes stay at LOD0.
func (o RendererOptions) AnyRayTracingEnabled() bool { return o.EnableRayTracing }

// RenderContext hands pass code the injected pools and managers instead of
// package globals, keeping their lifetimes explicit.
type RenderContext struct {
	Device     rhi.Device
	VertexPool *rhi.VertexBufferPool
	IndexPool  *rhi.IndexBufferPool
}

// SceneRenderer walks a scene proxy each frame: drain render commands,
// update the scene uniform, run the GPU scene command engine, upload
// materials, rebuild the raytracing scene on request, rasterize, tone map,
// present, and signal the frame fence.
type SceneRenderer struct {
	device  rhi.Device
	context RenderContext
	options RendererOptions

	swapchainCount uint32

	gpuScene     *GPUScene
	materials    *BindlessMaterialTable
	sceneUniform *sceneUniformRing
	basePass     *BasePass
	tonemapPass  *TonemapPass
	accelManager *AccelStructManager

	sceneColor rhi.Texture
	sceneDepth rhi.Texture

	frameFenceValues []uint64
}

const (
	sceneColorFormat = rhi.PixelFormatR16G16B16A16Float
	sceneDepthFormat = rhi.PixelFormatD32Float
)

// NewSceneRenderer builds every pass and frame resource.
func NewSceneRenderer(context RenderContext, options RendererOptions) (*SceneRenderer, error) {
	device := context.Device
	swapChain := device.GetSwapChain()

	r := &SceneRenderer{
		device:           device,
		context:          context,
		options:          options,
		swapchainCount:   swapChain.GetBufferCount(),
		frameFenceValues: make([]uint64, swapChain.GetBufferCount()),
	}

	var err error
	if r.gpuScene, err = NewGPUScene(device); err != nil {
		return nil, err
	}
	if r.materials, err = NewBindlessMaterialTable(device, defaultMaxSceneElements); err != nil {
		return nil, err
	}
	if r.sceneUniform, err = newSceneUniformRing(device, r.swapchainCount); err != nil {
		return nil, err
	}
	if r.basePass, err = NewBasePass(device, sceneColorFormat, sceneDepthFormat); err != nil {
		return nil, err
	}
	if r.tonemapPass, err = NewTonemapPass(device, swapChain.GetBackbufferFormat()); err != nil {
		return nil, err
	}
	if options.EnableRayTracing && device.GetRaytracingTier() != rhi.RaytracingTierNotSupported {
		if r.accelManager, err = NewAccelStructManager(device); err != nil {
			return nil, err
		}
	}

	if err = r.recreateSceneTargets(swapChain.GetWidth(), swapChain.GetHeight()); err != nil {
		return nil, err
	}
	return r, nil
}

// GetGPUSceneItemAllocator is handed to Scene.CreateProxy every frame.
func (r *SceneRenderer) GetGPUSceneItemAllocator() *core.FreeNumberList {
	return r.gpuScene.GetItemAllocator()
}

// GetGPUScene exposes the scene engine for tests and debug tooling.
func (r *SceneRenderer) GetGPUScene() *GPUScene { return r.gpuScene }

// GetMaterialTable exposes the bindless table for tests.
func (r *SceneRenderer) GetMaterialTable() *BindlessMaterialTable { return r.materials }

func (r *SceneRenderer) recreateSceneTargets(width, height uint32) error {
	if width == 0 || height == 0 {
		width, height = 1, 1
	}
	colorParams := rhi.Texture2D(sceneColorFormat, rhi.TextureAccessRTV|rhi.TextureAccessSRV, width, height, 1)
	colorParams.OptimalClearColor = [4]float32{0, 0, 0, 1}
	color, err := r.device.CreateTexture(colorParams)
	if err != nil {
		return fmt.Errorf("create scene color: %w", err)
	}
	color.SetDebugName("Texture_SceneColor")
	r.sceneColor = color

	depthParams := rhi.Texture2D(sceneDepthFormat, rhi.TextureAccessDSV, width, height, 1)
	// Reverse-Z clears to the far plane at depth 0.
	depthParams.OptimalClearDepth = 0.0
	depth, err := r.device.CreateTexture(depthParams)
	if err != nil {
		return fmt.Errorf("create scene depth: %w", err)
	}
	depth.SetDebugName("Texture_SceneDepth")
	r.sceneDepth = depth
	return nil
}

// OnSwapChainResized recreates the swap chain and size-dependent targets.
// Deferred to the frame boundary by the application loop.
func (r *SceneRenderer) OnSwapChainResized(width, height uint32) error {
	r.device.FlushCommandQueue()
	if err := r.device.RecreateSwapChain(width, height); err != nil {
		return err
	}
	return r.recreateSceneTargets(width, height)
}

// Render records and submits one frame from the proxy.
func (r *SceneRenderer) Render(proxy *world.SceneProxy, camera *world.Camera) error {
	swapChain := r.device.GetSwapChain()
	queue := r.device.GetCommandQueue()
	frameIx := swapChain.GetCurrentBackbufferIndex()

	// Frame N-BufferCount must be done before its allocator is recycled.
	queue.WaitForFenceValue(r.frameFenceValues[frameIx])

	allocator := r.device.GetCommandAllocator(frameIx)
	cmdList := r.device.GetCommandList(frameIx)
	allocator.Reset()
	cmdList.Reset(allocator)
	cmdList.FlushDeferredDeallocations()

	rhi.DrainRenderCommands(cmdList)
	cmdList.ExecuteCustomCommands()

	width, height := swapChain.GetWidth(), swapChain.GetHeight()
	sceneUniform := r.sceneUniform.update(cmdList, frameIx, proxy, camera, width, height)

	if err := r.gpuScene.RenderGPUScene(cmdList, frameIx, proxy, sceneUniform); err != nil {
		return err
	}
	if err := r.materials.UpdateMaterials(cmdList, frameIx, proxy); err != nil {
		return err
	}

	if r.accelManager != nil && proxy.RebuildRaytracingScene {
		if err := r.accelManager.BuildScene(cmdList, proxy); err != nil {
			return err
		}
	}

	cmdList.ResourceBarriers([]rhi.ResourceBarrier{
		{
			Type:        rhi.BarrierTypeTransition,
			Resource:    r.sceneColor,
			StateBefore: rhi.ResourceStateCommon,
			StateAfter:  rhi.ResourceStateRenderTarget,
		},
	})

	r.basePass.Render(cmdList, BasePassInput{
		SwapchainIndex: frameIx,
		Proxy:          proxy,
		SceneUniform:   sceneUniform,
		GPUScene:       r.gpuScene,
		Materials:      r.materials,
		SceneColorRTV:  r.sceneColor.GetRTV(),
		SceneDepthDSV:  r.sceneDepth.GetDSV(),
		ViewportWidth:  width,
		ViewportHeight: height,
	})

	cmdList.ResourceBarriers([]rhi.ResourceBarrier{
		{
			Type:        rhi.BarrierTypeTransition,
			Resource:    r.sceneColor,
			StateBefore: rhi.ResourceStateRenderTarget,
			StateAfter:  rhi.ResourceStateShaderResource,
		},
		{
			Type:        rhi.BarrierTypeTransition,
			Resource:    swapChain.GetCurrentBackbuffer(),
			StateBefore: rhi.ResourceStatePresent,
			StateAfter:  rhi.ResourceStateRenderTarget,
		},
	})

	r.tonemapPass.Render(cmdList, frameIx, r.sceneColor, swapChain.GetCurrentBackbufferRTV(), width, height)

	cmdList.ResourceBarriers([]rhi.ResourceBarrier{
		{
			Type:        rhi.BarrierTypeTransition,
			Resource:    swapChain.GetCurrentBackbuffer(),
			StateBefore: rhi.ResourceStateRenderTarget,
			StateAfter:  rhi.ResourceStatePresent,
		},
	})

	cmdList.Close()
	queue.ExecuteCommandList(cmdList)

	if err := swapChain.Present(); err != nil {
		return err
	}

	fenceValue := queue.Signal()
	r.frameFenceValues[frameIx] = fenceValue
	allocator.MarkPendingFenceValue(fenceValue)
	swapChain.SwapBackbuffer()
	return nil
}
