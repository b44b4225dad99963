package rhi

import (
	"fmt"

	"github.com/codeonwort/cyseal/util"
)

var logTextureManager = util.NewLogCategory("LogTextureManager")

const (
	maxSRVDescriptors = 1024
	maxRTVDescriptors = 64
	maxDSVDescriptors = 64
	maxUAVDescriptors = 1024

	blueNoiseWidth  = 128
	blueNoiseHeight = 128
	blueNoiseSlices = 64
)

// BlueNoiseSliceLoader loads one z-slice of the blue-noise volume as RGBA8
// bytes plus its pitches. Loaders are opaque to the core.
type BlueNoiseSliceLoader func(sliceIndex uint32) (data []byte, rowPitch, slicePitch uint64, err error)

// TextureManager owns the global CPU-only view heaps and the system
// textures every material falls back to.
type TextureManager struct {
	device Device

	srvHeap DescriptorHeap
	rtvHeap DescriptorHeap
	dsvHeap DescriptorHeap
	uavHeap DescriptorHeap

	systemTextureGrey2D    Texture
	systemTextureWhite2D   Texture
	systemTextureBlack2D   Texture
	systemTextureRed2D     Texture
	systemTextureGreen2D   Texture
	systemTextureBlue2D    Texture
	systemTextureBlackCube Texture

	blueNoiseVec3Cosine Texture
}

// The texture manager is process-wide like the device: textures allocate
// their views from its heaps lazily.
var gTextureManager *TextureManager

// SetTextureManager installs the process-wide texture manager.
func SetTextureManager(tm *TextureManager) { gTextureManager = tm }

// GetTextureManager returns the process-wide texture manager.
func GetTextureManager() *TextureManager { return gTextureManager }

// NewTextureManager creates the global heaps and system textures. System
// texture uploads go through the render-command mailbox, so a flush must
// happen before first use.
func NewTextureManager(device Device) (*TextureManager, error) {
	tm := &TextureManager{device: device}

	heapSpecs := []struct {
		target *DescriptorHeap
		desc   DescriptorHeapDesc
		name   string
	}{
		{&tm.srvHeap, DescriptorHeapDesc{Type: DescriptorHeapTypeCBVSRVUAV, NumDescriptors: maxSRVDescriptors}, "TextureManager_SRVHeap"},
		{&tm.rtvHeap, DescriptorHeapDesc{Type: DescriptorHeapTypeRTV, NumDescriptors: maxRTVDescriptors}, "TextureManager_RTVHeap"},
		{&tm.dsvHeap, DescriptorHeapDesc{Type: DescriptorHeapTypeDSV, NumDescriptors: maxDSVDescriptors}, "TextureManager_DSVHeap"},
		{&tm.uavHeap, DescriptorHeapDesc{Type: DescriptorHeapTypeUAV, NumDescriptors: maxUAVDescriptors}, "TextureManager_UAVHeap"},
	}
	for _, spec := range heapSpecs {
		heap, err := device.CreateDescriptorHeap(spec.desc)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", spec.name, err)
		}
		heap.SetDebugName(spec.name)
		*spec.target = heap
	}

	if err := tm.createSystemTextures(); err != nil {
		return nil, err
	}
	return tm, nil
}

// GetGlobalSRVHeap is the CPU-only pool texture SRVs live in. Bindless
// material binding copies out of this heap.
func (tm *TextureManager) GetGlobalSRVHeap() DescriptorHeap { return tm.srvHeap }
func (tm *TextureManager) GetGlobalRTVHeap() DescriptorHeap { return tm.rtvHeap }
func (tm *TextureManager) GetGlobalDSVHeap() DescriptorHeap { return tm.dsvHeap }
func (tm *TextureManager) GetGlobalUAVHeap() DescriptorHeap { return tm.uavHeap }

func (tm *TextureManager) GetSystemTextureGrey2D() Texture    { return tm.systemTextureGrey2D }
func (tm *TextureManager) GetSystemTextureWhite2D() Texture   { return tm.systemTextureWhite2D }
func (tm *TextureManager) GetSystemTextureBlack2D() Texture   { return tm.systemTextureBlack2D }
func (tm *TextureManager) GetSystemTextureRed2D() Texture     { return tm.systemTextureRed2D }
func (tm *TextureManager) GetSystemTextureGreen2D() Texture   { return tm.systemTextureGreen2D }
func (tm *TextureManager) GetSystemTextureBlue2D() Texture    { return tm.systemTextureBlue2D }
func (tm *TextureManager) GetSystemTextureBlackCube() Texture { return tm.systemTextureBlackCube }

// GetBlueNoiseVec3Cosine is nil until CreateBlueNoiseTexture runs.
func (tm *TextureManager) GetBlueNoiseVec3Cosine() Texture { return tm.blueNoiseVec3Cosine }

func (tm *TextureManager) createSystemTextures() error {
	type sysTexInit struct {
		color  [4]byte
		target *Texture
		name   string
		isCube bool
	}
	initTable := []sysTexInit{
		{[4]byte{127, 127, 127, 255}, &tm.systemTextureGrey2D, "Texture_SystemGrey2D", false},
		{[4]byte{255, 255, 255, 255}, &tm.systemTextureWhite2D, "Texture_SystemWhite2D", false},
		{[4]byte{0, 0, 0, 255}, &tm.systemTextureBlack2D, "Texture_SystemBlack2D", false},
		{[4]byte{255, 0, 0, 255}, &tm.systemTextureRed2D, "Texture_SystemRed2D", false},
		{[4]byte{0, 255, 0, 255}, &tm.systemTextureGreen2D, "Texture_SystemGreen2D", false},
		{[4]byte{0, 0, 255, 255}, &tm.systemTextureBlue2D, "Texture_SystemBlue2D", false},
		{[4]byte{0, 0, 0, 0}, &tm.systemTextureBlackCube, "Texture_SystemBlackCube", true},
	}

	uploads := make([]sysTexInit, 0, len(initTable))
	for _, init := range initTable {
		var params TextureCreateParams
		if init.isCube {
			params = TextureCube(PixelFormatR8G8B8A8Unorm, TextureAccessSRV|TextureAccessCPUWrite, 1, 1, 1)
		} else {
			params = Texture2D(PixelFormatR8G8B8A8Unorm, TextureAccessSRV|TextureAccessCPUWrite, 1, 1, 1)
		}
		tex, err := tm.device.CreateTexture(params)
		if err != nil {
			return fmt.Errorf("create %s: %w", init.name, err)
		}
		tex.SetDebugName(init.name)
		*init.target = tex
		uploads = append(uploads, init)
	}

	EnqueueRenderCommand("UploadSystemTextureData", func(cmdList CommandList) {
		for _, init := range uploads {
			count := uint32(1)
			if init.isCube {
				count = 6
			}
			for i := uint32(0); i < count; i++ {
				(*init.target).UploadData(cmdList, init.color[:], 4, 4, i)
			}
		}
	})
	return nil
}

// CreateBlueNoiseTexture builds the 128x128x64 cosine-weighted blue-noise
// volume from per-slice blobs produced by loadSlice.
func (tm *TextureManager) CreateBlueNoiseTexture(loadSlice BlueNoiseSliceLoader) error {
	var totalBlob []byte
	var rowPitch, slicePitch uint64
	for ix := uint32(0); ix < blueNoiseSlices; ix++ {
		data, rp, sp, err := loadSlice(ix)
		if err != nil {
			return fmt.Errorf("load blue noise slice %d: %w", ix, err)
		}
		if totalBlob == nil {
			rowPitch, slicePitch = rp, sp
			totalBlob = make([]byte, slicePitch*blueNoiseSlices)
		}
		copy(totalBlob[uint64(ix)*slicePitch:], data[:slicePitch])
	}

	params := Texture3D(PixelFormatR8G8B8A8Unorm, TextureAccessSRV|TextureAccessCPUWrite,
		blueNoiseWidth, blueNoiseHeight, blueNoiseSlices, 1)
	tex, err := tm.device.CreateTexture(params)
	if err != nil {
		return fmt.Errorf("create blue noise texture: %w", err)
	}
	tex.SetDebugName("STBNVec3Cosine")
	tm.blueNoiseVec3Cosine = tex

	EnqueueRenderCommand("UploadSTBN", func(cmdList CommandList) {
		tex.UploadData(cmdList, totalBlob, rowPitch, slicePitch, 0)
		cmdList.EnqueueDeferredDealloc(func() { totalBlob = nil })
	})
	logTextureManager.Infof("Blue noise volume: %dx%dx%d", blueNoiseWidth, blueNoiseHeight, blueNoiseSlices)
	return nil
}
