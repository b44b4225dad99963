package world

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MaterialID selects the shading model of a material.
type MaterialID uint32

const (
	MaterialDefaultLit MaterialID = iota
	MaterialTransparent
)

// MaterialAsset is the application-side material description. A shader
// visible MaterialConstants record is produced from it each frame.
type MaterialAsset struct {
	id AssetID

	ID                MaterialID
	AlbedoMultiplier  mgl32.Vec3
	Roughness         float32
	Emission          mgl32.Vec3
	MetalMask         float32
	IndexOfRefraction float32
	Transmittance     mgl32.Vec3
	DoubleSided       bool

	// AlbedoTexture may be nil; the grey system texture substitutes.
	AlbedoTexture *TextureAsset
}

// NewMaterialAsset returns a default-lit material with neutral defaults.
func NewMaterialAsset() *MaterialAsset {
	return &MaterialAsset{
		id:                makeAssetID(),
		ID:                MaterialDefaultLit,
		AlbedoMultiplier:  mgl32.Vec3{1, 1, 1},
		Roughness:         1,
		IndexOfRefraction: 1,
	}
}

func (m *MaterialAsset) AssetID() AssetID { return m.id }

// DirectionalLight is the scene's sun.
type DirectionalLight struct {
	Direction   mgl32.Vec3
	Illuminance mgl32.Vec3
}
