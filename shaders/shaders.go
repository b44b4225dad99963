package shaders

import (
	_ "embed"
)

//go:embed gpu_scene.wgsl
var GPUSceneWGSL string

//go:embed base_pass.wgsl
var BasePassWGSL string

//go:embed tonemapping.wgsl
var TonemappingWGSL string
