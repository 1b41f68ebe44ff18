package shaders

import (
	_ "embed"
)

//go:embed raycast.wgsl
var RaycastWGSL string

//go:embed text.wgsl
var TextWGSL string
