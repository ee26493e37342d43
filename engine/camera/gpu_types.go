package camera

import (
	"encoding/binary"
	"math"
)

// GPUCameraUniformSize is the byte size of the camera uniform block at group 0, binding 0.
const GPUCameraUniformSize = 80

// GPUCameraUniform is the camera uniform block shared by every pipeline. The pick pass
// reads the same block as the main pass, so identifier pixels line up with what is drawn.
type GPUCameraUniform struct {
	ViewProj       [16]float32 // offset 0
	CameraPosition [3]float32  // offset 64, padded to 80
}

// Size returns GPUCameraUniformSize.
func (g *GPUCameraUniform) Size() int {
	return GPUCameraUniformSize
}

// Marshal encodes the block in WGSL layout, little endian.
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, 0, GPUCameraUniformSize)
	for _, f := range g.ViewProj {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, f := range g.CameraPosition {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return binary.LittleEndian.AppendUint32(buf, 0)
}
