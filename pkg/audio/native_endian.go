package audio

import "encoding/binary"

// PCMFormatFloat32Native returns the float32 PCM format matching the byte
// order of this computer.
func PCMFormatFloat32Native() PCMFormat {
	if binary.NativeEndian.Uint16([]byte{1, 2}) == 0x0102 {
		return PCMFormatFloat32BE
	}
	return PCMFormatFloat32LE
}
