package pcmconv

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/xaionaro-go/speechenhance/pkg/audio"
)

type sampleCodec struct {
	decode func(p []byte) float64
	encode func(p []byte, v float64)
}

func clampInt(v float64, lo, hi int64) int64 {
	r := math.Round(v)
	if r > float64(hi) {
		return hi
	}
	if r < float64(lo) {
		return lo
	}
	return int64(r)
}

func int24(p0, p1, p2 byte) float64 {
	val := int32(uint32(p0) | uint32(p1)<<8 | uint32(p2)<<16)
	if val&0x800000 != 0 {
		val |= -16777216
	}
	return float64(val) / 8388608
}

var codecs = map[audio.PCMFormat]sampleCodec{
	audio.PCMFormatU8: {
		decode: func(p []byte) float64 { return (float64(p[0]) - 128) / 128 },
		encode: func(p []byte, v float64) { p[0] = byte(clampInt(v*128+128, 0, math.MaxUint8)) },
	},
	audio.PCMFormatS16LE: {
		decode: func(p []byte) float64 { return float64(int16(binary.LittleEndian.Uint16(p))) / 32768 },
		encode: func(p []byte, v float64) {
			binary.LittleEndian.PutUint16(p, uint16(int16(clampInt(v*32768, math.MinInt16, math.MaxInt16))))
		},
	},
	audio.PCMFormatS16BE: {
		decode: func(p []byte) float64 { return float64(int16(binary.BigEndian.Uint16(p))) / 32768 },
		encode: func(p []byte, v float64) {
			binary.BigEndian.PutUint16(p, uint16(int16(clampInt(v*32768, math.MinInt16, math.MaxInt16))))
		},
	},
	audio.PCMFormatS24LE: {
		decode: func(p []byte) float64 { return int24(p[0], p[1], p[2]) },
		encode: func(p []byte, v float64) {
			val := clampInt(v*8388608, -8388608, 8388607)
			p[0], p[1], p[2] = byte(val), byte(val>>8), byte(val>>16)
		},
	},
	audio.PCMFormatS24BE: {
		decode: func(p []byte) float64 { return int24(p[2], p[1], p[0]) },
		encode: func(p []byte, v float64) {
			val := clampInt(v*8388608, -8388608, 8388607)
			p[0], p[1], p[2] = byte(val>>16), byte(val>>8), byte(val)
		},
	},
	audio.PCMFormatS32LE: {
		decode: func(p []byte) float64 { return float64(int32(binary.LittleEndian.Uint32(p))) / 2147483648 },
		encode: func(p []byte, v float64) {
			binary.LittleEndian.PutUint32(p, uint32(int32(clampInt(v*2147483648, math.MinInt32, math.MaxInt32))))
		},
	},
	audio.PCMFormatS32BE: {
		decode: func(p []byte) float64 { return float64(int32(binary.BigEndian.Uint32(p))) / 2147483648 },
		encode: func(p []byte, v float64) {
			binary.BigEndian.PutUint32(p, uint32(int32(clampInt(v*2147483648, math.MinInt32, math.MaxInt32))))
		},
	},
	audio.PCMFormatFloat32LE: {
		decode: func(p []byte) float64 { return float64(math.Float32frombits(binary.LittleEndian.Uint32(p))) },
		encode: func(p []byte, v float64) { binary.LittleEndian.PutUint32(p, math.Float32bits(float32(v))) },
	},
	audio.PCMFormatFloat32BE: {
		decode: func(p []byte) float64 { return float64(math.Float32frombits(binary.BigEndian.Uint32(p))) },
		encode: func(p []byte, v float64) { binary.BigEndian.PutUint32(p, math.Float32bits(float32(v))) },
	},
	audio.PCMFormatFloat64LE: {
		decode: func(p []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(p)) },
		encode: func(p []byte, v float64) { binary.LittleEndian.PutUint64(p, math.Float64bits(v)) },
	},
	audio.PCMFormatFloat64BE: {
		decode: func(p []byte) float64 { return math.Float64frombits(binary.BigEndian.Uint64(p)) },
		encode: func(p []byte, v float64) { binary.BigEndian.PutUint64(p, math.Float64bits(v)) },
	},
}

func getCodec(f audio.PCMFormat) (sampleCodec, error) {
	c, ok := codecs[f]
	if !ok {
		return sampleCodec{}, fmt.Errorf("unsupported PCM format: %v", f)
	}
	return c, nil
}

// DecodeFloat32 decodes a mono PCM byte slice into float32 samples.
func DecodeFloat32(f audio.PCMFormat, dst []float32, src []byte) ([]float32, error) {
	c, err := getCodec(f)
	if err != nil {
		return dst, err
	}
	size := int(f.Size())
	if len(src)%size != 0 {
		return dst, fmt.Errorf("the input length %d is not a multiple of the sample size %d", len(src), size)
	}
	for off := 0; off < len(src); off += size {
		dst = append(dst, float32(c.decode(src[off:])))
	}
	return dst, nil
}

// EncodeFloat32 encodes float32 samples into a mono PCM byte slice.
func EncodeFloat32(f audio.PCMFormat, dst []byte, src []float32) ([]byte, error) {
	c, err := getCodec(f)
	if err != nil {
		return dst, err
	}
	size := int(f.Size())
	var buf [8]byte
	for _, v := range src {
		c.encode(buf[:size], float64(v))
		dst = append(dst, buf[:size]...)
	}
	return dst, nil
}
