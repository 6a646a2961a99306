package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Sun/NeXT 音频文件头（至少 24 字节，大端序）
type auHeader struct {
	Magic      uint32 // ".snd"
	DataOffset uint32
	DataSize   uint32 // 未知时为 0xFFFFFFFF
	Encoding   uint32
	SampleRate uint32
	Channels   uint32
}

const (
	auMagic         = 0x2e736e64
	auHeaderSize    = 24
	auEncodingULaw  = 1
	auEncodingPCM16 = 3
)

// pcmStream 内存中的 16 位小端立体声流
type pcmStream struct {
	*bytes.Reader
	size int64
}

func (s *pcmStream) Length() int64 { return s.size }

// decodeAU 将 μ-law 或 16 位线性 .au 数据解码为 16 位立体声 PCM
// 单声道输入复制到两个声道
func decodeAU(data []byte) (*pcmStream, int, error) {
	if len(data) < auHeaderSize {
		return nil, 0, fmt.Errorf("au data too short: %d bytes", len(data))
	}

	var h auHeader
	if err := binary.Read(bytes.NewReader(data), binary.BigEndian, &h); err != nil {
		return nil, 0, fmt.Errorf("failed to read au header: %w", err)
	}
	if h.Magic != auMagic {
		return nil, 0, fmt.Errorf("invalid au magic 0x%08x", h.Magic)
	}
	if h.Channels < 1 || h.Channels > 2 {
		return nil, 0, fmt.Errorf("unsupported au channel count %d", h.Channels)
	}
	off := int(h.DataOffset)
	if off < auHeaderSize || off > len(data) {
		return nil, 0, fmt.Errorf("invalid au data offset %d", off)
	}
	body := data[off:]
	if h.DataSize != 0xFFFFFFFF && int(h.DataSize) < len(body) {
		body = body[:h.DataSize]
	}

	var samples []int16
	switch h.Encoding {
	case auEncodingULaw:
		samples = make([]int16, len(body))
		for i, b := range body {
			samples[i] = ulaw(b)
		}
	case auEncodingPCM16:
		samples = make([]int16, len(body)/2)
		for i := range samples {
			samples[i] = int16(binary.BigEndian.Uint16(body[i*2:]))
		}
	default:
		return nil, 0, fmt.Errorf("unsupported au encoding %d", h.Encoding)
	}

	frames := len(samples) / int(h.Channels)
	out := make([]byte, frames*4)
	for f := 0; f < frames; f++ {
		l := samples[f*int(h.Channels)]
		r := l
		if h.Channels == 2 {
			r = samples[f*2+1]
		}
		binary.LittleEndian.PutUint16(out[f*4:], uint16(l))
		binary.LittleEndian.PutUint16(out[f*4+2:], uint16(r))
	}

	return &pcmStream{Reader: bytes.NewReader(out), size: int64(len(out))}, int(h.SampleRate), nil
}

// ulaw 展开一个 G.711 μ-law 字节
func ulaw(b byte) int16 {
	b = ^b
	sign := b & 0x80
	exponent := (b >> 4) & 0x07
	mantissa := b & 0x0F
	sample := ((int32(mantissa) << 3) + 0x84) << exponent
	sample -= 0x84
	if sign != 0 {
		return int16(-sample)
	}
	return int16(sample)
}

var _ io.ReadSeeker = (*pcmStream)(nil)
