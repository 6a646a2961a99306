package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"
)

func buildAU(t *testing.T, encoding, rate, channels uint32, body []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	h := auHeader{
		Magic:      auMagic,
		DataOffset: auHeaderSize,
		DataSize:   uint32(len(body)),
		Encoding:   encoding,
		SampleRate: rate,
		Channels:   channels,
	}
	if err := binary.Write(&buf, binary.BigEndian, h); err != nil {
		t.Fatal(err)
	}
	buf.Write(body)
	return buf.Bytes()
}

// TestUlaw 用已知的 G.711 值测试 μ-law 展开
func TestUlaw(t *testing.T) {
	tests := []struct {
		in       byte
		expected int16
	}{
		{0x00, -32124},
		{0x80, 32124},
		{0xFF, 0},
		{0x7F, 0},
		{0x70, -120},
	}
	for _, tt := range tests {
		if got := ulaw(tt.in); got != tt.expected {
			t.Errorf("ulaw(0x%02x) = %d, want %d", tt.in, got, tt.expected)
		}
	}
}

// TestDecodeAU_MonoULaw 测试单声道输入被复制为立体声
func TestDecodeAU_MonoULaw(t *testing.T) {
	data := buildAU(t, auEncodingULaw, 8000, 1, []byte{0x00, 0x80})
	s, rate, err := decodeAU(data)
	if err != nil {
		t.Fatalf("decodeAU failed: %v", err)
	}
	if rate != 8000 {
		t.Errorf("rate = %d, want 8000", rate)
	}
	if s.Length() != 8 {
		t.Fatalf("Length = %d, want 8 (2 frames of 4 bytes)", s.Length())
	}
	out, _ := io.ReadAll(s)
	l := int16(binary.LittleEndian.Uint16(out[0:]))
	r := int16(binary.LittleEndian.Uint16(out[2:]))
	if l != -32124 || r != -32124 {
		t.Errorf("first frame = (%d,%d), want (-32124,-32124)", l, r)
	}
}

// TestDecodeAU_StereoPCM16 测试大端 PCM 输入
func TestDecodeAU_StereoPCM16(t *testing.T) {
	body := []byte{0x01, 0x00, 0xFF, 0xFF} // L=256, R=-1
	s, _, err := decodeAU(buildAU(t, auEncodingPCM16, 44100, 2, body))
	if err != nil {
		t.Fatalf("decodeAU failed: %v", err)
	}
	out, _ := io.ReadAll(s)
	if got := int16(binary.LittleEndian.Uint16(out[0:])); got != 256 {
		t.Errorf("L = %d, want 256", got)
	}
	if got := int16(binary.LittleEndian.Uint16(out[2:])); got != -1 {
		t.Errorf("R = %d, want -1", got)
	}
}

// TestDecodeAU_Errors 测试格式错误的输入
func TestDecodeAU_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"too short", []byte{1, 2, 3}},
		{"bad magic", append([]byte{0, 0, 0, 0}, make([]byte, 20)...)},
		{"bad encoding", buildAU(t, 27, 8000, 1, []byte{0})},
		{"bad channels", buildAU(t, auEncodingULaw, 8000, 5, []byte{0})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := decodeAU(tt.data); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

// TestSupported 测试扩展名识别
func TestSupported(t *testing.T) {
	for name, want := range map[string]bool{"a.mp3": true, "B.OGG": true, "c.au": true, "d.flac": false, "noext": false} {
		if got := Supported(name); got != want {
			t.Errorf("Supported(%q) = %v, want %v", name, got, want)
		}
	}
}
