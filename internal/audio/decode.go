// Package audio 将布局可能引用的音频格式解码为 ebiten 音频播放器可用的流
package audio

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	ebaudio "github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

// Stream 解码后可 seek 的 16 位立体声 PCM 流
type Stream interface {
	io.ReadSeeker
	Length() int64
}

var supported = map[string]bool{
	".mp3": true,
	".ogg": true,
	".wav": true,
	".au":  true,
}

// Supported 判断 name 的扩展名是否可解码
func Supported(name string) bool {
	return supported[strings.ToLower(filepath.Ext(name))]
}

// Decode 按 name 的扩展名解码 data，并重采样到 sampleRate
func Decode(name string, data []byte, sampleRate int) (Stream, error) {
	r := bytes.NewReader(data)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".mp3":
		s, err := mp3.DecodeWithSampleRate(sampleRate, r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode MP3 audio %s: %w", name, err)
		}
		return s, nil
	case ".ogg":
		s, err := vorbis.DecodeWithSampleRate(sampleRate, r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode OGG audio %s: %w", name, err)
		}
		return s, nil
	case ".wav":
		s, err := wav.DecodeWithSampleRate(sampleRate, r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode WAV audio %s: %w", name, err)
		}
		return s, nil
	case ".au":
		s, rate, err := decodeAU(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode AU audio %s: %w", name, err)
		}
		if rate == sampleRate {
			return s, nil
		}
		return ebaudio.Resample(s, s.Length(), rate, sampleRate), nil
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .ogg, .wav, .au)", ext)
	}
}
