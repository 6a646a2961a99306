package scene

import (
	"io"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	ebaudio "github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/decker502/arcadefe/internal/audio"
	"github.com/decker502/arcadefe/pkg/resource"
)

// Sound 布局脚本可以启动和停止的音效
type Sound struct {
	g *Graph

	file    string
	handle  *resource.SoundHandle
	player  *ebaudio.Player
	loop    bool
	playing bool

	released bool
}

func newSound(g *Graph, name string) *Sound {
	s := &Sound{g: g}
	s.SetFile(name)
	return s
}

// File 返回音效文件
func (s *Sound) File() string { return s.file }

// Loop 判断是否循环播放
func (s *Sound) Loop() bool { return s.loop }

// SetLoop 设置循环，下次开始播放时生效
func (s *Sound) SetLoop(loop bool) {
	if loop != s.loop {
		s.loop = loop
		s.closePlayer()
	}
}

// Playing 判断脚本是否请求了播放且播放尚未结束
func (s *Sound) Playing() bool { return s.playing }

// SetFile 替换音效文件并停止播放
func (s *Sound) SetFile(name string) {
	if s.released {
		log.Printf("[Sound] Warning: ignored sound %s on a removed element", name)
		return
	}
	s.closePlayer()
	pool := s.g.ctx.Sounds
	if s.handle != nil && pool != nil {
		pool.Release(s.handle)
	}
	s.handle = nil
	s.file = name
	if name != "" && pool != nil {
		s.handle = pool.Acquire(name)
	}
}

// SetPlaying 开始或停止播放
// 音效缺失或没有音频上下文时，除了标志位外不做任何事
func (s *Sound) SetPlaying(on bool) {
	if !on {
		s.stop()
		return
	}
	if s.released {
		return
	}
	s.playing = true
	if s.player == nil && !s.open() {
		return
	}
	if err := s.player.Rewind(); err != nil {
		log.Printf("[Sound] Warning: failed to rewind %s: %v", s.file, err)
	}
	s.applyVolume()
	s.player.Play()
}

func (s *Sound) open() bool {
	actx := s.g.ctx.Audio
	if actx == nil || !s.handle.Ready() {
		return false
	}
	stream, err := audio.Decode(s.file, s.handle.Value(), actx.SampleRate())
	if err != nil {
		log.Printf("[Sound] Warning: %v", err)
		return false
	}
	var src io.Reader = stream
	if s.loop {
		src = ebaudio.NewInfiniteLoop(stream, stream.Length())
	}
	player, err := actx.NewPlayer(src)
	if err != nil {
		log.Printf("[Sound] Warning: failed to create player for %s: %v", s.file, err)
		return false
	}
	s.player = player
	return true
}

func (s *Sound) applyVolume() {
	if s.player == nil {
		return
	}
	if s.g.ctx.Mute {
		s.player.SetVolume(0)
	} else {
		s.player.SetVolume(1)
	}
}

func (s *Sound) stop() {
	s.playing = false
	if s.player != nil {
		s.player.Pause()
	}
}

// Update 单次播放的音效结束时清除播放标志
func (s *Sound) Update(ctx *Context, dt time.Duration) bool {
	if s.playing && s.player != nil && !s.loop && !s.player.IsPlaying() {
		s.playing = false
	}
	return false
}

// Draw 不做任何事，音效不可见
func (s *Sound) Draw(dst *ebiten.Image, geo ebiten.GeoM) {}

// OnNewSelection 不做任何事
func (s *Sound) OnNewSelection(ctx *Context) {}

func (s *Sound) closePlayer() {
	s.stop()
	if s.player != nil {
		s.player.Close()
		s.player = nil
	}
}

// Release 停止播放并释放池中的数据，释放后的音效不会再获取音频数据
func (s *Sound) Release() {
	s.closePlayer()
	if s.handle != nil && s.g.ctx.Sounds != nil {
		s.g.ctx.Sounds.Release(s.handle)
	}
	s.handle = nil
	s.released = true
}
