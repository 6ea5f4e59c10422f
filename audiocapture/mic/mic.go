// Package mic implements an audiocapture.Backend on top of PortAudio.
package mic

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
	"go.aimuz.me/robovoice/audiocapture"
)

// DefaultFramesPerBuffer is 32ms at 16 kHz.
const DefaultFramesPerBuffer = 512

// Backend opens PortAudio input streams.
type Backend struct {
	FramesPerBuffer int
}

// New creates a PortAudio backend with default buffering.
func New() *Backend {
	return &Backend{FramesPerBuffer: DefaultFramesPerBuffer}
}

// Open implements audiocapture.Backend. Only 16-bit samples are supported.
func (b *Backend) Open(device string, f audiocapture.Format, onFrame func([]byte)) (audiocapture.Stream, error) {
	if f.SampleWidth != 2 {
		return nil, fmt.Errorf("%w: unsupported sample width %d", audiocapture.ErrDeviceUnavailable, f.SampleWidth)
	}

	frames := b.FramesPerBuffer
	if frames <= 0 {
		frames = DefaultFramesPerBuffer
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: initialize portaudio: %v", audiocapture.ErrDeviceUnavailable, err)
	}

	buffer := make([]int16, frames*f.Channels)
	params, err := selectDevice(device, f, frames, buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}

	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: open stream: %v", audiocapture.ErrDeviceUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("%w: start stream: %v", audiocapture.ErrDeviceUnavailable, err)
	}

	s := &stream16{
		stream:  stream,
		buffer:  buffer,
		onFrame: onFrame,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.readLoop()

	slog.Info("microphone opened", "device", params.Input.Device.Name, "rate", f.SampleRate)
	return s, nil
}

// selectDevice picks the requested device, then the default input, then any
// input that accepts the format.
func selectDevice(name string, f audiocapture.Format, frames int, buffer []int16) (portaudio.StreamParameters, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return portaudio.StreamParameters{}, fmt.Errorf("%w: list devices: %v", audiocapture.ErrDeviceUnavailable, err)
	}

	var candidates []*portaudio.DeviceInfo
	if name != "" && name != "default" {
		for _, dev := range devices {
			if dev.Name == name {
				candidates = append(candidates, dev)
			}
		}
		if len(candidates) == 0 {
			slog.Warn("input device not found, using default", "device", name)
		}
	}
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		candidates = append(candidates, def)
	}
	candidates = append(candidates, devices...)

	for _, dev := range candidates {
		if dev.MaxInputChannels < f.Channels {
			continue
		}
		p := portaudio.StreamParameters{
			Input: portaudio.StreamDeviceParameters{
				Device:   dev,
				Channels: f.Channels,
				Latency:  dev.DefaultLowInputLatency,
			},
			SampleRate:      float64(f.SampleRate),
			FramesPerBuffer: frames,
		}
		if err := portaudio.IsFormatSupported(p, buffer); err != nil {
			slog.Debug("input device rejected format", "device", dev.Name, "error", err)
			continue
		}
		return p, nil
	}

	return portaudio.StreamParameters{}, fmt.Errorf("%w: no input device supports %d Hz, %d channel(s), 16-bit",
		audiocapture.ErrDeviceUnavailable, f.SampleRate, f.Channels)
}

type stream16 struct {
	stream  *portaudio.Stream
	buffer  []int16
	onFrame func([]byte)

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func (s *stream16) readLoop() {
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if err := s.stream.Read(); err != nil {
			if errors.Is(err, portaudio.InputOverflowed) {
				continue
			}
			slog.Error("read audio stream", "error", err)
			return
		}

		frame := make([]byte, 2*len(s.buffer))
		for i, v := range s.buffer {
			binary.LittleEndian.PutUint16(frame[2*i:], uint16(v))
		}
		s.onFrame(frame)
	}
}

// Stop waits for the read loop to exit, then releases the device.
func (s *stream16) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done

		if e := s.stream.Stop(); e != nil {
			slog.Warn("stop portaudio stream", "error", e)
		}
		if e := s.stream.Close(); e != nil {
			err = fmt.Errorf("close stream: %w", e)
		}
		if e := portaudio.Terminate(); e != nil && err == nil {
			err = fmt.Errorf("terminate portaudio: %w", e)
		}
	})
	return err
}

// DeviceInfo holds information about an input device.
type DeviceInfo struct {
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	IsDefault         bool
}

// ListDevices returns the available input devices.
func ListDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}

	var defaultName string
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultName = def.Name
	}

	var out []DeviceInfo
	for _, dev := range devices {
		if dev.MaxInputChannels == 0 {
			continue
		}
		out = append(out, DeviceInfo{
			Name:              dev.Name,
			MaxInputChannels:  dev.MaxInputChannels,
			DefaultSampleRate: dev.DefaultSampleRate,
			IsDefault:         dev.Name == defaultName,
		})
	}
	return out, nil
}
