// Package wav frames raw little-endian PCM into RIFF/WAVE containers.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	gowav "github.com/go-audio/wav"
)

// HeaderSize is the size of the canonical PCM header written by Frame.
const HeaderSize = 44

// ErrInvalidAudioParameters is returned when rate, width or channel count is
// not positive, or when the payload is not a whole number of frames.
var ErrInvalidAudioParameters = errors.New("invalid audio parameters")

// header is the canonical 44-byte PCM header, written in field order.
type header struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// Frame wraps pcm in a WAV container. The samples are copied verbatim.
// sampleWidth is in bytes per sample.
func Frame(pcm []byte, sampleRate, sampleWidth, channels int) ([]byte, error) {
	if sampleRate <= 0 || sampleWidth <= 0 || channels <= 0 {
		return nil, fmt.Errorf("%w: rate=%d width=%d channels=%d",
			ErrInvalidAudioParameters, sampleRate, sampleWidth, channels)
	}

	blockAlign := sampleWidth * channels
	if len(pcm)%blockAlign != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of block align %d",
			ErrInvalidAudioParameters, len(pcm), blockAlign)
	}

	h := header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(36 + len(pcm)),
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * blockAlign),
		BlockAlign:    uint16(blockAlign),
		BitsPerSample: uint16(sampleWidth * 8),
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(len(pcm)),
	}

	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize+len(pcm)))
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// Info describes a parsed WAV payload.
type Info struct {
	SampleRate  int
	SampleWidth int // bytes per sample
	Channels    int
	Samples     int // per channel
	Duration    time.Duration
}

// Inspect parses a WAV payload and reports its format.
func Inspect(data []byte) (Info, error) {
	d := gowav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return Info{}, fmt.Errorf("decode wav: %w", err)
		}
		return Info{}, fmt.Errorf("decode wav: not a valid file")
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Info{}, fmt.Errorf("read pcm: %w", err)
	}

	info := Info{
		SampleRate:  int(d.SampleRate),
		SampleWidth: int(d.BitDepth) / 8,
		Channels:    int(d.NumChans),
	}
	if info.Channels > 0 {
		info.Samples = len(buf.Data) / info.Channels
	}
	if info.SampleRate > 0 {
		info.Duration = time.Duration(info.Samples) * time.Second / time.Duration(info.SampleRate)
	}
	return info, nil
}
