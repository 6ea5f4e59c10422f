package audiocapture

import (
	"encoding/binary"
	"math"
)

// Level returns the RMS of the recording normalized to [0, 1].
// Only 16-bit audio is measured; other widths report 0.
func (r Recording) Level() float64 {
	if r.SampleWidth != 2 || len(r.PCM) < 2 {
		return 0
	}
	return rms16(r.PCM)
}

// rms16 calculates the root mean square of little-endian 16-bit samples.
func rms16(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[2*i:]))) / 32768
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}
