package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// LoadWAV reads a mono 16-bit PCM WAV file and returns its samples and
// sample rate. Used by the batch transcription mode.
func LoadWAV(path string) ([]int16, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s is not a valid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}

	if buf.Format.NumChannels != 1 {
		return nil, 0, fmt.Errorf("WAV must be mono, got %d channels", buf.Format.NumChannels)
	}
	if dec.BitDepth != 16 {
		return nil, 0, fmt.Errorf("WAV must be 16-bit PCM, got %d-bit", dec.BitDepth)
	}

	samples := make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = int16(v)
	}

	return samples, buf.Format.SampleRate, nil
}
