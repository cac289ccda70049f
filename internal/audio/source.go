package audio

import "errors"

// ErrDeviceUnavailable indicates no usable input device could be opened.
// Fatal to the speak modality, not to the process.
var ErrDeviceUnavailable = errors.New("audio input device unavailable")

// FrameFunc receives one fixed-size frame of 16-bit PCM samples. It is
// called from the device's own capture goroutine and must not block.
type FrameFunc func(samples []int16)

// FrameSource delivers fixed-size PCM frames at a known sample rate via a
// push callback. Start returns once capture is running; Stop tears the
// stream down and releases the device.
type FrameSource interface {
	Start(push FrameFunc) error
	Stop() error
	SampleRate() int
}
