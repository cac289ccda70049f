package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/skylarkvoice/skylark/internal/observability"
)

// MicSource captures frames from the default input device via portaudio.
// Each Read of the stream yields one frame which is handed to the push
// callback from a dedicated capture goroutine.
type MicSource struct {
	sampleRate int
	frameSize  int

	mu      sync.Mutex
	stream  *portaudio.Stream
	done    chan struct{}
	running bool
}

// NewMicSource creates a microphone source. Initialize must have been
// called once per process (see InitInput/TerminateInput).
func NewMicSource(sampleRate, frameSize int) *MicSource {
	return &MicSource{
		sampleRate: sampleRate,
		frameSize:  frameSize,
	}
}

// InitInput initializes the portaudio subsystem
func InitInput() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return nil
}

// TerminateInput releases the portaudio subsystem
func TerminateInput() {
	portaudio.Terminate()
}

func (m *MicSource) SampleRate() int { return m.sampleRate }

// Start opens the default input stream and begins pushing frames
func (m *MicSource) Start(push FrameFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("microphone source already started")
	}

	buf := make([]int16, m.frameSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), len(buf), buf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	m.stream = stream
	m.done = make(chan struct{})
	m.running = true

	logger := observability.GetLogger()

	go func(done chan struct{}) {
		for {
			select {
			case <-done:
				return
			default:
			}

			if err := stream.Read(); err != nil {
				// Overflows happen when the consumer briefly falls behind;
				// anything else ends the capture goroutine.
				if err == portaudio.InputOverflowed {
					continue
				}
				logger.Warn().Err(err).Msg("microphone read failed, stopping capture")
				return
			}

			frame := make([]int16, len(buf))
			copy(frame, buf)
			push(frame)
		}
	}(m.done)

	return nil
}

// Stop ends the capture goroutine and closes the stream
func (m *MicSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false
	close(m.done)

	if err := m.stream.Stop(); err != nil {
		m.stream.Close()
		return err
	}
	return m.stream.Close()
}
