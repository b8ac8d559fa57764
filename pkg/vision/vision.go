// Package vision supplies labeled object detections to the navigation
// policy.
//
// Detection runs on its own cadence in a background sampler; consumers read
// the most recent batch as a non-blocking snapshot and never wait on the
// detector. The detector itself is a black box behind the Detector
// interface; this package does not own the model.
package vision

import (
	"context"
	"sync"
	"time"

	"github.com/cybercrawl/go-spider/internal/log"
)

// Detection is one labeled, confidence-scored object in the camera frame.
// Pixel coordinates, origin top-left.
type Detection struct {
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	Box        [4]int  `json:"bbox"` // x1, y1, x2, y2
	CenterX    int     `json:"center_x"`
	CenterY    int     `json:"center_y"`
}

// Provider exposes the latest detection batch. Implementations must be
// non-blocking: return whatever is cached, empty when nothing is available.
type Provider interface {
	Detections() []Detection
}

// None is the vision-disabled provider.
type None struct{}

func (None) Detections() []Detection { return nil }

// FrameSource produces JPEG camera frames. Raw frame acquisition lives
// outside this package.
type FrameSource interface {
	CaptureJPEG() ([]byte, error)
}

// Detector finds objects in a JPEG frame.
type Detector interface {
	Detect(jpeg []byte) ([]Detection, error)
	Close() error
}

// Sampler runs a detector on camera frames at a fixed interval and caches
// the latest batch for snapshot reads.
type Sampler struct {
	frames   FrameSource
	detector Detector
	interval time.Duration

	mu     sync.RWMutex
	latest []Detection
}

// NewSampler creates a sampler; call Run in a goroutine to start it.
func NewSampler(frames FrameSource, detector Detector, interval time.Duration) *Sampler {
	return &Sampler{frames: frames, detector: detector, interval: interval}
}

// Run samples frames until the context is canceled. Detection errors are
// logged and skipped; the previous batch stays visible until replaced.
func (s *Sampler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info("vision sampler started", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			log.Info("vision sampler stopped")
			return
		case <-ticker.C:
			s.sample()
		}
	}
}

func (s *Sampler) sample() {
	frame, err := s.frames.CaptureJPEG()
	if err != nil {
		log.Debug("frame capture failed", "error", err)
		return
	}

	dets, err := s.detector.Detect(frame)
	if err != nil {
		log.Warn("detection failed", "error", err)
		return
	}

	s.mu.Lock()
	s.latest = dets
	s.mu.Unlock()
}

// Detections returns the most recent batch without blocking.
func (s *Sampler) Detections() []Detection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Detection, len(s.latest))
	copy(out, s.latest)
	return out
}

var (
	_ Provider = (*Sampler)(nil)
	_ Provider = None{}
)
