package vision

import (
	"fmt"
	"io"

	"github.com/cybercrawl/go-spider/internal/httpc"
)

// HTTPFrameSource pulls JPEG frames from a camera service endpoint (the
// Pi camera daemon exposes /frame). Camera acquisition itself is outside
// the controller; this is just transport.
type HTTPFrameSource struct {
	URL string
}

// NewHTTPFrameSource creates a frame source for the given frame endpoint.
func NewHTTPFrameSource(url string) *HTTPFrameSource {
	return &HTTPFrameSource{URL: url}
}

// CaptureJPEG fetches one frame.
func (h *HTTPFrameSource) CaptureJPEG() ([]byte, error) {
	resp, err := httpc.Get(h.URL)
	if err != nil {
		return nil, fmt.Errorf("frame request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("frame request returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	return data, nil
}

var _ FrameSource = (*HTTPFrameSource)(nil)
