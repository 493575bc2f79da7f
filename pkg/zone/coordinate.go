package zone

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrFramesDisabled is returned for frame references when no frame spacing
// was configured.
var ErrFramesDisabled = errors.New("frame coordinates require a frame spacing")

// Coordinates converts ship coordinate strings to longitudinal positions.
// Accepted forms are plain numbers ("12.5") and frame references
// ("FR10", "#FR10+0.3", "fr-2").
type Coordinates struct {
	FrameSpacing float64 // distance between consecutive frames; 0 disables frames
	FrameOrigin  float64 // X of frame 0
}

// Parse returns the X value of a coordinate string.
func (c Coordinates) Parse(s string) (float64, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, fmt.Errorf("empty coordinate")
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v, nil
	}

	t := strings.ToUpper(strings.TrimPrefix(raw, "#"))
	if !strings.HasPrefix(t, "FR") {
		return 0, fmt.Errorf("invalid coordinate %q", s)
	}
	if c.FrameSpacing == 0 {
		return 0, fmt.Errorf("coordinate %q: %w", s, ErrFramesDisabled)
	}
	t = t[2:]

	// A sign after the first character starts the offset; a leading sign
	// belongs to the frame number.
	frame, offset := t, ""
	if len(t) > 1 {
		if i := strings.IndexAny(t[1:], "+-"); i >= 0 {
			frame, offset = t[:i+1], t[i+1:]
		}
	}

	n, err := strconv.ParseFloat(frame, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame number in %q", s)
	}
	x := c.FrameOrigin + n*c.FrameSpacing
	if offset != "" {
		d, err := strconv.ParseFloat(offset, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid frame offset in %q", s)
		}
		x += d
	}
	return x, nil
}
