//go:build !linux

package clock

import "github.com/karasz/gtleap/convert"

func kernelTAI() (convert.Instant, error) {
	return convert.Instant{}, ErrUnsupported
}
