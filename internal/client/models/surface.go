package models

import "fmt"

// Surface identifies which view drives an upload. The maximum accepted file
// size is a property of the surface, not a global constant.
type Surface string

const (
	SurfacePanel    Surface = "panel"
	SurfaceCenter   Surface = "center"
	SurfaceCategory Surface = "category"
)

const mb = 1 << 20

// MaxFileSize returns the per-file size ceiling for the surface.
func (s Surface) MaxFileSize() int64 {
	switch s {
	case SurfacePanel:
		return 10 * mb
	case SurfaceCenter:
		return 20 * mb
	default:
		return 50 * mb
	}
}

// ParseSurface validates a surface name from configuration.
func ParseSurface(s string) (Surface, error) {
	switch Surface(s) {
	case SurfacePanel, SurfaceCenter, SurfaceCategory:
		return Surface(s), nil
	}
	return "", fmt.Errorf("unknown upload surface %q", s)
}
