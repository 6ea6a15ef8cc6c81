//go:build !nooverlay

package overlay

// Default returns the engine compiled into this build.
func Default() Engine {
	return NewPlanar()
}
