//go:build nooverlay

package overlay

// Default returns nil: this build has no overlay capability.
func Default() Engine {
	return nil
}
