package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyEsc  = 256 // Escape key (GLFW)
	KeyDown = 264 // Down arrow (GLFW)
	KeyUp   = 265 // Up arrow (GLFW)
)
