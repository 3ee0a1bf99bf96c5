// Package device provides the byte channel to a printer and its USB,
// serial, and network implementations.
package device

// Channel is the byte channel between the driver and a printer device.
// Write and Puts may buffer; Flush pushes buffered bytes to the wire.
// Read must not block: it returns 0 and a nil error when no data has
// arrived yet.
type Channel interface {
	Write(p []byte) (int, error)
	Puts(s string) (int, error)
	Flush() error
	Read(p []byte) (int, error)
	Close() error
}
