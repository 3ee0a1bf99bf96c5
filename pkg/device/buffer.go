package device

import "bytes"

// Buffer is an in-memory Channel. It captures everything written and
// serves scripted response bytes to Read; tests and dry runs use it in
// place of a real device.
type Buffer struct {
	Out      bytes.Buffer
	Response []byte
	Flushes  int
}

// Write captures data.
func (b *Buffer) Write(p []byte) (int, error) {
	return b.Out.Write(p)
}

// Puts captures a text command.
func (b *Buffer) Puts(s string) (int, error) {
	return b.Out.WriteString(s)
}

// Flush counts flushes.
func (b *Buffer) Flush() error {
	b.Flushes++
	return nil
}

// Read returns the scripted response once, then reports no data.
func (b *Buffer) Read(p []byte) (int, error) {
	if len(b.Response) == 0 {
		return 0, nil
	}
	n := copy(p, b.Response)
	b.Response = b.Response[n:]
	return n, nil
}

// Close is a no-op.
func (b *Buffer) Close() error {
	return nil
}

// Bytes returns everything written so far.
func (b *Buffer) Bytes() []byte {
	return b.Out.Bytes()
}
