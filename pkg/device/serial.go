package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// SerialChannel is an RS-232C channel to a printer.
type SerialChannel struct {
	port *serial.Port
	mu   sync.Mutex
}

// OpenSerial opens a serial port to a printer. A zero baud rate selects
// 9600, the TPCL factory default.
func OpenSerial(devicePath string, baud int) (*SerialChannel, error) {
	if baud == 0 {
		baud = 9600
	}

	config := &serial.Config{
		Name: devicePath,
		Baud: baud,
		// A short read timeout makes Read behave as a non-blocking poll.
		ReadTimeout: time.Millisecond,
	}

	port, err := serial.OpenPort(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	return &SerialChannel{port: port}, nil
}

// Write sends data to the printer.
func (c *SerialChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.port.Write(p)
}

// Puts sends a text command to the printer.
func (c *SerialChannel) Puts(s string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.port.Write([]byte(s))
}

// Flush is a no-op: serial writes are unbuffered.
func (c *SerialChannel) Flush() error {
	return nil
}

// Read polls for response data; the port's read timeout makes a quiet
// line return 0 bytes with a nil error.
func (c *SerialChannel) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.port.Read(p)
}

// Close closes the port.
func (c *SerialChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.port.Close()
}
