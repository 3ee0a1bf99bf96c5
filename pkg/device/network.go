package device

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"
)

// NetworkChannel is a TCP channel to a printer, typically on port 9100.
type NetworkChannel struct {
	conn net.Conn
	w    *bufio.Writer
	mu   sync.Mutex
}

// DialNetwork connects to a network printer.
func DialNetwork(host string, port int) (*NetworkChannel, error) {
	address := net.JoinHostPort(host, strconv.Itoa(port))

	conn, err := net.DialTimeout("tcp", address, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to network printer: %w", err)
	}

	return &NetworkChannel{
		conn: conn,
		w:    bufio.NewWriter(conn),
	}, nil
}

// Write buffers data for the printer.
func (c *NetworkChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.w.Write(p)
}

// Puts buffers a text command for the printer.
func (c *NetworkChannel) Puts(s string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.w.WriteString(s)
}

// Flush pushes buffered bytes to the wire.
func (c *NetworkChannel) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.w.Flush()
}

// Read performs a non-blocking read: 0 bytes and a nil error mean no data
// has arrived yet.
func (c *NetworkChannel) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
		return 0, err
	}
	n, err := c.conn.Read(p)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, nil
		}
		return n, err
	}
	return n, nil
}

// Close closes the connection.
func (c *NetworkChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
