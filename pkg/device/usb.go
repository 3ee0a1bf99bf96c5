package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
)

// USBChannel is a bulk-endpoint channel to a USB printer.
type USBChannel struct {
	ctx   *gousb.Context
	dev   *gousb.Device
	iface *gousb.Interface
	done  func()
	out   *gousb.OutEndpoint
	in    *gousb.InEndpoint
	mu    sync.Mutex
}

// OpenUSB connects to a USB printer by vendor/product ID and claims its
// default interface. The IN endpoint is optional: printers wired for
// one-way use still accept commands, only status queries will time out.
func OpenUSB(vid, pid uint16) (*USBChannel, error) {
	ctx := gousb.NewContext()

	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("failed to open USB device: %w", err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("device not found: %04X:%04X", vid, pid)
	}

	// Some devices need the kernel driver detached before the interface
	// can be claimed; try without first.
	iface, done, err := dev.DefaultInterface()
	if err != nil {
		dev.SetAutoDetach(true)
		iface, done, err = dev.DefaultInterface()
	}
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to claim USB interface: %w", err)
	}

	c := &USBChannel{ctx: ctx, dev: dev, iface: iface, done: done}
	for _, epDesc := range iface.Setting.Endpoints {
		switch epDesc.Direction {
		case gousb.EndpointDirectionOut:
			if c.out == nil {
				c.out, _ = iface.OutEndpoint(epDesc.Number)
			}
		case gousb.EndpointDirectionIn:
			if c.in == nil {
				c.in, _ = iface.InEndpoint(epDesc.Number)
			}
		}
	}
	if c.out == nil {
		c.Close()
		return nil, fmt.Errorf("no OUT endpoint on USB printer %04X:%04X", vid, pid)
	}

	return c, nil
}

// Write sends data to the printer.
func (c *USBChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.out.Write(p)
}

// Puts sends a text command to the printer.
func (c *USBChannel) Puts(s string) (int, error) {
	return c.Write([]byte(s))
}

// Flush is a no-op: bulk transfers are not buffered on the host side.
func (c *USBChannel) Flush() error {
	return nil
}

// Read polls the IN endpoint; a quiet endpoint returns 0 bytes with a
// nil error.
func (c *USBChannel) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.in == nil {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	n, err := c.in.ReadContext(ctx, p)
	if errors.Is(err, context.DeadlineExceeded) {
		return n, nil
	}
	return n, err
}

// Close releases the interface and device.
func (c *USBChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done != nil {
		c.done()
		c.done = nil
	}
	if c.dev != nil {
		c.dev.Close()
		c.dev = nil
	}
	if c.ctx != nil {
		c.ctx.Close()
		c.ctx = nil
	}
	return nil
}
