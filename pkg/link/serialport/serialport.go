// Package serialport opens the UART link on a serial device.
package serialport

import (
	"fmt"
	"io"
	"time"

	"github.com/goburrow/serial"

	"github.com/robotalks/swbridge.go/pkg/link"
)

// DefaultReadTimeout bounds a blocking read so the reader can stop.
const DefaultReadTimeout = 100 * time.Millisecond

// Config returns the serial settings of the link: 9600 baud, 8N1.
func Config(address string) *serial.Config {
	return &serial.Config{
		Address:  address,
		BaudRate: link.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  DefaultReadTimeout,
	}
}

// Open opens the serial device.
func Open(address string) (io.ReadWriteCloser, error) {
	port, err := serial.Open(Config(address))
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", address, err)
	}
	return &timeoutPort{Port: port}, nil
}

// timeoutPort reports a read timeout as an empty read.
type timeoutPort struct {
	serial.Port
}

func (p *timeoutPort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if err == serial.ErrTimeout {
		return n, nil
	}
	return n, err
}
