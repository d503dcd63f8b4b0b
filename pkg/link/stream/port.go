// Package stream adapts a byte stream (serial device, websocket, pipe) to
// link.Serial.
package stream

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
)

// ErrNoData is returned by ReadByte when nothing was received.
var ErrNoData = errors.New("no data")

// DefaultBufferSize is the size of the receive buffer.
const DefaultBufferSize = 64

// Port implements link.Serial over an io.ReadWriter. Bytes are read in the
// background and buffered.
type Port struct {
	ReadWriter io.ReadWriter

	byteCh chan byte
	err    error
	cancel context.CancelFunc
	lock   sync.RWMutex
}

// New creates a Port and starts reading. The reader stops when ctx is
// done, Close is called, or the stream fails.
func New(ctx context.Context, rw io.ReadWriter) *Port {
	p := &Port{
		ReadWriter: rw,
		byteCh:     make(chan byte, DefaultBufferSize),
	}
	subCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	go p.readLoop(subCtx)
	return p
}

// Received implements link.Serial. A pending read error is reported as
// received so ReadByte can return it.
func (p *Port) Received() bool {
	if len(p.byteCh) > 0 {
		return true
	}
	return p.Err() != nil
}

// ReadByte implements link.Serial.
func (p *Port) ReadByte() (byte, error) {
	select {
	case b := <-p.byteCh:
		return b, nil
	default:
	}
	if err := p.Err(); err != nil {
		return 0, err
	}
	return 0, ErrNoData
}

// TxReady implements link.Serial.
func (p *Port) TxReady() bool {
	return true
}

// WriteByte implements link.Serial.
func (p *Port) WriteByte(b byte) error {
	_, err := p.ReadWriter.Write([]byte{b})
	return err
}

// Err returns the error which stopped the reader.
func (p *Port) Err() error {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.err
}

// Close stops the reader and closes the stream if it's an io.Closer.
func (p *Port) Close() error {
	p.cancel()
	if c, ok := p.ReadWriter.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *Port) readLoop(ctx context.Context) {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			p.setErr(ctx.Err())
			return
		default:
		}
		n, err := p.ReadWriter.Read(buf)
		if err != nil {
			if os.IsTimeout(err) {
				continue
			}
			p.setErr(err)
			return
		}
		if n == 0 {
			continue
		}
		select {
		case p.byteCh <- buf[0]:
		case <-ctx.Done():
			p.setErr(ctx.Err())
			return
		}
	}
}

func (p *Port) setErr(err error) {
	p.lock.Lock()
	if p.err == nil {
		p.err = err
	}
	p.lock.Unlock()
}
