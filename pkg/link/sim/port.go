// Package sim provides a simulated serial link and a virtual clock for
// running both sides of the link in one goroutine.
package sim

import (
	"errors"
	"sync"
)

// ErrNoData is returned by ReadByte when nothing was received.
var ErrNoData = errors.New("no data")

// ErrClosed is returned when the wire is closed.
var ErrClosed = errors.New("wire closed")

type wire struct {
	data   []byte
	closed bool
	lock   sync.Mutex
}

func (w *wire) push(p ...byte) error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.closed {
		return ErrClosed
	}
	w.data = append(w.data, p...)
	return nil
}

func (w *wire) pop() (byte, error) {
	w.lock.Lock()
	defer w.lock.Unlock()
	if len(w.data) == 0 {
		if w.closed {
			return 0, ErrClosed
		}
		return 0, ErrNoData
	}
	b := w.data[0]
	w.data = w.data[1:]
	return b, nil
}

func (w *wire) drain() []byte {
	w.lock.Lock()
	defer w.lock.Unlock()
	data := w.data
	w.data = nil
	return data
}

func (w *wire) available() bool {
	w.lock.Lock()
	defer w.lock.Unlock()
	return len(w.data) > 0 || w.closed
}

func (w *wire) close() {
	w.lock.Lock()
	w.closed = true
	w.lock.Unlock()
}

// Port is one end of a simulated serial link. Bytes are delivered
// immediately and the transmitter is always ready.
type Port struct {
	rx, tx *wire
}

// Pair creates both ends of a link.
func Pair() (*Port, *Port) {
	a, b := &wire{}, &wire{}
	return &Port{rx: a, tx: b}, &Port{rx: b, tx: a}
}

// Received implements link.Serial.
func (p *Port) Received() bool {
	return p.rx.available()
}

// ReadByte implements link.Serial.
func (p *Port) ReadByte() (byte, error) {
	return p.rx.pop()
}

// TxReady implements link.Serial.
func (p *Port) TxReady() bool {
	return true
}

// WriteByte implements link.Serial.
func (p *Port) WriteByte(b byte) error {
	return p.tx.push(b)
}

// Write sends all bytes to the peer.
func (p *Port) Write(data []byte) (int, error) {
	if err := p.tx.push(data...); err != nil {
		return 0, err
	}
	return len(data), nil
}

// ReadAll takes all received bytes.
func (p *Port) ReadAll() []byte {
	return p.rx.drain()
}

// Close closes the link in both directions.
func (p *Port) Close() error {
	p.rx.close()
	p.tx.close()
	return nil
}
