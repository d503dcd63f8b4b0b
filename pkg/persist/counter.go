// Package persist stores a counter in non-volatile memory, rotating writes
// across a ring of blocks to spread wear.
package persist

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golang/glog"
)

// Storage layout.
const (
	// BlockCount is the number of blocks in the ring.
	BlockCount = 256
	// BlockSize is the size of a block in bytes.
	BlockSize = 4
	// ImageSize is the size of the storage used.
	ImageSize = BlockCount * BlockSize
	// Erased is the value of an erased block. It can't be stored.
	Erased uint32 = 0xffffffff
)

var (
	// ErrReservedValue is returned when setting the erased value.
	ErrReservedValue = errors.New("value reserved for erased blocks")
	// ErrIndexRange is returned when accessing a block out of the ring.
	ErrIndexRange = errors.New("block index out of range")
)

// Blocks is the non-volatile storage.
type Blocks interface {
	ReadBlock(index int) (uint32, error)
	WriteBlock(index int, value uint32) error
}

// Counter is a uint32 value stored in one block of the ring. Each Set
// erases the current block and writes the next one.
type Counter struct {
	Blocks Blocks

	index int
	lock  sync.Mutex
}

// NewCounter creates a Counter. Init must be called before use.
func NewCounter(b Blocks) *Counter {
	return &Counter{Blocks: b}
}

// Init locates the current block: the first one not erased, or block 0 if
// all are erased.
func (c *Counter) Init() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	for index := 0; index < BlockCount; index++ {
		value, err := c.Blocks.ReadBlock(index)
		if err != nil {
			return fmt.Errorf("read block %d: %w", index, err)
		}
		if value != Erased {
			c.index = index
			glog.V(2).Infof("counter at block %d", index)
			return nil
		}
	}
	c.index = 0
	glog.V(2).Info("counter storage erased")
	return nil
}

// Index returns the current block index.
func (c *Counter) Index() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.index
}

// Lookup returns the stored value, ok is false if nothing is stored.
func (c *Counter) Lookup() (value uint32, ok bool, err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	value, err = c.Blocks.ReadBlock(c.index)
	if err != nil {
		return 0, false, fmt.Errorf("read block %d: %w", c.index, err)
	}
	if value == Erased {
		return 0, false, nil
	}
	return value, true, nil
}

// Get returns the stored value, 0 if nothing is stored.
func (c *Counter) Get() (uint32, error) {
	value, _, err := c.Lookup()
	return value, err
}

// Set stores the value in the next block.
func (c *Counter) Set(value uint32) error {
	if value == Erased {
		return ErrReservedValue
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if err := c.Blocks.WriteBlock(c.index, Erased); err != nil {
		return fmt.Errorf("erase block %d: %w", c.index, err)
	}
	next := (c.index + 1) % BlockCount
	if err := c.Blocks.WriteBlock(next, value); err != nil {
		return fmt.Errorf("write block %d: %w", next, err)
	}
	c.index = next
	return nil
}

// MaxResetCount is the largest plausible reset count. Larger values are
// taken as uninitialized storage.
const MaxResetCount = 100000

// ResetCounter counts game resets.
type ResetCounter struct {
	*Counter
}

// NewResetCounter creates and initializes a ResetCounter.
func NewResetCounter(b Blocks) (*ResetCounter, error) {
	c := NewCounter(b)
	if err := c.Init(); err != nil {
		return nil, err
	}
	return &ResetCounter{Counter: c}, nil
}

// Count returns the reset count.
func (c *ResetCounter) Count() (uint32, error) {
	value, err := c.Get()
	if err != nil {
		return 0, err
	}
	if value > MaxResetCount {
		return 0, nil
	}
	return value, nil
}

// Increment adds one reset and returns the new count.
func (c *ResetCounter) Increment() (uint32, error) {
	count, err := c.Count()
	if err != nil {
		return 0, err
	}
	count++
	if err := c.Set(count); err != nil {
		return 0, err
	}
	return count, nil
}

// Zero sets the reset count to zero.
func (c *ResetCounter) Zero() error {
	return c.Set(0)
}
