package persist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	// ErrImageSize is returned when an image is smaller than ImageSize.
	ErrImageSize = errors.New("image too small")
	// ErrNoCount means all blocks are erased.
	ErrNoCount = errors.New("no reset count found, storage was probably erased")
)

// Image is an in-memory storage, e.g. a dump of the EEPROM.
type Image struct {
	data [ImageSize]byte
	lock sync.RWMutex
}

// NewImage creates an erased Image.
func NewImage() *Image {
	img := &Image{}
	for n := range img.data {
		img.data[n] = 0xff
	}
	return img
}

// LoadImage creates an Image from the first ImageSize bytes of data.
func LoadImage(data []byte) (*Image, error) {
	if len(data) < ImageSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageSize, len(data))
	}
	img := &Image{}
	copy(img.data[:], data)
	return img, nil
}

// ReadImage loads an Image from r.
func ReadImage(r io.Reader) (*Image, error) {
	img := &Image{}
	if _, err := io.ReadFull(r, img.data[:]); err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, ErrImageSize
		}
		return nil, err
	}
	return img, nil
}

// Bytes returns a copy of the image.
func (img *Image) Bytes() []byte {
	img.lock.RLock()
	defer img.lock.RUnlock()
	return append([]byte(nil), img.data[:]...)
}

// ReadBlock implements Blocks.
func (img *Image) ReadBlock(index int) (uint32, error) {
	if index < 0 || index >= BlockCount {
		return 0, ErrIndexRange
	}
	img.lock.RLock()
	defer img.lock.RUnlock()
	return binary.LittleEndian.Uint32(img.data[index*BlockSize:]), nil
}

// WriteBlock implements Blocks.
func (img *Image) WriteBlock(index int, value uint32) error {
	if index < 0 || index >= BlockCount {
		return ErrIndexRange
	}
	img.lock.Lock()
	defer img.lock.Unlock()
	binary.LittleEndian.PutUint32(img.data[index*BlockSize:], value)
	return nil
}

// ImageFile is a storage image kept in a file.
type ImageFile struct {
	file *os.File
}

// OpenImageFile opens the image file, creating an erased one if it doesn't
// exist.
func OpenImageFile(path string) (*ImageFile, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if size := info.Size(); size < ImageSize {
		erased := make([]byte, ImageSize-size)
		for n := range erased {
			erased[n] = 0xff
		}
		if _, err := file.WriteAt(erased, size); err != nil {
			file.Close()
			return nil, fmt.Errorf("initialize %s: %w", path, err)
		}
	}
	return &ImageFile{file: file}, nil
}

// ReadBlock implements Blocks.
func (f *ImageFile) ReadBlock(index int) (uint32, error) {
	if index < 0 || index >= BlockCount {
		return 0, ErrIndexRange
	}
	var buf [BlockSize]byte
	if _, err := f.file.ReadAt(buf[:], int64(index*BlockSize)); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteBlock implements Blocks.
func (f *ImageFile) WriteBlock(index int, value uint32) error {
	if index < 0 || index >= BlockCount {
		return ErrIndexRange
	}
	var buf [BlockSize]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	if _, err := f.file.WriteAt(buf[:], int64(index*BlockSize)); err != nil {
		return err
	}
	return f.file.Sync()
}

// Close closes the file.
func (f *ImageFile) Close() error {
	return f.file.Close()
}

// ScanResetCount finds the reset count in a storage dump. Unlike
// ResetCounter it reports erased and implausible contents as errors.
func ScanResetCount(b Blocks) (uint32, error) {
	for index := 0; index < BlockCount; index++ {
		value, err := b.ReadBlock(index)
		if err != nil {
			return 0, err
		}
		if value == Erased {
			continue
		}
		if value > MaxResetCount {
			return 0, fmt.Errorf("found probably uninitialized value 0x%08x", value)
		}
		return value, nil
	}
	return 0, ErrNoCount
}
