package persist

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCounterErased(t *testing.T) {
	c := NewCounter(NewImage())
	require.NoError(t, c.Init())
	require.Equal(t, 0, c.Index())
	value, err := c.Get()
	require.NoError(t, err)
	require.Equal(t, uint32(0), value)
	_, ok, err := c.Lookup()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCounterSetGet(t *testing.T) {
	img := NewImage()
	c := NewCounter(img)
	require.NoError(t, c.Init())
	require.NoError(t, c.Set(42))
	value, err := c.Get()
	require.NoError(t, err)
	require.Equal(t, uint32(42), value)
	require.Equal(t, 1, c.Index())

	// one block holds the value
	for index := 0; index < BlockCount; index++ {
		v, err := img.ReadBlock(index)
		require.NoError(t, err)
		if index == 1 {
			require.Equal(t, uint32(42), v)
		} else {
			require.Equal(t, Erased, v)
		}
	}

	// reboot
	c = NewCounter(img)
	require.NoError(t, c.Init())
	require.Equal(t, 1, c.Index())
	value, err = c.Get()
	require.NoError(t, err)
	require.Equal(t, uint32(42), value)
}

func TestCounterWrap(t *testing.T) {
	img := NewImage()
	c := NewCounter(img)
	require.NoError(t, c.Init())
	for n := uint32(1); n <= BlockCount+1; n++ {
		require.NoError(t, c.Set(n*10))
	}
	require.Equal(t, 1, c.Index())
	value, err := c.Get()
	require.NoError(t, err)
	require.Equal(t, uint32((BlockCount+1)*10), value)

	c = NewCounter(img)
	require.NoError(t, c.Init())
	require.Equal(t, 1, c.Index())
}

func TestCounterReservedValue(t *testing.T) {
	c := NewCounter(NewImage())
	require.NoError(t, c.Init())
	require.NoError(t, c.Set(7))
	require.Equal(t, ErrReservedValue, c.Set(Erased))
	value, err := c.Get()
	require.NoError(t, err)
	require.Equal(t, uint32(7), value)
}

func TestResetCounter(t *testing.T) {
	img := NewImage()
	rc, err := NewResetCounter(img)
	require.NoError(t, err)
	for n := uint32(1); n <= 3; n++ {
		count, err := rc.Increment()
		require.NoError(t, err)
		require.Equal(t, n, count)
	}
	require.NoError(t, rc.Zero())
	count, err := rc.Count()
	require.NoError(t, err)
	require.Equal(t, uint32(0), count)

	require.NoError(t, rc.Set(MaxResetCount+1))
	count, err = rc.Count()
	require.NoError(t, err)
	require.Equal(t, uint32(0), count)
	count, err = rc.Increment()
	require.NoError(t, err)
	require.Equal(t, uint32(1), count)
}

func TestScanResetCount(t *testing.T) {
	img := NewImage()
	_, err := ScanResetCount(img)
	require.Equal(t, ErrNoCount, err)

	require.NoError(t, img.WriteBlock(17, 1234))
	count, err := ScanResetCount(img)
	require.NoError(t, err)
	require.Equal(t, uint32(1234), count)

	require.NoError(t, img.WriteBlock(3, 0x12345678))
	_, err = ScanResetCount(img)
	require.EqualError(t, err, "found probably uninitialized value 0x12345678")
}

func TestImage(t *testing.T) {
	_, err := LoadImage(make([]byte, 100))
	require.Error(t, err)

	img := NewImage()
	require.NoError(t, img.WriteBlock(1, 0x01020304))
	data := img.Bytes()
	require.Len(t, data, ImageSize)
	require.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 4, 3, 2, 1}, data[:8])

	loaded, err := LoadImage(data)
	require.NoError(t, err)
	value, err := loaded.ReadBlock(1)
	require.NoError(t, err)
	require.Equal(t, uint32(0x01020304), value)

	_, err = img.ReadBlock(BlockCount)
	require.Equal(t, ErrIndexRange, err)
	require.Equal(t, ErrIndexRange, img.WriteBlock(-1, 0))
}

func TestImageFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "persist")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "eeprom.bin")

	f, err := OpenImageFile(path)
	require.NoError(t, err)
	rc, err := NewResetCounter(f)
	require.NoError(t, err)
	_, err = rc.Increment()
	require.NoError(t, err)
	_, err = rc.Increment()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, ImageSize)
	img, err := LoadImage(data)
	require.NoError(t, err)
	count, err := ScanResetCount(img)
	require.NoError(t, err)
	require.Equal(t, uint32(2), count)

	f, err = OpenImageFile(path)
	require.NoError(t, err)
	defer f.Close()
	rc, err = NewResetCounter(f)
	require.NoError(t, err)
	require.Equal(t, 2, rc.Index())
}
