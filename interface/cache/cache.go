// Package cache provides fixed-shape float32 rasters backed by a memory-mapped file.
package cache

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const sampleSize = 4 // float32

var (
	// ErrCacheAllocation is returned when the cache file cannot be created, sized or mapped
	ErrCacheAllocation = errors.New("cache allocation")
	// ErrCacheShape is returned by Open when the size of the file does not match the shape
	ErrCacheShape = errors.New("cache shape mismatch")
)

// Buffer is a rows x cols float32 raster (row-major) mapped from a file.
// It has one writer. Readers must wait until the writer has released it.
type Buffer struct {
	path       string
	rows, cols int
	file       *os.File
	mmap       []byte
	data       []float32
	readOnly   bool
}

// Allocate creates (or truncates) the file at path, sizes it to rows x cols float32 and maps it.
// The shape is fixed for the lifetime of the buffer.
func Allocate(path string, rows, cols int) (*Buffer, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: invalid shape (%d, %d)", ErrCacheAllocation, rows, cols)
	}
	size := int64(rows) * int64(cols) * sampleSize
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheAllocation, err)
	}
	if err := f.Truncate(size); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: truncate %s: %w", ErrCacheAllocation, path, err)
	}
	b, err := mmap(f, path, rows, cols, false)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: %w", ErrCacheAllocation, err)
	}
	return b, nil
}

// Open maps an existing cache file read-only.
// The content must not be modified through the returned buffer.
func Open(path string, rows, cols int) (*Buffer, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: invalid shape (%d, %d)", ErrCacheShape, rows, cols)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cache.Open: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cache.Open.Stat: %w", err)
	}
	if st.Size() != int64(rows)*int64(cols)*sampleSize {
		f.Close()
		return nil, fmt.Errorf("%w: %s has %d bytes, expecting %dx%d float32", ErrCacheShape, path, st.Size(), rows, cols)
	}
	b, err := mmap(f, path, rows, cols, true)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cache.Open: %w", err)
	}
	return b, nil
}

func mmap(f *os.File, path string, rows, cols int, readOnly bool) (*Buffer, error) {
	prot := unix.PROT_READ | unix.PROT_WRITE
	if readOnly {
		prot = unix.PROT_READ
	}
	m, err := unix.Mmap(int(f.Fd()), 0, rows*cols*sampleSize, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &Buffer{
		path:     path,
		rows:     rows,
		cols:     cols,
		file:     f,
		mmap:     m,
		data:     unsafe.Slice((*float32)(unsafe.Pointer(&m[0])), rows*cols),
		readOnly: readOnly,
	}, nil
}

// Path of the cache file
func (b *Buffer) Path() string {
	return b.path
}

// Shape returns the number of rows and columns
func (b *Buffer) Shape() (rows, cols int) {
	return b.rows, b.cols
}

// Data returns the whole raster, row-major
func (b *Buffer) Data() []float32 {
	return b.data
}

// Rows returns a view on n rows starting at row start
func (b *Buffer) Rows(start, n int) []float32 {
	return b.data[start*b.cols : (start+n)*b.cols]
}

// At returns the sample at (row, col)
func (b *Buffer) At(row, col int) float32 {
	return b.data[row*b.cols+col]
}

// Flush writes the mapped pages to the file
func (b *Buffer) Flush() error {
	if b.mmap == nil || b.readOnly {
		return nil
	}
	if err := unix.Msync(b.mmap, unix.MS_SYNC); err != nil {
		return fmt.Errorf("cache.Flush: %w", err)
	}
	return nil
}

// Close flushes and unmaps the buffer. The file is kept on disk.
// Close can be called several times.
func (b *Buffer) Close() error {
	if b.mmap == nil {
		return nil
	}
	err := b.Flush()
	if e := unix.Munmap(b.mmap); e != nil && err == nil {
		err = fmt.Errorf("cache.Close.Munmap: %w", e)
	}
	b.mmap, b.data = nil, nil
	if e := b.file.Close(); e != nil && err == nil {
		err = fmt.Errorf("cache.Close: %w", e)
	}
	return err
}

// Remove closes the buffer and deletes the file
func (b *Buffer) Remove() error {
	err := b.Close()
	if e := os.Remove(b.path); e != nil && !os.IsNotExist(e) && err == nil {
		err = fmt.Errorf("cache.Remove: %w", e)
	}
	return err
}
