// Package snapshot captures raw frame targets, color and depth at full
// precision, as zstd-compressed files.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zstd"

	"postfx-renderer/internal/raster"
)

// Snapshot format errors
var (
	ErrBadMagic   = errors.New("snapshot: not a frame snapshot")
	ErrVersion    = errors.New("snapshot: unsupported version")
	ErrCorrupted  = errors.New("snapshot: corrupted data")
	ErrTooLarge   = errors.New("snapshot: dimensions out of range")
	ErrColorDepth = errors.New("snapshot: unknown color depth")
)

const (
	magic   = "PFXS"
	version = 1

	// maxPixels bounds allocations when reading untrusted files.
	maxPixels = 1 << 26
)

// header follows the magic; everything after it is one zstd stream holding
// the color then the depth buffer as little-endian float32.
type header struct {
	Version uint16
	Depth   uint8
	_       uint8
	Width   uint32
	Height  uint32
}

// Write encodes t to w.
func Write(w io.Writer, t *raster.Target) error {
	if _, err := io.WriteString(w, magic); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}
	h := header{Version: version, Depth: uint8(t.Depth), Width: uint32(t.Width), Height: uint32(t.Height)}
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("snapshot: create encoder: %w", err)
	}
	bw := bufio.NewWriter(enc)
	if err := writeFloats(bw, t.Color); err != nil {
		enc.Close()
		return fmt.Errorf("snapshot: write color: %w", err)
	}
	if err := writeFloats(bw, t.ZBuf); err != nil {
		enc.Close()
		return fmt.Errorf("snapshot: write depth: %w", err)
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return fmt.Errorf("snapshot: flush: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("snapshot: finish stream: %w", err)
	}
	return nil
}

// Read decodes a target written by Write.
func Read(r io.Reader) (*raster.Target, error) {
	var m [len(magic)]byte
	if _, err := io.ReadFull(r, m[:]); err != nil {
		return nil, ErrBadMagic
	}
	if string(m[:]) != magic {
		return nil, ErrBadMagic
	}
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrCorrupted, err)
	}
	if h.Version != version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if h.Width == 0 || h.Height == 0 || uint64(h.Width)*uint64(h.Height) > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, h.Width, h.Height)
	}
	depth := raster.ColorDepth(h.Depth)
	if depth != raster.ColorDepth8 && depth != raster.ColorDepthHalf && depth != raster.ColorDepthFloat {
		return nil, fmt.Errorf("%w: %d", ErrColorDepth, h.Depth)
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		// Small in-memory inputs are decoded eagerly, so stream errors can show up here.
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	defer dec.Close()

	t := raster.NewTarget(int(h.Width), int(h.Height), depth)
	br := bufio.NewReader(dec)
	if err := readFloats(br, t.Color); err != nil {
		return nil, fmt.Errorf("%w: color: %v", ErrCorrupted, err)
	}
	if err := readFloats(br, t.ZBuf); err != nil {
		return nil, fmt.Errorf("%w: depth: %v", ErrCorrupted, err)
	}
	return t, nil
}

// Save writes t to path.
func Save(path string, t *raster.Target) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", path, err)
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("snapshot: close %s: %w", path, err)
	}
	return nil
}

// Load reads a snapshot file.
func Load(path string) (*raster.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	defer f.Close()
	t, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("snapshot: load %s: %w", path, err)
	}
	return t, nil
}

func writeFloats(w io.Writer, vals []float32) error {
	var buf [4]byte
	for _, v := range vals {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

func readFloats(r io.Reader, vals []float32) error {
	var buf [4]byte
	for i := range vals {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return err
		}
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[:]))
	}
	return nil
}
