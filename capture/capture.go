// Package capture decodes the classic pcap capture file format into a lazy,
// forward-only sequence of link-layer frames. It knows nothing about
// Ethernet, IP, or DNS -- that is the extractor package's job -- only how to
// walk the global header and per-record headers and hand back raw frame
// bytes with their timestamps.
package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"

	"github.com/activecm/tunnelhunter/util"
)

const (
	magicBigEndian    = 0xA1B2C3D4
	magicLittleEndian = 0xD4C3B2A1

	globalHeaderLen = 24
	recordHeaderLen = 16
)

// ErrInvalidFormat is returned when the capture file's global header is
// malformed or its magic number is unrecognized. It is the only error this
// package surfaces to callers -- per the pipeline's error taxonomy, this is
// the fatal case; every other malformed-data condition below ends iteration
// cleanly instead.
var ErrInvalidFormat = errors.New("capture: invalid format")

// Frame is one link-layer frame read from a capture file.
type Frame struct {
	Timestamp      time.Time
	CapturedLength uint32
	OriginalLength uint32
	Data           []byte
	LinkType       uint32
	PacketID       uint64
}

// Reader decodes a single capture file session. It is forward-only and
// non-restartable: once Next has returned false, create a new Reader to
// read the file again.
type Reader struct {
	file     afero.File
	order    binary.ByteOrder
	linkType uint32
	packetID uint64
}

// Open opens path under afs, validates it is a usable file, and parses the
// 24-byte global header. The returned Reader owns the file handle; callers
// must call Close when done (Next does not close it implicitly, since a
// caller may stop iterating early).
func Open(afs afero.Fs, path string) (*Reader, error) {
	if err := util.ValidateFile(afs, path); err != nil {
		return nil, fmt.Errorf("capture: %w", err)
	}

	f, err := afs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capture: unable to open %q: %w", path, err)
	}

	r, err := newReader(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

func newReader(f afero.File) (*Reader, error) {
	header := make([]byte, globalHeaderLen)
	n, err := io.ReadFull(f, header)
	if err != nil || n < globalHeaderLen {
		return nil, fmt.Errorf("%w: global header too short", ErrInvalidFormat)
	}

	// Reading the raw 4 magic bytes as big-endian tells us which byte order
	// the rest of the header (and every record) was written in: if it reads
	// back as the big-endian magic, the file is big-endian; if it reads back
	// as the little-endian magic's big-endian misinterpretation, the file is
	// little-endian.
	var order binary.ByteOrder
	switch magic := binary.BigEndian.Uint32(header[0:4]); magic {
	case magicBigEndian:
		order = binary.BigEndian
	case magicLittleEndian:
		order = binary.LittleEndian
	default:
		return nil, fmt.Errorf("%w: unrecognized magic number 0x%08X", ErrInvalidFormat, magic)
	}

	linkType := order.Uint32(header[20:24])

	return &Reader{file: f, order: order, linkType: linkType}, nil
}

// Close releases the underlying file handle. Safe to call more than once.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Next reads and returns the next frame in file order, bufio.Scanner-style:
// callers loop `for { frame, ok := r.Next(); if !ok { break } }`. ok is false
// once the file is exhausted or the next record is truncated -- both end
// iteration cleanly, matching the "lazy, forward-only, finite,
// non-restartable" contract and the TruncatedRecord taxonomy entry (no
// error is surfaced for a short trailing record).
func (r *Reader) Next() (Frame, bool) {
	header := make([]byte, recordHeaderLen)
	n, err := io.ReadFull(r.file, header)
	if err != nil || n < recordHeaderLen {
		return Frame{}, false
	}

	tsSec := r.order.Uint32(header[0:4])
	tsUsec := r.order.Uint32(header[4:8])
	caplen := r.order.Uint32(header[8:12])
	wirelen := r.order.Uint32(header[12:16])

	data := make([]byte, caplen)
	n, err = io.ReadFull(r.file, data)
	if err != nil || uint32(n) < caplen {
		return Frame{}, false
	}

	ts := time.Unix(int64(tsSec), int64(tsUsec)*1000)
	packetID := r.packetID
	r.packetID++

	return Frame{
		Timestamp:      ts,
		CapturedLength: caplen,
		OriginalLength: wirelen,
		Data:           data,
		LinkType:       r.linkType,
		PacketID:       packetID,
	}, true
}
