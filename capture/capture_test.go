package capture

import (
	"encoding/binary"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// buildGlobalHeader returns a 24-byte classic-pcap global header using the
// given byte order and link type.
func buildGlobalHeader(order binary.ByteOrder, linkType uint32) []byte {
	h := make([]byte, globalHeaderLen)
	// pcap writers store the magic 0xA1B2C3D4 in their own byte order, so a
	// little-endian file starts with the bytes D4 C3 B2 A1.
	order.PutUint32(h[0:4], magicBigEndian)
	order.PutUint16(h[4:6], 2)  // version major
	order.PutUint16(h[6:8], 4)  // version minor
	// h[8:12] thiszone, h[12:16] sigfigs, h[16:20] snaplen left zero
	order.PutUint32(h[20:24], linkType)
	return h
}

// buildRecord returns one packet record (header + data) encoded in order.
func buildRecord(order binary.ByteOrder, tsSec, tsUsec uint32, data []byte) []byte {
	h := make([]byte, recordHeaderLen)
	order.PutUint32(h[0:4], tsSec)
	order.PutUint32(h[4:8], tsUsec)
	order.PutUint32(h[8:12], uint32(len(data)))
	order.PutUint32(h[12:16], uint32(len(data)))
	return append(h, data...)
}

func writeCapture(t *testing.T, afs afero.Fs, path string, contents []byte) {
	t.Helper()
	require.NoError(t, afero.WriteFile(afs, path, contents, 0o644))
}

func TestOpenInvalidFormat(t *testing.T) {
	afs := afero.NewMemMapFs()

	tests := []struct {
		name     string
		contents []byte
	}{
		{name: "too short", contents: []byte{0x01, 0x02, 0x03}},
		{name: "bad magic", contents: append([]byte{0xDE, 0xAD, 0xBE, 0xEF}, make([]byte, 20)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeCapture(t, afs, "/bad.pcap", tt.contents)
			_, err := Open(afs, "/bad.pcap")
			require.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestReaderNext(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
		order := order
		t.Run(orderName(order), func(t *testing.T) {
			afs := afero.NewMemMapFs()

			var contents []byte
			contents = append(contents, buildGlobalHeader(order, 1)...)
			contents = append(contents, buildRecord(order, 1700000000, 500000, []byte("frame-one"))...)
			contents = append(contents, buildRecord(order, 1700000001, 0, []byte("frame-two"))...)

			writeCapture(t, afs, "/capture.pcap", contents)

			r, err := Open(afs, "/capture.pcap")
			require.NoError(t, err)
			defer r.Close()

			frame1, ok := r.Next()
			require.True(t, ok)
			require.Equal(t, uint64(0), frame1.PacketID)
			require.Equal(t, []byte("frame-one"), frame1.Data)
			require.Equal(t, uint32(1), frame1.LinkType)

			frame2, ok := r.Next()
			require.True(t, ok)
			require.Equal(t, uint64(1), frame2.PacketID)
			require.Equal(t, []byte("frame-two"), frame2.Data)

			_, ok = r.Next()
			require.False(t, ok, "iteration must end cleanly at EOF")
		})
	}
}

func TestReaderTruncatedRecordEndsCleanly(t *testing.T) {
	afs := afero.NewMemMapFs()

	var contents []byte
	contents = append(contents, buildGlobalHeader(binary.BigEndian, 1)...)
	contents = append(contents, buildRecord(binary.BigEndian, 1700000000, 0, []byte("complete"))...)
	// a record header claiming more data than actually follows
	truncated := buildRecord(binary.BigEndian, 1700000001, 0, []byte("complete-again"))
	contents = append(contents, truncated[:len(truncated)-5]...)

	writeCapture(t, afs, "/truncated.pcap", contents)

	r, err := Open(afs, "/truncated.pcap")
	require.NoError(t, err)
	defer r.Close()

	_, ok := r.Next()
	require.True(t, ok)

	_, ok = r.Next()
	require.False(t, ok, "a truncated trailing record must end iteration without error")
}

func TestEmptyCaptureFileYieldsNoFrames(t *testing.T) {
	afs := afero.NewMemMapFs()
	writeCapture(t, afs, "/empty.pcap", buildGlobalHeader(binary.BigEndian, 1))

	r, err := Open(afs, "/empty.pcap")
	require.NoError(t, err)
	defer r.Close()

	_, ok := r.Next()
	require.False(t, ok)
}

func orderName(order binary.ByteOrder) string {
	if order == binary.BigEndian {
		return "big-endian"
	}
	return "little-endian"
}
