package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// WriteAudioFile creates a file that passes for audio in tests: a minimal
// RIFF/WAVE header followed by zero samples up to the requested size. The
// content is not meant to survive real decoding, only probing and size
// checks. Sizes smaller than the header are rounded up to it.
func WriteAudioFile(t testing.TB, path string, size int64) {
	t.Helper()

	header := wavHeader(size)
	if size < int64(len(header)) {
		size = int64(len(header))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if _, err := f.Write(header); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := f.Truncate(size); err != nil {
		t.Fatalf("pad %s: %v", path, err)
	}
}

// wavHeader builds a 44-byte canonical PCM WAVE header for a file of the
// given total size (16-bit mono, 16 kHz).
func wavHeader(total int64) []byte {
	const headerLen = 44
	dataLen := total - headerLen
	if dataLen < 0 {
		dataLen = 0
	}

	buf := make([]byte, headerLen)
	copy(buf[0:], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], uint32(dataLen+36))
	copy(buf[8:], "WAVE")
	copy(buf[12:], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(buf[20:], 1)  // PCM format
	binary.LittleEndian.PutUint16(buf[22:], 1)  // mono
	binary.LittleEndian.PutUint32(buf[24:], 16000)
	binary.LittleEndian.PutUint32(buf[28:], 16000*2)
	binary.LittleEndian.PutUint16(buf[32:], 2)
	binary.LittleEndian.PutUint16(buf[34:], 16)
	copy(buf[36:], "data")
	binary.LittleEndian.PutUint32(buf[40:], uint32(dataLen))
	return buf
}
