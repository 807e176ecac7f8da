// Shared-memory audio transport backing. Go's standard library has no
// native named-shared-memory primitive; this backs the region with a
// memory-mapped temp file keyed by the same os_id exchanged in ShmemConfig,
// giving the same cross-process addressable-region semantics spec 6
// requires without fabricating a dependency (see SPEC_FULL.md section 6 and
// DESIGN.md).
package ipc

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"syscall"
)

const headerSize = 20 // 5 x uint32

// Shmem is a memory-mapped region with a ShmemHeader at offset 0 followed
// by f32 audio payload space, shared between the engine and a plugin host
// process by path.
type Shmem struct {
	file *os.File
	data []byte
}

func shmemPath(osID string) string {
	return filepath.Join(os.TempDir(), "omniengine-shmem-"+osID)
}

// CreateShmem creates (or truncates) the backing file for osID sized size
// bytes and writes a zeroed header with Magic set.
func CreateShmem(osID string, size uint32) (*Shmem, error) {
	path := shmemPath(osID)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return nil, fmt.Errorf("ipc: create shmem: %w", err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("ipc: truncate shmem: %w", err)
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ipc: mmap shmem: %w", err)
	}
	s := &Shmem{file: f, data: data}
	hdr := ShmemHeader{
		Magic:        OmniMagic,
		Status:       StatusIdle,
		InputOffset:  headerSize,
		OutputOffset: headerSize + (size-headerSize)/2,
		ParamOffset:  size, // no separate param region in the default layout
	}
	s.WriteHeader(hdr)
	return s, nil
}

// OpenShmem opens an existing region previously created with CreateShmem.
func OpenShmem(osID string, size uint32) (*Shmem, error) {
	path := shmemPath(osID)
	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("ipc: open shmem: %w", err)
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("ipc: mmap shmem: %w", err)
	}
	return &Shmem{file: f, data: data}, nil
}

// Close unmaps and closes the backing file. The file itself is left on disk
// for the lifetime of the engine process (it is recreated on Initialize);
// callers that want to remove it should os.Remove(shmemPath(osID)).
func (s *Shmem) Close() error {
	if s.data != nil {
		if err := syscall.Munmap(s.data); err != nil {
			return err
		}
		s.data = nil
	}
	return s.file.Close()
}

// ReadHeader decodes the region's fixed header.
func (s *Shmem) ReadHeader() ShmemHeader {
	return ShmemHeader{
		Magic:        binary.LittleEndian.Uint32(s.data[0:4]),
		Status:       binary.LittleEndian.Uint32(s.data[4:8]),
		InputOffset:  binary.LittleEndian.Uint32(s.data[8:12]),
		OutputOffset: binary.LittleEndian.Uint32(s.data[12:16]),
		ParamOffset:  binary.LittleEndian.Uint32(s.data[16:20]),
	}
}

// WriteHeader encodes hdr into the region's fixed header.
func (s *Shmem) WriteHeader(hdr ShmemHeader) {
	binary.LittleEndian.PutUint32(s.data[0:4], hdr.Magic)
	binary.LittleEndian.PutUint32(s.data[4:8], hdr.Status)
	binary.LittleEndian.PutUint32(s.data[8:12], hdr.InputOffset)
	binary.LittleEndian.PutUint32(s.data[12:16], hdr.OutputOffset)
	binary.LittleEndian.PutUint32(s.data[16:20], hdr.ParamOffset)
}

// WriteFloats writes samples as little-endian f32 starting at byteOffset.
func (s *Shmem) WriteFloats(byteOffset uint32, samples []float32) {
	off := byteOffset
	for _, v := range samples {
		binary.LittleEndian.PutUint32(s.data[off:off+4], math.Float32bits(v))
		off += 4
	}
}

// ReadFloats reads count f32 samples starting at byteOffset.
func (s *Shmem) ReadFloats(byteOffset uint32, count int) []float32 {
	out := make([]float32, count)
	off := byteOffset
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(s.data[off : off+4]))
		off += 4
	}
	return out
}
