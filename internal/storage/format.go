// Package storage persists indices and classifier ranges as .dro files: a
// fixed header, a zstd-compressed CBOR payload and a checksummed footer.
package storage

import (
	"encoding/binary"
	"hash/crc32"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

// MagicBytes spells "DROX" when written little-endian.
const (
	MagicBytes    uint32 = 0x584F5244
	FormatVersion uint32 = 1
	HeaderSize    int    = 64
	FooterSize    int    = 32
)

// Kind tells index files from range files.
type Kind uint32

const (
	KindIndex  Kind = 1
	KindRanges Kind = 2
)

const (
	indexExt  = ".dro"
	rangesExt = ".ranges.dro"
)

// Header is the 64-byte header written at the start of every file.
type Header struct {
	Magic         uint32
	Version       uint32
	Kind          Kind
	DocCount      uint32
	FeatureCount  uint32
	CategoryCount uint32
	CreatedAt     int64
	PayloadOffset int64
	PayloadSize   int64
	RawSize       int64
}

func (h Header) encode() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], uint32(h.Kind))
	binary.LittleEndian.PutUint32(b[12:16], h.DocCount)
	binary.LittleEndian.PutUint32(b[16:20], h.FeatureCount)
	binary.LittleEndian.PutUint32(b[20:24], h.CategoryCount)
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.CreatedAt))
	binary.LittleEndian.PutUint64(b[32:40], uint64(h.PayloadOffset))
	binary.LittleEndian.PutUint64(b[40:48], uint64(h.PayloadSize))
	binary.LittleEndian.PutUint64(b[48:56], uint64(h.RawSize))
	return b
}

func decodeHeader(b []byte) Header {
	return Header{
		Magic:         binary.LittleEndian.Uint32(b[0:4]),
		Version:       binary.LittleEndian.Uint32(b[4:8]),
		Kind:          Kind(binary.LittleEndian.Uint32(b[8:12])),
		DocCount:      binary.LittleEndian.Uint32(b[12:16]),
		FeatureCount:  binary.LittleEndian.Uint32(b[16:20]),
		CategoryCount: binary.LittleEndian.Uint32(b[20:24]),
		CreatedAt:     int64(binary.LittleEndian.Uint64(b[24:32])),
		PayloadOffset: int64(binary.LittleEndian.Uint64(b[32:40])),
		PayloadSize:   int64(binary.LittleEndian.Uint64(b[40:48])),
		RawSize:       int64(binary.LittleEndian.Uint64(b[48:56])),
	}
}

// footer repeats the payload geometry after the payload so truncation is
// detected even when the header survives.
func encodeFooter(h Header, checksum uint32) []byte {
	b := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(b[0:4], checksum)
	binary.LittleEndian.PutUint32(b[4:8], uint32(h.Kind))
	binary.LittleEndian.PutUint64(b[8:16], uint64(h.PayloadOffset))
	binary.LittleEndian.PutUint64(b[16:24], uint64(h.PayloadSize))
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.RawSize))
	return b
}

func newHeader(kind Kind, docs, features, categories int) Header {
	return Header{
		Magic:         MagicBytes,
		Version:       FormatVersion,
		Kind:          kind,
		DocCount:      uint32(docs),
		FeatureCount:  uint32(features),
		CategoryCount: uint32(categories),
		CreatedAt:     time.Now().Unix(),
		PayloadOffset: int64(HeaderSize),
	}
}

// parse validates the framing of a whole file and returns its header and
// compressed payload.
func parse(data []byte, want Kind) (Header, []byte, error) {
	if len(data) < HeaderSize+FooterSize {
		return Header{}, nil, apperrors.Dataf(apperrors.ErrInvalidInput, "file too short: %d bytes", len(data))
	}
	h := decodeHeader(data[:HeaderSize])
	if h.Magic != MagicBytes {
		return Header{}, nil, apperrors.Dataf(apperrors.ErrInvalidInput, "invalid magic bytes: %x", h.Magic)
	}
	if h.Version != FormatVersion {
		return Header{}, nil, apperrors.Dataf(apperrors.ErrInvalidInput, "unsupported format version %d", h.Version)
	}
	if h.Kind != want {
		return Header{}, nil, apperrors.Dataf(apperrors.ErrInvalidInput, "file holds kind %d, want %d", h.Kind, want)
	}
	if h.PayloadOffset != int64(HeaderSize) || h.PayloadSize < 0 ||
		h.PayloadOffset+h.PayloadSize+int64(FooterSize) != int64(len(data)) {
		return Header{}, nil, apperrors.Dataf(apperrors.ErrInvalidInput,
			"payload [%d,+%d) does not fit a %d byte file", h.PayloadOffset, h.PayloadSize, len(data))
	}
	payload := data[h.PayloadOffset : h.PayloadOffset+h.PayloadSize]
	footer := data[len(data)-FooterSize:]
	stored := binary.LittleEndian.Uint32(footer[0:4])
	if got := crc32.ChecksumIEEE(payload); got != stored {
		return Header{}, nil, apperrors.Dataf(apperrors.ErrInvalidInput, "payload checksum mismatch: stored %08x, computed %08x", stored, got)
	}
	if string(footer[4:]) != string(encodeFooter(h, stored)[4:]) {
		return Header{}, nil, apperrors.Dataf(apperrors.ErrInvalidInput, "footer disagrees with header")
	}
	return h, payload, nil
}
