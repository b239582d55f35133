package storage

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

// Store reads and writes .dro files inside one directory. It is safe for
// concurrent use; each write goes through its own temp file.
type Store struct {
	dataDir string
	enc     cbor.EncMode
	zenc    *zstd.Encoder
	zdec    *zstd.Decoder
	logger  *slog.Logger
}

// rangesFile is the payload of a ranges file, keyed by category name.
type rangesFile struct {
	Ranges map[string]learner.ClassifierRange `cbor:"ranges"`
}

// Open creates a Store rooted at dataDir. The directory is created on the
// first write.
func Open(dataDir string) (*Store, error) {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("creating cbor encoder: %w", err)
	}
	zenc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	zdec, err := zstd.NewReader(nil)
	if err != nil {
		zenc.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &Store{
		dataDir: dataDir,
		enc:     enc,
		zenc:    zenc,
		zdec:    zdec,
		logger:  slog.Default().With("component", "storage"),
	}, nil
}

// Close releases the compressor state.
func (s *Store) Close() error {
	s.zdec.Close()
	return s.zenc.Close()
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string { return s.dataDir }

// IndexPath returns where the index called name lives.
func (s *Store) IndexPath(name string) string {
	return filepath.Join(s.dataDir, name+indexExt)
}

// RangesPath returns where the ranges called name live.
func (s *Store) RangesPath(name string) string {
	return filepath.Join(s.dataDir, name+rangesExt)
}

// WriteIndex atomically writes ix as <dir>/<name>.dro.
func (s *Store) WriteIndex(name string, ix *index.Index) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	h := newHeader(KindIndex, ix.DocumentCount(), ix.FeatureCount(), ix.CategoryCount())
	path := s.IndexPath(name)
	if err := s.write(path, h, ix.Snapshot()); err != nil {
		return "", err
	}
	s.logger.Info("index written",
		"path", path,
		"documents", ix.DocumentCount(),
		"features", ix.FeatureCount(),
		"categories", ix.CategoryCount(),
	)
	return path, nil
}

// ReadIndex loads the index written under name.
func (s *Store) ReadIndex(name string) (*index.Index, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	path := s.IndexPath(name)
	var snap index.Snapshot
	h, err := s.read(path, KindIndex, &snap)
	if err != nil {
		return nil, err
	}
	ix, err := index.FromSnapshot(&snap)
	if err != nil {
		return nil, fmt.Errorf("restoring index %s: %w", path, err)
	}
	if uint32(ix.DocumentCount()) != h.DocCount || uint32(ix.FeatureCount()) != h.FeatureCount ||
		uint32(ix.CategoryCount()) != h.CategoryCount {
		return nil, apperrors.Dataf(apperrors.ErrInvalidInput,
			"%s: header announces %d/%d/%d documents/features/categories, payload has %d/%d/%d",
			path, h.DocCount, h.FeatureCount, h.CategoryCount,
			ix.DocumentCount(), ix.FeatureCount(), ix.CategoryCount())
	}
	s.logger.Debug("index loaded", "path", path, "documents", ix.DocumentCount())
	return ix, nil
}

// WriteRanges atomically writes the per-category ranges under name.
func (s *Store) WriteRanges(name string, ranges map[string]learner.ClassifierRange) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	h := newHeader(KindRanges, 0, 0, len(ranges))
	path := s.RangesPath(name)
	if err := s.write(path, h, rangesFile{Ranges: ranges}); err != nil {
		return "", err
	}
	s.logger.Info("ranges written", "path", path, "categories", len(ranges))
	return path, nil
}

// ReadRanges loads the ranges written under name.
func (s *Store) ReadRanges(name string) (map[string]learner.ClassifierRange, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	var rf rangesFile
	if _, err := s.read(s.RangesPath(name), KindRanges, &rf); err != nil {
		return nil, err
	}
	if rf.Ranges == nil {
		rf.Ranges = map[string]learner.ClassifierRange{}
	}
	return rf.Ranges, nil
}

func (s *Store) write(path string, h Header, v any) error {
	raw, err := s.enc.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}
	payload := s.zenc.EncodeAll(raw, nil)
	h.RawSize = int64(len(raw))
	h.PayloadSize = int64(len(payload))

	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer f.Close()
	for _, chunk := range [][]byte{h.encode(), payload, encodeFooter(h, crc32.ChecksumIEEE(payload))} {
		if _, err := f.Write(chunk); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("writing %s: %w", tmpPath, err)
		}
	}
	if err := f.Sync(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("syncing %s: %w", tmpPath, err)
	}
	f.Close()
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming %s: %w", tmpPath, err)
	}
	return nil
}

func (s *Store) read(path string, kind Kind, v any) (Header, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Header{}, apperrors.Dataf(apperrors.ErrNotFound, "%s", path)
	}
	if err != nil {
		return Header{}, fmt.Errorf("reading %s: %w", path, err)
	}
	h, payload, err := parse(data, kind)
	if err != nil {
		return Header{}, fmt.Errorf("%s: %w", path, err)
	}
	raw, err := s.zdec.DecodeAll(payload, make([]byte, 0, h.RawSize))
	if err != nil {
		return Header{}, apperrors.Dataf(apperrors.ErrInvalidInput, "%s: decompressing payload: %v", path, err)
	}
	if int64(len(raw)) != h.RawSize {
		return Header{}, apperrors.Dataf(apperrors.ErrInvalidInput, "%s: payload is %d bytes, header says %d", path, len(raw), h.RawSize)
	}
	if err := cbor.Unmarshal(raw, v); err != nil {
		return Header{}, apperrors.Dataf(apperrors.ErrInvalidInput, "%s: decoding payload: %v", path, err)
	}
	return h, nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitConfiguration, "invalid storage name %q", name)
	}
	return nil
}

// WriteIndex writes ix as <dir>/<name>.dro with a throwaway Store.
func WriteIndex(dir, name string, ix *index.Index) (string, error) {
	s, err := Open(dir)
	if err != nil {
		return "", err
	}
	defer s.Close()
	return s.WriteIndex(name, ix)
}

// ReadIndex reads <dir>/<name>.dro with a throwaway Store.
func ReadIndex(dir, name string) (*index.Index, error) {
	s, err := Open(dir)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.ReadIndex(name)
}
