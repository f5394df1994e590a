package vectorindex

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"fairsearch/pkg/types"
)

// Persistence artifacts. The three files are written and read together;
// a partial set is treated as corruption.
const (
	vectorsFile   = "vectors.bin"
	metadataFile  = "metadata.json"
	filepathsFile = "filepaths.json"

	vectorsMagic   = "FVIX"
	vectorsVersion = 1
)

// Save writes the index to dir as three co-located artifacts. Each file
// is written to a temp name and renamed into place so a crash never
// leaves a half-written artifact under the final name.
func (idx *Index) Save(dir string) error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	if err := writeAtomic(filepath.Join(dir, vectorsFile), idx.encodeVectors()); err != nil {
		return fmt.Errorf("write vectors: %w", err)
	}

	meta, err := json.Marshal(idx.records)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, metadataFile), meta); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	paths, err := json.Marshal(idx.filepaths)
	if err != nil {
		return fmt.Errorf("marshal filepaths: %w", err)
	}
	if err := writeAtomic(filepath.Join(dir, filepathsFile), paths); err != nil {
		return fmt.Errorf("write filepaths: %w", err)
	}

	return nil
}

// Load reads an index from dir. Returns types.ErrNoIndex when no
// artifacts exist, types.ErrIndexInconsistent when the artifacts
// disagree with each other, and types.ErrDimensionMismatch when the
// stored dimension differs from expectedDim (pass 0 to accept any).
func Load(dir string, expectedDim int) (*Index, error) {
	vPath := filepath.Join(dir, vectorsFile)
	mPath := filepath.Join(dir, metadataFile)
	fPath := filepath.Join(dir, filepathsFile)

	vExists := fileExists(vPath)
	mExists := fileExists(mPath)
	fExists := fileExists(fPath)

	if !vExists && !mExists && !fExists {
		return nil, fmt.Errorf("%w: no index at %s", types.ErrNoIndex, dir)
	}
	if !vExists || !mExists || !fExists {
		return nil, fmt.Errorf("%w: partial index artifacts at %s", types.ErrIndexInconsistent, dir)
	}

	dim, vectors, err := decodeVectors(vPath)
	if err != nil {
		return nil, err
	}
	if expectedDim > 0 && dim != expectedDim {
		return nil, fmt.Errorf("%w: index has %d dimensions, embedder produces %d",
			types.ErrDimensionMismatch, dim, expectedDim)
	}

	var records []*types.Record
	if err := readJSON(mPath, &records); err != nil {
		return nil, err
	}
	var paths map[string][]int
	if err := readJSON(fPath, &paths); err != nil {
		return nil, err
	}

	if len(records) != len(vectors) {
		return nil, fmt.Errorf("%w: %d vectors but %d metadata records",
			types.ErrIndexInconsistent, len(vectors), len(records))
	}

	total := 0
	for path, ordinals := range paths {
		total += len(ordinals)
		for _, o := range ordinals {
			if o < 0 || o >= len(records) {
				return nil, fmt.Errorf("%w: filepath map entry %s references ordinal %d of %d",
					types.ErrIndexInconsistent, path, o, len(records))
			}
		}
	}
	if total != len(records) {
		return nil, fmt.Errorf("%w: filepath map covers %d ordinals but index holds %d",
			types.ErrIndexInconsistent, total, len(records))
	}

	return &Index{
		dim:       dim,
		vectors:   vectors,
		records:   records,
		filepaths: paths,
	}, nil
}

// encodeVectors renders the binary artifact: magic, version, dimension,
// count, then little-endian float32 rows.
func (idx *Index) encodeVectors() []byte {
	header := 4 + 1 + 4 + 4
	buf := make([]byte, header+len(idx.vectors)*idx.dim*4)

	copy(buf, vectorsMagic)
	buf[4] = vectorsVersion
	binary.LittleEndian.PutUint32(buf[5:], uint32(idx.dim))
	binary.LittleEndian.PutUint32(buf[9:], uint32(len(idx.vectors)))

	off := header
	for _, v := range idx.vectors {
		for _, f := range v {
			binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
			off += 4
		}
	}
	return buf
}

func decodeVectors(path string) (int, [][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, fmt.Errorf("read vectors: %w", err)
	}

	header := 4 + 1 + 4 + 4
	if len(data) < header {
		return 0, nil, fmt.Errorf("%w: vectors file truncated", types.ErrIndexInconsistent)
	}
	if string(data[:4]) != vectorsMagic {
		return 0, nil, fmt.Errorf("%w: bad vectors magic %q", types.ErrIndexInconsistent, data[:4])
	}
	if data[4] != vectorsVersion {
		return 0, nil, fmt.Errorf("%w: unsupported vectors version %d", types.ErrIndexInconsistent, data[4])
	}

	dim := int(binary.LittleEndian.Uint32(data[5:]))
	count := int(binary.LittleEndian.Uint32(data[9:]))
	if dim <= 0 {
		return 0, nil, fmt.Errorf("%w: invalid dimension %d", types.ErrIndexInconsistent, dim)
	}
	if len(data) != header+count*dim*4 {
		return 0, nil, fmt.Errorf("%w: vectors file has %d bytes, header implies %d",
			types.ErrIndexInconsistent, len(data), header+count*dim*4)
	}

	vectors := make([][]float32, count)
	off := header
	for i := range vectors {
		row := make([]float32, dim)
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		vectors[i] = row
	}
	return dim, vectors, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: parse %s: %v", types.ErrIndexInconsistent, filepath.Base(path), err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
