package vectordb

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/mohdmuqsith/muq-bot-rag/internal/domain/entities"
)

// Binary layout: magic, format version, zstd-compressed gob snapshot.
var magic = []byte("MQKB")

const formatVersion byte = 1

type snapshot struct {
	Metric   string
	Embedder string
	Dim      int
	Chunks   []entities.Chunk
	Vectors  [][]float32
}

// MarshalBinary serializes the index.
func (f *FlatIndex) MarshalBinary() ([]byte, error) {
	var raw bytes.Buffer
	err := gob.NewEncoder(&raw).Encode(snapshot{
		Metric:   string(f.metric),
		Embedder: f.embedder,
		Dim:      f.dim,
		Chunks:   f.chunks,
		Vectors:  f.vectors,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding index: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("creating compressor: %w", err)
	}
	defer enc.Close()

	out := make([]byte, 0, len(magic)+1+raw.Len()/2)
	out = append(out, magic...)
	out = append(out, formatVersion)
	return enc.EncodeAll(raw.Bytes(), out), nil
}

// Unmarshal decodes data written by MarshalBinary. Any malformed input
// yields an error wrapping entities.ErrCorruptIndex.
func Unmarshal(data []byte) (*FlatIndex, error) {
	header := len(magic) + 1
	if len(data) < header || !bytes.Equal(data[:len(magic)], magic) {
		return nil, fmt.Errorf("%w: bad header", entities.ErrCorruptIndex)
	}
	if v := data[len(magic)]; v != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", entities.ErrCorruptIndex, v)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(data[header:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrCorruptIndex, err)
	}

	var snap snapshot
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrCorruptIndex, err)
	}

	metric, err := ParseMetric(snap.Metric)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrCorruptIndex, err)
	}
	idx, err := NewFlatIndex(metric, snap.Embedder, snap.Chunks, snap.Vectors)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrCorruptIndex, err)
	}
	if idx.dim != snap.Dim {
		return nil, fmt.Errorf("%w: dimension %d recorded as %d", entities.ErrCorruptIndex, idx.dim, snap.Dim)
	}
	return idx, nil
}
