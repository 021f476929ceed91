package compress

import (
	"bytes"
	"compress/gzip"
	"io"
	"sync"
)

// gzip.NewReader can fail on its input so the reader pool has no New func
var (
	gzipWriterPool = sync.Pool{
		New: func() any {
			return gzip.NewWriter(nil)
		},
	}
	gzipReaderPool sync.Pool
)

// GzipCompressor implements Compressor with the default gzip level
type GzipCompressor struct{}

// Compress gzips data
func (c *GzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzipWriterPool.Get().(*gzip.Writer)
	defer gzipWriterPool.Put(w)
	w.Reset(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress gunzips data
func (c *GzipCompressor) Decompress(data []byte) ([]byte, error) {
	var err error
	src := bytes.NewReader(data)
	r, found := gzipReaderPool.Get().(*gzip.Reader)
	if found {
		err = r.Reset(src)
	} else {
		r, err = gzip.NewReader(src)
	}
	if err != nil {
		return nil, err
	}
	defer gzipReaderPool.Put(r)

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return out, r.Close()
}
