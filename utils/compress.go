package utils

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// Compress gzips data and returns the compressed bytes.
func Compress(data []byte) ([]byte, error) {
	buf := new(bytes.Buffer)
	gz := gzip.NewWriter(buf)

	if _, err := gz.Write(data); err != nil {
		return nil, fmt.Errorf("compression failed: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("compression failed: %w", err)
	}

	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	defer gz.Close()

	out, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	return out, nil
}
