package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/benjaminschreck/go-leaf/pkg/leaf"
)

// writeCompressed writes path.gz and path.zst next to path for servers that
// serve precompressed files
func writeCompressed(path string, data []byte, logger *leaf.Logger) error {
	gz, err := gzipBytes(data)
	if err != nil {
		return fmt.Errorf("gzip %s: %w", path, err)
	}
	zst, err := zstdBytes(data)
	if err != nil {
		return fmt.Errorf("zstd %s: %w", path, err)
	}

	for ext, content := range map[string][]byte{".gz": gz, ".zst": zst} {
		if err := os.WriteFile(path+ext, content, 0o644); err != nil {
			return err
		}
		logger.WithFields(leaf.Fields{"path": path + ext, "bytes": len(content)}).Debug("Wrote compressed output")
	}
	return nil
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func zstdBytes(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, err
	}
	defer encoder.Close()
	return encoder.EncodeAll(data, nil), nil
}
