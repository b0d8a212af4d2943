package httpdb

import "github.com/arangoml/phenolrs-go/pkg/compression"

// decodeBody decompresses a response body according to its
// Content-Encoding header, falling back to magic-byte auto-detection for
// servers that compress without advertising it.
func decodeBody(contentEncoding string, raw []byte) ([]byte, error) {
	switch contentEncoding {
	case "gzip":
		c := compression.NewGzipCompressor(compression.LevelDefault)
		return c.Decompress(raw)
	case "zstd":
		c, err := compression.NewZstdCompressor(compression.LevelDefault)
		if err != nil {
			return nil, err
		}
		defer c.Close()
		return c.Decompress(raw)
	case "":
		if len(raw) >= 2 && (raw[0] == 0x1f && raw[1] == 0x8b) {
			return compression.AutoDecompress(raw)
		}
		if len(raw) >= 4 && raw[0] == 0x28 && raw[1] == 0xb5 && raw[2] == 0x2f && raw[3] == 0xfd {
			return compression.AutoDecompress(raw)
		}
		return raw, nil
	default:
		return raw, nil
	}
}
