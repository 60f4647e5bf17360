package codec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	compressorOnce   sync.Once
	compressor       *zstd.Encoder
	decompressorOnce sync.Once
	decompressor     *zstd.Decoder
	compressInitErr  error
)

func initCompressors() {
	var err error
	compressor, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		compressInitErr = fmt.Errorf("codec: could not initialize compressor: %w", err)
		return
	}
	decompressor, err = zstd.NewReader(nil)
	if err != nil {
		compressInitErr = fmt.Errorf("codec: could not initialize decompressor: %w", err)
	}
}

// Compress zstd-compresses data. It is only invoked when a Store
// implementation is configured with CompressEntities; small catalog
// records rarely benefit from compression, so it stays opt-in.
func Compress(data []byte) ([]byte, error) {
	compressorOnce.Do(initCompressors)
	if compressInitErr != nil {
		return nil, compressInitErr
	}
	return compressor.EncodeAll(data, nil), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	decompressorOnce.Do(initCompressors)
	if compressInitErr != nil {
		return nil, compressInitErr
	}
	return decompressor.DecodeAll(data, nil)
}
