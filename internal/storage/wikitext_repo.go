package storage

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/danielledeleo/wikicore/wiki"
	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"
)

// Wikitext repository methods for queries. Bodies are addressed by the
// BLAKE3 hash of the uncompressed text, so dedup works regardless of how
// a body is stored.

// Compression identifies how a Wikitext body is stored. Values are
// persisted; do not renumber.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
)

// compressThreshold is the smallest text worth compressing.
const compressThreshold = 256

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// WikitextRef returns the content address of text.
func WikitextRef(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func encodeWikitext(text string) (Compression, []byte) {
	if len(text) < compressThreshold {
		return CompressionNone, []byte(text)
	}
	return CompressionZstd, zstdEncoder.EncodeAll([]byte(text), make([]byte, 0, len(text)/2))
}

func decodeWikitext(compression Compression, body []byte, size int) (string, error) {
	var data []byte
	switch compression {
	case CompressionNone:
		data = body
	case CompressionZstd:
		var err error
		data, err = zstdDecoder.DecodeAll(body, make([]byte, 0, size))
		if err != nil {
			return "", fmt.Errorf("zstd decompress: %w", err)
		}
	default:
		return "", fmt.Errorf("unknown wikitext compression %q", compression)
	}

	if len(data) != size {
		return "", fmt.Errorf("wikitext size %d does not match recorded %d", len(data), size)
	}
	return string(data), nil
}

func (q *queries) PutWikitext(ctx context.Context, text string) (string, error) {
	ref := WikitextRef(text)
	compression, body := encodeWikitext(text)

	_, err := q.ext.ExecContext(ctx,
		`INSERT INTO Wikitext (ref, compression, size, body) VALUES (?, ?, ?, ?)
			ON CONFLICT(ref) DO NOTHING`,
		ref, string(compression), len(text), body)
	if err != nil {
		return "", check("put wikitext", err)
	}
	return ref, nil
}

func (q *queries) SelectWikitext(ctx context.Context, ref string) (string, error) {
	row := struct {
		Compression string `db:"compression"`
		Size        int    `db:"size"`
		Body        []byte `db:"body"`
	}{}
	err := sqlx.GetContext(ctx, q.ext, &row, `SELECT compression, size, body FROM Wikitext WHERE ref = ?`, ref)
	if err != nil {
		return "", check("select wikitext", err)
	}

	text, err := decodeWikitext(Compression(row.Compression), row.Body, row.Size)
	if err != nil {
		return "", fmt.Errorf("wikitext %s: %w: %w", ref, wiki.ErrStorageUnavailable, err)
	}
	return text, nil
}
