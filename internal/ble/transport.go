package ble

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hendrawan/posprint/internal/retry"
)

// Transport pushes an arbitrary-length print job through a characteristic
// in MTU-sized chunks.
type Transport struct {
	ChunkSize       int           // bytes per write (default 512)
	InterChunkDelay time.Duration // pause between chunks (default 30ms)
	Retry           retry.Policy  // whole-buffer retry policy
}

// DefaultTransport returns the production transport settings. The
// inter-chunk delay keeps burst writes from overrunning the printer's
// internal buffer, which drops bytes faster than the head can move.
func DefaultTransport() *Transport {
	return &Transport{
		ChunkSize:       512,
		InterChunkDelay: 30 * time.Millisecond,
		Retry: retry.Policy{
			MaxRetries: 2,
			Backoff:    500 * time.Millisecond,
		},
	}
}

// Send writes data to char, chunked and paced. On any chunk failure the
// whole buffer is retried from the start after a backoff, up to the policy's
// MaxRetries; partial printer state after a half-sent buffer is not reliably
// resumable mid-stream, so a clean restart is safer than chunk-level
// resumption. The cost is an occasional duplicate partial print.
func (t *Transport) Send(ctx context.Context, char Characteristic, data []byte) error {
	if char == nil {
		return ErrNotConnected
	}
	if len(data) == 0 {
		return nil
	}

	err := t.Retry.Do(ctx, func() error {
		return t.sendOnce(ctx, char, data)
	})
	if err != nil {
		return fmt.Errorf("ble: send after %d attempts: %w", t.Retry.MaxRetries+1, err)
	}
	return nil
}

// sendOnce streams the buffer a single time.
func (t *Transport) sendOnce(ctx context.Context, char Characteristic, data []byte) error {
	chunks := chunkBytes(data, t.chunkSize())
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.writeChunk(char, chunk); err != nil {
			return fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if i < len(chunks)-1 && t.InterChunkDelay > 0 {
			time.Sleep(t.InterChunkDelay)
		}
	}
	return nil
}

// writeChunk prefers write-without-response for latency, falling back to the
// acknowledged write when the unacknowledged one fails or is unsupported.
func (t *Transport) writeChunk(char Characteristic, chunk []byte) error {
	props := char.Properties()
	if props.WriteWithoutResponse {
		err := char.WriteWithoutResponse(chunk)
		if err == nil {
			return nil
		}
		if !props.Write {
			return err
		}
		slog.Debug("[BLE] write-without-response failed, retrying acknowledged", "error", err)
	}
	return char.Write(chunk)
}

func (t *Transport) chunkSize() int {
	if t.ChunkSize <= 0 {
		return 512
	}
	return t.ChunkSize
}

// chunkBytes splits data into size-byte slices; the last chunk holds the
// remainder.
func chunkBytes(data []byte, size int) [][]byte {
	var chunks [][]byte
	for len(data) > size {
		chunks = append(chunks, data[:size])
		data = data[size:]
	}
	return append(chunks, data)
}
