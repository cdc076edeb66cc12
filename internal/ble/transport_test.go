package ble

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/hendrawan/posprint/internal/retry"
)

func testTransport(maxRetries int) *Transport {
	return &Transport{
		ChunkSize: 512,
		Retry:     retry.Policy{MaxRetries: maxRetries},
	}
}

func TestSendChunksLargeBuffer(t *testing.T) {
	char := writableChar(uuid16("2af1"))
	data := bytes.Repeat([]byte{0x55}, 1300)

	if err := testTransport(0).Send(context.Background(), char, data); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	writes := char.allWrites()
	if len(writes) != 3 {
		t.Fatalf("1300 bytes should produce 3 chunks, got %d", len(writes))
	}
	for i, want := range []int{512, 512, 276} {
		if len(writes[i]) != want {
			t.Errorf("chunk %d length = %d, want %d", i, len(writes[i]), want)
		}
	}
	var joined []byte
	for _, w := range writes {
		joined = append(joined, w...)
	}
	if !bytes.Equal(joined, data) {
		t.Error("reassembled chunks differ from original buffer")
	}
}

func TestSendPrefersWriteWithoutResponse(t *testing.T) {
	char := &mockCharacteristic{
		uuid:  uuid16("2af1"),
		props: Properties{Write: true, WriteWithoutResponse: true},
	}

	if err := testTransport(0).Send(context.Background(), char, []byte("job")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(char.wwrWrites) != 1 || len(char.writes) != 0 {
		t.Errorf("writes = %d wwr / %d acknowledged, want 1 / 0",
			len(char.wwrWrites), len(char.writes))
	}
}

func TestSendUsesAcknowledgedWhenPreferredUnsupported(t *testing.T) {
	char := &mockCharacteristic{
		uuid:  uuid16("2af1"),
		props: Properties{Write: true},
	}

	if err := testTransport(0).Send(context.Background(), char, []byte("job")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(char.writes) != 1 {
		t.Errorf("acknowledged writes = %d, want 1", len(char.writes))
	}
}

func TestSendFallsBackPerChunk(t *testing.T) {
	// The unacknowledged write fails once; the same chunk must be retried
	// with the acknowledged write before any whole-buffer retry.
	char := &mockCharacteristic{
		uuid:    uuid16("2af1"),
		props:   Properties{Write: true, WriteWithoutResponse: true},
		failWWR: 1,
	}

	if err := testTransport(0).Send(context.Background(), char, []byte("job")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(char.writes) != 1 {
		t.Errorf("acknowledged fallback writes = %d, want 1", len(char.writes))
	}
	if len(char.wwrWrites) != 0 {
		t.Errorf("unacknowledged writes = %d, want 0 after failure", len(char.wwrWrites))
	}
}

func TestSendRetriesWholeBufferThenSucceeds(t *testing.T) {
	// Every write fails for the first maxRetries whole-buffer attempts and
	// succeeds on the final one: overall success.
	const maxRetries = 2
	char := &mockCharacteristic{
		uuid:    uuid16("2af1"),
		props:   Properties{WriteWithoutResponse: true},
		failWWR: maxRetries,
	}

	if err := testTransport(maxRetries).Send(context.Background(), char, []byte("job")); err != nil {
		t.Fatalf("Send() error = %v, want success on final attempt", err)
	}
	if len(char.wwrWrites) != 1 {
		t.Errorf("successful writes = %d, want 1", len(char.wwrWrites))
	}
}

func TestSendRaisesAfterRetriesExhausted(t *testing.T) {
	const maxRetries = 2
	char := &mockCharacteristic{
		uuid:    uuid16("2af1"),
		props:   Properties{WriteWithoutResponse: true},
		failWWR: 1000,
	}

	err := testTransport(maxRetries).Send(context.Background(), char, []byte("job"))
	if err == nil {
		t.Fatal("Send() should fail when every attempt fails")
	}

	// Exactly maxRetries+1 whole-buffer attempts, one write each.
	attempts := 1000 - char.failWWR
	if attempts != maxRetries+1 {
		t.Errorf("whole-buffer attempts = %d, want %d", attempts, maxRetries+1)
	}
}

func TestSendNilCharacteristic(t *testing.T) {
	err := testTransport(0).Send(context.Background(), nil, []byte("job"))
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send(nil char) error = %v, want ErrNotConnected", err)
	}
}

func TestSendEmptyBuffer(t *testing.T) {
	char := writableChar(uuid16("2af1"))
	if err := testTransport(0).Send(context.Background(), char, nil); err != nil {
		t.Fatalf("Send(empty) error = %v", err)
	}
	if char.totalWrites() != 0 {
		t.Errorf("empty buffer produced %d writes, want 0", char.totalWrites())
	}
}

func TestSendCancelledContext(t *testing.T) {
	char := writableChar(uuid16("2af1"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := testTransport(2).Send(ctx, char, []byte("job")); err == nil {
		t.Error("Send() with cancelled context should fail promptly")
	}
}

func TestChunkBytes(t *testing.T) {
	cases := []struct {
		size int
		data int
		want []int
	}{
		{4, 0, []int{0}},
		{4, 4, []int{4}},
		{4, 5, []int{4, 1}},
		{4, 12, []int{4, 4, 4}},
	}
	for _, tc := range cases {
		chunks := chunkBytes(make([]byte, tc.data), tc.size)
		if len(chunks) != len(tc.want) {
			t.Errorf("chunkBytes(%d, %d) produced %d chunks, want %d",
				tc.data, tc.size, len(chunks), len(tc.want))
			continue
		}
		for i, w := range tc.want {
			if len(chunks[i]) != w {
				t.Errorf("chunkBytes(%d, %d) chunk %d length = %d, want %d",
					tc.data, tc.size, i, len(chunks[i]), w)
			}
		}
	}
}
