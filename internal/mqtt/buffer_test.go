package mqtt

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10, zerolog.Nop())
	if got := rb.drainAll(); got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10, zerolog.Nop())
	for i := 0; i < 5; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}

	got := rb.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	if got2 := rb.drainAll(); got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestRingBufferOverflow(t *testing.T) {
	size := 5
	rb := newRingBuffer(size, zerolog.Nop())

	// Push size+3 items (0..7), buffer should keep the most recent 5 (3..7)
	for i := 0; i < size+3; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	if rb.dropped != 3 {
		t.Errorf("dropped: got %d, want 3", rb.dropped)
	}

	got := rb.drainAll()
	if len(got) != size {
		t.Fatalf("expected %d items, got %d", size, len(got))
	}
	for i := 0; i < size; i++ {
		want := byte(i + 3)
		if got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}
}

func TestRingBufferMultipleCycles(t *testing.T) {
	rb := newRingBuffer(5, zerolog.Nop())

	for i := 0; i < 3; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	if got := rb.drainAll(); len(got) != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", len(got))
	}

	for i := 10; i < 14; i++ {
		rb.push(bufferedMsg{topic: "t", payload: []byte{byte(i)}})
	}
	got := rb.drainAll()
	if len(got) != 4 {
		t.Fatalf("cycle 2: expected 4 items, got %d", len(got))
	}
	for i, msg := range got {
		if want := byte(10 + i); msg.payload[0] != want {
			t.Errorf("cycle 2 item %d: expected %d, got %d", i, want, msg.payload[0])
		}
	}
}

func TestRingBufferLen(t *testing.T) {
	rb := newRingBuffer(10, zerolog.Nop())
	if rb.len() != 0 {
		t.Errorf("expected len 0, got %d", rb.len())
	}

	rb.push(bufferedMsg{topic: "t"})
	rb.push(bufferedMsg{topic: "t"})
	if rb.len() != 2 {
		t.Errorf("expected len 2, got %d", rb.len())
	}

	rb.drainAll()
	if rb.len() != 0 {
		t.Errorf("expected len 0 after drain, got %d", rb.len())
	}
}

func TestRingBufferPreservesFields(t *testing.T) {
	rb := newRingBuffer(10, zerolog.Nop())
	rb.push(bufferedMsg{
		topic:    "ledblink/system",
		payload:  []byte(`{"test":true}`),
		qos:      1,
		retained: true,
	})

	got := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].topic != "ledblink/system" {
		t.Errorf("topic: got %s", got[0].topic)
	}
	if string(got[0].payload) != `{"test":true}` {
		t.Errorf("payload: got %s", got[0].payload)
	}
	if got[0].qos != 1 || !got[0].retained {
		t.Errorf("qos/retained: got %d/%v", got[0].qos, got[0].retained)
	}
}
