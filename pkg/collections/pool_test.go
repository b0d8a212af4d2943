package collections

import "testing"

func TestRingBuffer(t *testing.T) {
	r := NewRingBuffer[int](3)

	if !r.IsEmpty() {
		t.Error("New ring buffer should be empty")
	}

	// Push items
	if !r.Push(1) {
		t.Error("Push should succeed")
	}
	if !r.Push(2) {
		t.Error("Push should succeed")
	}
	if !r.Push(3) {
		t.Error("Push should succeed")
	}

	if !r.IsFull() {
		t.Error("Ring buffer should be full")
	}

	// Push to full buffer should fail
	if r.Push(4) {
		t.Error("Push to full buffer should fail")
	}

	// Pop
	v, ok := r.Pop()
	if !ok || v != 1 {
		t.Errorf("Expected 1, got %d", v)
	}

	// Now we can push again
	if !r.Push(4) {
		t.Error("Push should succeed after Pop")
	}

	// Pop remaining
	v, _ = r.Pop()
	if v != 2 {
		t.Errorf("Expected 2, got %d", v)
	}
	v, _ = r.Pop()
	if v != 3 {
		t.Errorf("Expected 3, got %d", v)
	}
	v, _ = r.Pop()
	if v != 4 {
		t.Errorf("Expected 4, got %d", v)
	}

	if !r.IsEmpty() {
		t.Error("Ring buffer should be empty")
	}
}

func TestRingBuffer_Wrap(t *testing.T) {
	r := NewRingBuffer[int](3)

	// Fill and empty multiple times to test wrap-around
	for round := 0; round < 5; round++ {
		r.Push(1)
		r.Push(2)
		r.Push(3)

		v, _ := r.Pop()
		if v != 1 {
			t.Errorf("Round %d: Expected 1, got %d", round, v)
		}
		v, _ = r.Pop()
		if v != 2 {
			t.Errorf("Round %d: Expected 2, got %d", round, v)
		}
		v, _ = r.Pop()
		if v != 3 {
			t.Errorf("Round %d: Expected 3, got %d", round, v)
		}
	}
}

func BenchmarkRingBuffer_PushPop(b *testing.B) {
	r := NewRingBuffer[int](1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Push(i)
		r.Pop()
	}
}
