// Copyright 2025 The EmberGPU Authors
// SPDX-License-Identifier: MIT

package handle

import (
	"errors"
	"testing"
)

type testMarker struct{}

func TestPoolAcquireGetRelease(t *testing.T) {
	p := NewPool[string, testMarker](4)

	h, err := p.Acquire("alpha")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !h.Valid() {
		t.Fatal("acquired handle is null")
	}

	got, ok := p.Get(h)
	if !ok || *got != "alpha" {
		t.Fatalf("Get = %v, %v; want alpha, true", got, ok)
	}

	if !p.Release(h) {
		t.Fatal("Release returned false for live handle")
	}
	if _, ok := p.Get(h); ok {
		t.Fatal("Get succeeded on released handle")
	}
	if p.Release(h) {
		t.Fatal("double Release succeeded")
	}
}

func TestPoolStableAddress(t *testing.T) {
	p := NewPool[int, testMarker](8)
	h, _ := p.Acquire(7)
	first, _ := p.Get(h)

	// Churn other slots; the address for h must not move.
	for i := 0; i < 16; i++ {
		h2, _ := p.Acquire(i)
		p.Release(h2)
	}
	again, _ := p.Get(h)
	if first != again {
		t.Fatalf("payload address moved: %p -> %p", first, again)
	}
}

func TestPoolEpochInvalidation(t *testing.T) {
	p := NewPool[int, testMarker](2)
	h1, _ := p.Acquire(1)
	p.Release(h1)

	// The slot is reused with a bumped epoch.
	h2, _ := p.Acquire(2)
	if h1.Index() != h2.Index() {
		t.Fatalf("expected LIFO slot reuse, got %d vs %d", h1.Index(), h2.Index())
	}
	if _, ok := p.Get(h1); ok {
		t.Fatal("stale handle resolved after slot reuse")
	}
	if v, ok := p.Get(h2); !ok || *v != 2 {
		t.Fatal("fresh handle did not resolve")
	}
}

func TestPoolExhaustion(t *testing.T) {
	p := NewPool[int, testMarker](2)
	if _, err := p.Acquire(0); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Acquire(1); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Acquire(2); !errors.Is(err, ErrPoolExhausted) {
		t.Fatalf("expected ErrPoolExhausted, got %v", err)
	}
}

func TestPoolLiveAccounting(t *testing.T) {
	p := NewPool[int, testMarker](16)
	var handles []Handle[testMarker]
	for i := 0; i < 10; i++ {
		h, _ := p.Acquire(i)
		handles = append(handles, h)
	}
	for _, h := range handles[:4] {
		p.Release(h)
	}

	if p.Len() != 6 {
		t.Fatalf("Len = %d, want 6", p.Len())
	}
	n := 0
	p.ForEach(func(Handle[testMarker], *int) bool { n++; return true })
	if n != 6 {
		t.Fatalf("ForEach visited %d, want 6", n)
	}
}

func TestHandleRawRoundTrip(t *testing.T) {
	h := New[testMarker](42, 7)
	if got := FromRaw[testMarker](h.Raw()); got != h {
		t.Fatalf("FromRaw(Raw()) = %v, want %v", got, h)
	}
	if h.Index() != 42 || h.Epoch() != 7 {
		t.Fatalf("Index/Epoch = %d/%d, want 42/7", h.Index(), h.Epoch())
	}
	if Null[testMarker]().Valid() {
		t.Fatal("null handle reports valid")
	}
}
