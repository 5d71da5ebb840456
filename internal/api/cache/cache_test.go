package cache

import (
	"context"
	"testing"
	"time"
)

type entry struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

func TestDecode(t *testing.T) {
	var ok entry
	hit, err := decode([]byte(`{"id": 3, "label": "euro"}`), &ok)
	if err != nil || !hit || ok.ID != 3 || ok.Label != "euro" {
		t.Fatalf("hit = %v err = %v v = %+v", hit, err, ok)
	}

	// valor corrompido não pode ser servido como hit
	var bad entry
	hit, err = decode([]byte(`{"id": 4, "label": `), &bad)
	if hit || err == nil {
		t.Fatalf("truncated: hit = %v err = %v", hit, err)
	}
	hit, err = decode([]byte(`{"id": "x"}`), &bad)
	if hit || err == nil {
		t.Fatalf("wrong type: hit = %v err = %v", hit, err)
	}
}

func TestNilCache(t *testing.T) {
	c := New(nil)
	if c != nil {
		t.Fatal("nil client must give nil cache")
	}
	ctx := context.Background()
	var v entry
	if hit, err := c.GetMatch(ctx, 1, &v); hit || err != nil {
		t.Fatalf("get = %v %v", hit, err)
	}
	if err := c.SetStats(ctx, v, time.Second); err != nil {
		t.Fatal(err)
	}
	if err := c.InvalidateMatch(ctx, 1); err != nil {
		t.Fatal(err)
	}
}
