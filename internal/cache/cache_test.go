package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestMemory_Expiry(t *testing.T) {
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemory()
	m.now = clk.now

	if err := m.Put("a", []byte("1"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := m.Put("b", []byte("2"), 0); err != nil {
		t.Fatal(err)
	}
	if v, ok := m.Get("a"); !ok || string(v) != "1" {
		t.Fatalf("get a = %q, %v", v, ok)
	}

	clk.t = clk.t.Add(time.Minute)
	if _, ok := m.Get("a"); ok {
		t.Error("a should have expired")
	}
	if v, ok := m.Get("b"); !ok || string(v) != "2" {
		t.Errorf("b without ttl should persist, got %q, %v", v, ok)
	}
	if m.Len() != 1 {
		t.Errorf("len = %d, want 1 after eviction", m.Len())
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("missing key reported present")
	}
}

func TestMemory_CopiesValue(t *testing.T) {
	m := NewMemory()
	buf := []byte("abc")
	m.Put("k", buf, 0)
	buf[0] = 'z'
	if v, _ := m.Get("k"); string(v) != "abc" {
		t.Errorf("stored value changed with caller buffer: %q", v)
	}
}

func TestSQLite_PutGetPurge(t *testing.T) {
	c, err := NewSQLite(filepath.Join(t.TempDir(), "cache.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer c.Close()
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c.now = clk.now

	if err := c.Put("k", []byte("v1"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("k", []byte("v2"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("forever", []byte("x"), 0); err != nil {
		t.Fatal(err)
	}
	if v, ok := c.Get("k"); !ok || string(v) != "v2" {
		t.Fatalf("get = %q, %v; want v2", v, ok)
	}

	clk.t = clk.t.Add(2 * time.Hour)
	if _, ok := c.Get("k"); ok {
		t.Error("expired key returned")
	}
	n, err := c.Purge()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("purged = %d, want 1", n)
	}
	if _, ok := c.Get("forever"); !ok {
		t.Error("entry without ttl purged")
	}
}
