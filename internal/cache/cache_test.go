package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/lexigraph/internal/model"
)

func TestKey(t *testing.T) {
	k1 := Key("wiktionary", "λόγος")
	k2 := Key("wiktionary", "λόγος")
	k3 := Key("openai", "λόγος")

	if k1 != k2 {
		t.Error("expected stable keys")
	}
	if k1 == k3 {
		t.Error("expected providers to get distinct keys")
	}
	if !strings.HasPrefix(k1, "lexigraph:v1:") {
		t.Errorf("unexpected key prefix: %s", k1)
	}
}

func TestNew(t *testing.T) {
	if New(model.CacheConfig{Enabled: false}) != nil {
		t.Error("expected nil cache when disabled")
	}
	if _, ok := New(model.CacheConfig{Enabled: true}).(*MemoryCache); !ok {
		t.Error("expected memory cache without a directory")
	}
	if _, ok := New(model.CacheConfig{Enabled: true, Dir: t.TempDir()}).(*LayeredCache); !ok {
		t.Error("expected layered cache with a directory")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss")
	}
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if v, ok := c.Get("k"); !ok || string(v) != "v" {
		t.Errorf("expected hit with v, got %q %v", v, ok)
	}
	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	_ = c.Set("k", []byte("v"), time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestDiskCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "gloss")
	c := NewDiskCache(dir, time.Hour)
	key := Key("wiktionary", "θεός")

	if err := c.Set(key, []byte(`[{"pos":"noun","text":"god"}]`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok := c.Get(key)
	if !ok || !strings.Contains(string(v), "god") {
		t.Fatalf("expected hit, got %q %v", v, ok)
	}

	// a second instance over the same directory sees the entry
	if _, ok := NewDiskCache(dir, time.Hour).Get(key); !ok {
		t.Error("expected entry to persist across instances")
	}

	if err := c.Delete(key); err != nil {
		t.Errorf("Delete failed: %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestDiskCache_ExpiredAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	_ = c.Set("old", []byte("x"), time.Nanosecond)
	time.Sleep(time.Millisecond)
	if _, ok := c.Get("old"); ok {
		t.Error("expected expired entry to miss")
	}

	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("expected corrupt entry to miss")
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.json")); !os.IsNotExist(err) {
		t.Error("expected corrupt entry to be removed")
	}
}

func TestLayeredCache_Promotes(t *testing.T) {
	front := NewMemoryCache(time.Minute, time.Minute)
	back := NewDiskCache(t.TempDir(), time.Hour)
	c := NewLayeredCache(front, back)

	_ = back.Set("k", []byte("v"), 0)
	if _, ok := front.Get("k"); ok {
		t.Fatal("front should start empty")
	}

	if v, ok := c.Get("k"); !ok || string(v) != "v" {
		t.Fatalf("expected layered hit, got %q %v", v, ok)
	}
	if _, ok := front.Get("k"); !ok {
		t.Error("expected back-layer hit to be promoted")
	}

	_ = c.Set("k2", []byte("v2"), 0)
	if _, ok := back.Get("k2"); !ok {
		t.Error("expected Set to reach the back layer")
	}

	if err := c.Clear(); err != nil {
		t.Errorf("Clear failed: %v", err)
	}
	if _, ok := c.Get("k2"); ok {
		t.Error("expected miss after clear")
	}
}
