package memory

import (
	"bytes"
	"context"
	"io"
	"testing"

	"kindercore/internal/blob/core"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	info, err := store.Put(ctx, "archives/a.json", bytes.NewReader([]byte(`{"ok":true}`)), core.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"kind": "archive"},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 11 || info.ContentType != "application/json" {
		t.Fatalf("info = %+v", info)
	}

	got, body, err := store.Get(ctx, "archives/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = body.Close() }()
	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Fatalf("body = %q", data)
	}
	if got.Metadata["kind"] != "archive" {
		t.Fatalf("metadata = %v", got.Metadata)
	}
}

func TestPutIsCreateOnly(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("one")), core.PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("two")), core.PutOptions{}); err == nil {
		t.Fatal("second put to same key must fail")
	}
}

func TestDeleteReportsExistence(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, err := store.Put(ctx, "k", bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	existed, err := store.Delete(ctx, "k")
	if err != nil || !existed {
		t.Fatalf("delete existing = %v, %v", existed, err)
	}
	existed, err = store.Delete(ctx, "k")
	if err != nil || existed {
		t.Fatalf("delete missing = %v, %v", existed, err)
	}
}

func TestListFiltersByPrefixSorted(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, key := range []string{"b/2", "a/1", "b/1"} {
		if _, err := store.Put(ctx, key, bytes.NewReader([]byte("x")), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}

	infos, err := store.List(ctx, "b/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "b/1" || infos[1].Key != "b/2" {
		t.Fatalf("list = %+v", infos)
	}
}
