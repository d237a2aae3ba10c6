package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/menta2k/mudrik/pkg/types"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func backends(t *testing.T) map[string]KV {
	t.Helper()
	ctx := context.Background()

	fileKV, err := NewFileKV(filepath.Join(t.TempDir(), "library"))
	if err != nil {
		t.Fatalf("NewFileKV failed: %v", err)
	}
	sqliteKV, err := NewSQLiteKV(ctx, openTestDB(t))
	if err != nil {
		t.Fatalf("NewSQLiteKV failed: %v", err)
	}
	return map[string]KV{
		"memory": NewMemoryKV(),
		"file":   fileKV,
		"sqlite": sqliteKV,
	}
}

func TestKVGetSet(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := kv.Get(ctx, ClipsKey); err != nil || ok {
				t.Fatalf("Expected missing key, got ok=%v err=%v", ok, err)
			}
			if err := kv.Set(ctx, ClipsKey, []byte(`[]`)); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			if err := kv.Set(ctx, ClipsKey, []byte(`[1]`)); err != nil {
				t.Fatalf("overwrite failed: %v", err)
			}
			got, ok, err := kv.Get(ctx, ClipsKey)
			if err != nil || !ok {
				t.Fatalf("Get failed: ok=%v err=%v", ok, err)
			}
			if string(got) != `[1]` {
				t.Errorf("Expected [1], got %s", got)
			}
		})
	}
}

func TestKVSetMany(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			b, ok := kv.(Batcher)
			if !ok {
				t.Fatalf("%s does not implement Batcher", name)
			}
			err := b.SetMany(ctx, map[string][]byte{
				ClipsKey:      []byte(`["c"]`),
				CategoriesKey: []byte(`["k"]`),
			})
			if err != nil {
				t.Fatalf("SetMany failed: %v", err)
			}
			for key, want := range map[string]string{ClipsKey: `["c"]`, CategoriesKey: `["k"]`} {
				got, _, err := kv.Get(ctx, key)
				if err != nil || string(got) != want {
					t.Errorf("%s: expected %s, got %s (err %v)", key, want, got, err)
				}
			}
		})
	}
}

func TestGatewayRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			gw := NewGateway(kv)

			clips := []types.Clip{
				{ID: "a", Name: "مقطع 1", Category: "قصص", VideoFileName: "avatarr.mp4"},
				{ID: "b", Name: "second", Category: types.DefaultCategory, VideoFileName: "x.mp4"},
			}
			categories := []string{types.DefaultCategory, "قصص"}

			if err := gw.SaveAll(ctx, clips, categories); err != nil {
				t.Fatalf("SaveAll failed: %v", err)
			}

			gotClips, err := gw.LoadClips(ctx)
			if err != nil {
				t.Fatalf("LoadClips failed: %v", err)
			}
			if !reflect.DeepEqual(gotClips, clips) {
				t.Errorf("Expected %+v, got %+v", clips, gotClips)
			}

			gotCats, err := gw.LoadCategories(ctx)
			if err != nil {
				t.Fatalf("LoadCategories failed: %v", err)
			}
			if !reflect.DeepEqual(gotCats, categories) {
				t.Errorf("Expected %v, got %v", categories, gotCats)
			}
		})
	}
}

func TestGatewayEmpty(t *testing.T) {
	gw := NewGateway(NewMemoryKV())
	clips, err := gw.LoadClips(context.Background())
	if err != nil || len(clips) != 0 {
		t.Errorf("Expected no clips, got %v (err %v)", clips, err)
	}
	cats, err := gw.LoadCategories(context.Background())
	if err != nil || len(cats) != 0 {
		t.Errorf("Expected no categories, got %v (err %v)", cats, err)
	}
}

func TestGatewayLegacyRecords(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	legacy := `[{"id":"E621E1F8-C36C-495A-93FC-0C247A3E6E5F","name":"old","category":"قصص","extra":true}]`
	kv.Set(ctx, ClipsKey, []byte(legacy))

	clips, err := NewGateway(kv).LoadClips(ctx)
	if err != nil {
		t.Fatalf("LoadClips failed: %v", err)
	}
	if len(clips) != 1 {
		t.Fatalf("Expected 1 clip, got %d", len(clips))
	}
	if clips[0].ID != "E621E1F8-C36C-495A-93FC-0C247A3E6E5F" {
		t.Errorf("ID changed on load: %s", clips[0].ID)
	}
	if clips[0].VideoFileName != types.DefaultVideoFileName {
		t.Errorf("Expected default video name, got %q", clips[0].VideoFileName)
	}
}

func TestGatewayCorruptData(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	kv.Set(ctx, CategoriesKey, []byte(`{not json`))

	if _, err := NewGateway(kv).LoadCategories(ctx); err == nil {
		t.Error("Expected decode error for corrupt categories")
	}
}

func TestFileKVLayout(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKV(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Set(context.Background(), CategoriesKey, []byte(`[]`)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "categories.json")); err != nil {
		t.Errorf("Expected categories.json in store dir: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected no leftover temp files, got %d entries", len(entries))
	}
}
