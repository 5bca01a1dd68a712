package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"

	"shopicsv/app/rowstore"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func sampleSnapshot() Snapshot {
	return Snapshot{
		Content: rowstore.FromRecords([][]string{
			{"Type", "Identification", "Field", "Locale", "Status", "Default content", "Translated content"},
			{"PRODUCT", "1", "title", "fr", "", "Hat", "Chapeau"},
		}),
		Name:          "products.csv",
		Size:          128,
		LastModified:  1700000000000,
		SavedAt:       "10/19/2026, 9:15:00 AM",
		SavedAtMillis: 1792401300000,
	}
}

// orderBackend records every call so tests can assert on write ordering
type orderBackend struct {
	*MemoryBackend
	mu    sync.Mutex
	calls []string
}

func newOrderBackend() *orderBackend {
	return &orderBackend{MemoryBackend: NewMemoryBackend()}
}

func (o *orderBackend) record(call string) {
	o.mu.Lock()
	o.calls = append(o.calls, call)
	o.mu.Unlock()
}

func (o *orderBackend) Set(ctx context.Context, key string, value []byte) error {
	o.record("set:" + key)
	return o.MemoryBackend.Set(ctx, key, value)
}

func (o *orderBackend) Remove(ctx context.Context, key string) error {
	o.record("remove:" + key)
	return o.MemoryBackend.Remove(ctx, key)
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend())

	snap, err := store.Read(ctx)
	if err != nil || snap != nil {
		t.Fatalf("expected no snapshot, got %v, %v", snap, err)
	}

	want := sampleSnapshot()
	if err := store.Write(ctx, want); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, err := store.Read(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a snapshot")
	}
	if got.Checksum == "" {
		t.Error("expected checksum to be set on write")
	}
	got.Checksum = ""
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *got, want)
	}
}

func TestStoreWriteRemovesBeforeSetting(t *testing.T) {
	backend := newOrderBackend()
	store := NewStore(backend)

	if err := store.Write(context.Background(), sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	want := []string{"remove:" + FileDataKey, "set:" + FileDataKey}
	if !reflect.DeepEqual(backend.calls, want) {
		t.Errorf("expected calls %v, got %v", want, backend.calls)
	}
}

func TestStoreWriteReplacesOlderRecord(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend())

	first := sampleSnapshot()
	first.Name = "old.csv"
	if err := store.Write(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := sampleSnapshot()
	second.Name = "new.csv"
	second.SavedAtMillis = 0
	if err := store.Write(ctx, second); err != nil {
		t.Fatal(err)
	}

	got, err := store.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "new.csv" || got.SavedAtMillis != 0 {
		t.Errorf("older record leaked into new snapshot: %+v", got)
	}
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend())
	if err := store.Write(ctx, sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	got, err := store.Read(ctx)
	if err != nil || got != nil {
		t.Errorf("expected nothing after clear, got %v, %v", got, err)
	}
	// Clearing twice is fine
	if err := store.Clear(ctx); err != nil {
		t.Errorf("second clear failed: %v", err)
	}
}

func TestDecodeCorrupt(t *testing.T) {
	valid, err := json.Marshal(sampleSnapshot())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		data string
	}{
		{"not json", "{not json"},
		{"missing content", `{"name":"a.csv"}`},
		{"null content", `{"content":null,"name":"a.csv"}`},
		{"ids out of order", `{"content":[{"id":1,"data":["a"]},{"id":0,"data":["b"]}]}`},
		{"bad checksum", strings.Replace(string(valid), `"name"`, `"checksum":"deadbeef","name"`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if !errors.Is(err, ErrCorrupt) {
				t.Errorf("expected ErrCorrupt, got %v", err)
			}
		})
	}
}

func TestDecodeAcceptsRecordWithoutChecksum(t *testing.T) {
	data := `{"content":[{"id":0,"data":["h"]},{"id":1,"data":["x"]}],"name":"a.csv","savedAt":"1/2/2026, 3:04:05 PM"}`
	snap, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Content) != 2 || snap.Name != "a.csv" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestReadDetectsTamperedContent(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := NewStore(backend)
	if err := store.Write(ctx, sampleSnapshot()); err != nil {
		t.Fatal(err)
	}

	data, _, _ := backend.Get(ctx, FileDataKey)
	tampered := strings.Replace(string(data), "Chapeau", "Bonnet", 1)
	if err := backend.Set(ctx, FileDataKey, []byte(tampered)); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Read(ctx); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt for tampered content, got %v", err)
	}
}

func TestFileBackend(t *testing.T) {
	ctx := context.Background()
	tempDir, err := os.MkdirTemp("", "snapshot-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dir := filepath.Join(tempDir, "nested", "store")
	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("NewFileBackend failed: %v", err)
	}

	t.Run("missing key", func(t *testing.T) {
		_, found, err := backend.Get(ctx, "nothing")
		if err != nil || found {
			t.Errorf("expected not found, got found=%v err=%v", found, err)
		}
	})

	t.Run("set get remove", func(t *testing.T) {
		if err := backend.Set(ctx, "k", []byte("v1")); err != nil {
			t.Fatal(err)
		}
		if err := backend.Set(ctx, "k", []byte("v2")); err != nil {
			t.Fatal(err)
		}
		data, found, err := backend.Get(ctx, "k")
		if err != nil || !found || string(data) != "v2" {
			t.Errorf("expected v2, got %q found=%v err=%v", data, found, err)
		}
		if err := backend.Remove(ctx, "k"); err != nil {
			t.Fatal(err)
		}
		if err := backend.Remove(ctx, "k"); err != nil {
			t.Errorf("removing a missing key should not fail: %v", err)
		}
	})

	t.Run("no temp files left", func(t *testing.T) {
		if err := backend.Set(ctx, "clean", []byte("x")); err != nil {
			t.Fatal(err)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".tmp") {
				t.Errorf("leftover temp file %s", e.Name())
			}
		}
	})

	t.Run("rejects path keys", func(t *testing.T) {
		for _, key := range []string{"", "..", "a/b", `a\b`} {
			if err := backend.Set(ctx, key, []byte("x")); err == nil {
				t.Errorf("expected error for key %q", key)
			}
		}
	})

	t.Run("snapshot store on disk", func(t *testing.T) {
		store := NewStore(backend)
		if err := store.Write(ctx, sampleSnapshot()); err != nil {
			t.Fatal(err)
		}
		reopened, err := NewFileBackend(dir)
		if err != nil {
			t.Fatal(err)
		}
		got, err := NewStore(reopened).Read(ctx)
		if err != nil || got == nil || got.Name != "products.csv" {
			t.Errorf("expected snapshot to survive reopen, got %+v err=%v", got, err)
		}
	})

	if _, err := NewFileBackend("  "); err == nil {
		t.Error("expected error for blank directory")
	}
}

// fakeDynamo keeps items in a map keyed by pk
type fakeDynamo struct {
	items   map[string]map[string]types.AttributeValue
	deletes int
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func pkOf(key map[string]types.AttributeValue) string {
	if s, ok := key["pk"].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[pkOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.items[pkOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deletes++
	delete(f.items, pkOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func TestDynamoBackend(t *testing.T) {
	ctx := context.Background()
	client := newFakeDynamo()
	backend := NewDynamoBackendWithClient(client, "snapshots", "instance-1")

	store := NewStore(backend)
	if err := store.Write(ctx, sampleSnapshot()); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if client.deletes != 1 {
		t.Errorf("expected write to delete the previous item first, got %d deletes", client.deletes)
	}

	raw, ok := client.items["instance-1#"+FileDataKey]
	if !ok {
		t.Fatalf("expected item under instance scoped key, have %v", client.items)
	}
	var item dynamoItem
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		t.Fatal(err)
	}
	if item.InstanceID != "instance-1" || item.UpdatedAt == 0 {
		t.Errorf("unexpected item metadata: %+v", item)
	}

	got, err := store.Read(ctx)
	if err != nil || got == nil || got.Name != "products.csv" {
		t.Fatalf("expected snapshot back, got %+v err=%v", got, err)
	}

	other := NewStore(NewDynamoBackendWithClient(client, "snapshots", "instance-2"))
	if snap, err := other.Read(ctx); err != nil || snap != nil {
		t.Errorf("instances should not share snapshots, got %+v err=%v", snap, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if len(client.items) != 0 {
		t.Errorf("expected table to be empty, have %d items", len(client.items))
	}
}

func TestColumnPrefs(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	prefs := NewColumnPrefs(backend)

	cols, err := prefs.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cols, []int{2, 5, 6}) {
		t.Errorf("expected default columns, got %v", cols)
	}
	// Callers must not be able to alter the defaults
	cols[0] = 99
	if DefaultColumns[0] != 2 {
		t.Fatal("DefaultColumns was mutated through Load result")
	}

	if err := prefs.Save(ctx, []int{0, 6, 6, 9, -1, 3}); err != nil {
		t.Fatal(err)
	}
	cols, err = prefs.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(cols, []int{0, 6, 3}) {
		t.Errorf("expected normalized columns, got %v", cols)
	}

	if err := backend.Set(ctx, ColumnsKey, []byte("garbage")); err != nil {
		t.Fatal(err)
	}
	cols, _ = prefs.Load(ctx)
	if !reflect.DeepEqual(cols, []int{2, 5, 6}) {
		t.Errorf("expected defaults for unreadable preference, got %v", cols)
	}
}
