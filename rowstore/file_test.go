package rowstore

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFileRowStore_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rows.json")

	store, err := NewFileRowStore(path)
	if err != nil {
		t.Fatal(err)
	}
	row := &Row{PartitionKey: "p1", RowKey: "r1", Properties: map[string]any{"count": 3}}
	if err := store.InsertRow(ctx, row); err != nil {
		t.Fatal(err)
	}

	reopened, err := NewFileRowStore(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := reopened.GetRow(ctx, "p1", "r1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Properties["count"] != float64(3) && got.Properties["count"] != 3 {
		t.Errorf("Properties[count] = %v, want 3", got.Properties["count"])
	}
}

func TestFileRowStore_InsertRejectsDuplicateKeys(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileRowStore(filepath.Join(t.TempDir(), "rows.json"))
	if err != nil {
		t.Fatal(err)
	}
	row := &Row{PartitionKey: "p1", RowKey: "r1", Properties: map[string]any{}}
	if err := store.InsertRow(ctx, row); err != nil {
		t.Fatal(err)
	}
	if err := store.InsertRow(ctx, row); err != ErrRowExists {
		t.Errorf("second InsertRow error = %v, want ErrRowExists", err)
	}
}

func TestFileRowStore_UpsertReplaceAndMerge(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileRowStore(filepath.Join(t.TempDir(), "rows.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	row := &Row{PartitionKey: "p1", RowKey: "r1", Properties: map[string]any{"a": 1, "b": 2}}
	if err := store.UpsertRow(ctx, row, Replace); err != nil {
		t.Fatal(err)
	}

	merged := &Row{PartitionKey: "p1", RowKey: "r1", Properties: map[string]any{"b": 20, "c": 30}}
	if err := store.UpsertRow(ctx, merged, Merge); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetRow(ctx, "p1", "r1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Properties["a"] != 1 || got.Properties["b"] != 20 || got.Properties["c"] != 30 {
		t.Errorf("Properties after merge = %v, want a=1 b=20 c=30", got.Properties)
	}

	replaced := &Row{PartitionKey: "p1", RowKey: "r1", Properties: map[string]any{"only": true}}
	if err := store.UpsertRow(ctx, replaced, Replace); err != nil {
		t.Fatal(err)
	}
	got, err = store.GetRow(ctx, "p1", "r1")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Properties["a"]; ok {
		t.Error("Replace should have dropped the previous properties")
	}
}

func TestFileRowStore_QueryAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileRowStore(filepath.Join(t.TempDir(), "rows.json"))
	if err != nil {
		t.Fatal(err)
	}
	for _, rk := range []string{"a", "b", "c"} {
		row := &Row{PartitionKey: "p1", RowKey: rk, Properties: map[string]any{}}
		if err := store.InsertRow(ctx, row); err != nil {
			t.Fatal(err)
		}
	}
	// A different partition shouldn't leak into p1's results.
	if err := store.InsertRow(ctx, &Row{PartitionKey: "p2", RowKey: "z", Properties: map[string]any{}}); err != nil {
		t.Fatal(err)
	}

	rows, err := store.QueryRows(ctx, "p1", "a")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].RowKey != "b" || rows[1].RowKey != "c" {
		t.Errorf("QueryRows = %+v, want [b, c] in order", rows)
	}

	if err := store.DeleteRow(ctx, "p1", "b"); err != nil {
		t.Fatal(err)
	}
	rows, err = store.QueryRows(ctx, "p1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].RowKey != "a" || rows[1].RowKey != "c" {
		t.Errorf("QueryRows after delete = %+v, want [a, c]", rows)
	}
}

func TestFileRowStore_GetRowMissingReturnsErrRowNotFound(t *testing.T) {
	store, err := NewFileRowStore(filepath.Join(t.TempDir(), "rows.json"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetRow(context.Background(), "p1", "missing"); err != ErrRowNotFound {
		t.Errorf("err = %v, want ErrRowNotFound", err)
	}
}

func TestNewFileRowStore_RejectsXML(t *testing.T) {
	_, err := NewFileRowStore(filepath.Join(t.TempDir(), "rows.xml"))
	if err == nil {
		t.Fatal("expected NewFileRowStore to reject a .xml path")
	}
}
