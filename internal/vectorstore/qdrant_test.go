package vectorstore

import (
	"context"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestGRPCTarget(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{name: "default http port", urlStr: "http://localhost:6333", wantHost: "localhost", wantPort: 6334},
		{name: "custom port", urlStr: "http://qdrant:9000", wantHost: "qdrant", wantPort: 9001},
		{name: "no port", urlStr: "http://localhost", wantHost: "localhost", wantPort: 6334},
		{name: "no hostname", urlStr: "http://:6333", wantHost: "localhost", wantPort: 6334},
		{name: "invalid URL", urlStr: "://invalid", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := grpcTarget(tt.urlStr)
			if tt.wantErr {
				if err == nil {
					t.Error("grpcTarget() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("grpcTarget() unexpected error: %v", err)
			}
			if host != tt.wantHost {
				t.Errorf("host = %v, want %v", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("port = %v, want %v", port, tt.wantPort)
			}
		})
	}
}

func TestNewQdrantStore_InvalidURL(t *testing.T) {
	if _, err := NewQdrantStore("://invalid"); err == nil {
		t.Error("NewQdrantStore() with invalid URL should return error")
	}
}

func TestBuildFilter(t *testing.T) {
	t.Run("empty predicate means no filter", func(t *testing.T) {
		f, err := buildFilter(nil)
		if err != nil || f != nil {
			t.Errorf("buildFilter(nil) = %v, %v; want nil, nil", f, err)
		}
	})

	t.Run("typed equality conditions in key order", func(t *testing.T) {
		f, err := buildFilter(map[string]any{
			"year":      int64(2025),
			"page_type": "winners",
			"category":  "Clio Sports",
		})
		if err != nil {
			t.Fatalf("buildFilter() error = %v", err)
		}
		if len(f.Must) != 3 {
			t.Fatalf("len(Must) = %d, want 3", len(f.Must))
		}

		wantKeys := []string{"category", "page_type", "year"}
		for i, cond := range f.Must {
			if got := cond.GetField().GetKey(); got != wantKeys[i] {
				t.Errorf("Must[%d] key = %q, want %q", i, got, wantKeys[i])
			}
		}
		if got := f.Must[0].GetField().GetMatch().GetKeyword(); got != "Clio Sports" {
			t.Errorf("category keyword = %q", got)
		}
		if got := f.Must[2].GetField().GetMatch().GetInteger(); got != 2025 {
			t.Errorf("year integer = %d, want 2025", got)
		}
	})

	t.Run("plain int is matched as integer", func(t *testing.T) {
		f, err := buildFilter(map[string]any{"year": 2019})
		if err != nil {
			t.Fatalf("buildFilter() error = %v", err)
		}
		if got := f.Must[0].GetField().GetMatch().GetInteger(); got != 2019 {
			t.Errorf("year integer = %d, want 2019", got)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		if _, err := buildFilter(map[string]any{"score": 0.5}); err == nil {
			t.Error("buildFilter() expected error for float value")
		}
	})
}

func TestPointID(t *testing.T) {
	tests := []struct {
		name string
		id   *qdrant.PointId
		want string
	}{
		{name: "nil", id: nil, want: ""},
		{name: "uuid", id: qdrant.NewID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), want: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{name: "numeric", id: qdrant.NewIDNum(42), want: "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pointID(tt.id); got != tt.want {
				t.Errorf("pointID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQdrantStore_Upsert_EmptyPoints(t *testing.T) {
	store := &QdrantStore{}
	if err := store.Upsert(context.Background(), "clios-index", nil); err != nil {
		t.Errorf("Upsert() with empty points should return early without error, got: %v", err)
	}
}

func TestQdrantStore_Search_InvalidK(t *testing.T) {
	store := &QdrantStore{}
	ctx := context.Background()

	if _, err := store.Search(ctx, "clios-index", []float32{1.0, 2.0}, 0, nil); err == nil {
		t.Error("Search() with k=0 should return error")
	}
	if _, err := store.Search(ctx, "clios-index", []float32{1.0, 2.0}, -1, nil); err == nil {
		t.Error("Search() with k=-1 should return error")
	}
}

func TestConvertPayloadToMap(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]any{
		"title":     "Clio Sports Winners 2025",
		"year":      int64(2025),
		"page_type": "winners",
	})

	got := convertPayloadToMap(payload)
	if got["title"] != "Clio Sports Winners 2025" {
		t.Errorf("title = %v", got["title"])
	}
	if got["year"] != int64(2025) {
		t.Errorf("year = %v (%T), want int64 2025", got["year"], got["year"])
	}

	empty := convertPayloadToMap(nil)
	if empty == nil || len(empty) != 0 {
		t.Errorf("convertPayloadToMap(nil) = %v, want empty map", empty)
	}
}
