//go:build !integration

package rest

import (
	"context"
	"net/http"
	"testing"

	"shopsense/domain"
)

type fakeCatalogWriter struct {
	upserts []domain.Product
}

func (f *fakeCatalogWriter) Upsert(_ context.Context, product *domain.Product) error {
	f.upserts = append(f.upserts, *product)
	return nil
}

func TestCatalogUpsert_PersistsTheProduct(t *testing.T) {
	writer := &fakeCatalogWriter{}
	h := NewCatalogAdminHandler(writer)

	body := `{"product_id":"p1","name":"Trowel","category":"garden",` +
		`"price":12,"in_stock":true,"features":[0.1,0.9]}`
	rec, err := postJSON(h.Upsert, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if len(writer.upserts) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(writer.upserts))
	}

	got := writer.upserts[0]
	if got.ProductID != "p1" || got.Category != "garden" || !got.InStock {
		t.Fatalf("unexpected product persisted: %+v", got)
	}
	if len(got.Features) != 2 || got.Features[1] != 0.9 {
		t.Fatalf("expected feature vector [0.1 0.9], got %v", got.Features)
	}
}

func TestCatalogUpsert_RejectsMissingFields(t *testing.T) {
	writer := &fakeCatalogWriter{}
	h := NewCatalogAdminHandler(writer)

	rec, err := postJSON(h.Upsert, `{"name":"Trowel"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	if len(writer.upserts) != 0 {
		t.Fatalf("expected no upserts, got %d", len(writer.upserts))
	}
}
