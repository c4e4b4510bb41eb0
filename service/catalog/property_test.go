package catalog

import (
	"context"
	"errors"
	"testing"

	"pgregory.net/rapid"

	"launcher.GO/core/apperr"
	"launcher.GO/core/logger"
	entity "launcher.GO/model/entity"
)

var (
	genCategory = rapid.SampledFrom([]string{"users", "admin"})
	genTitle    = rapid.StringMatching(`[A-Za-z0-9][A-Za-z0-9 ._-]{0,23}[A-Za-z0-9]`)
	genURL      = rapid.StringMatching(`https://[a-z]{1,12}\.example\.com(/[a-z0-9]{1,8})?`)
)

func TestProperty_CreateEchoesInput(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		svc := NewService(&memDocs{}, newMemAssets(), Options{Logger: logger.Discard()})
		ctx := context.Background()
		cat := genCategory.Draw(t, "category")
		title := genTitle.Draw(t, "title")
		url := genURL.Draw(t, "url")
		withImage := rapid.Bool().Draw(t, "withImage")

		in := CreateInput{Category: cat, Title: title, URL: url}
		if withImage {
			in.Image = pngUpload("icon.png", "bytes")
		}
		got, err := svc.Create(ctx, in)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if got.Title != title || got.URL != url {
			t.Fatalf("Create = %+v, want title %q url %q", got, title, url)
		}
		if !withImage && got.Image != svc.DefaultImage() {
			t.Fatalf("image = %q, want default", got.Image)
		}
		if withImage && got.Image == svc.DefaultImage() {
			t.Fatal("uploaded image replaced by default")
		}
		doc, _ := svc.ListAll(ctx)
		c, _ := entity.ParseCategory(cat)
		if i := doc.Find(c, title); i < 0 || doc.Entries(c)[i] != got {
			t.Fatalf("ListAll missing %+v", got)
		}
	})
}

// A random sequence of operations never leaves two entries with the same
// title in one category, and every owned image in the catalog is stored.
func TestProperty_OperationSequencesKeepInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		docs, assets := &memDocs{}, newMemAssets()
		svc := NewService(docs, assets, Options{Logger: logger.Discard()})
		ctx := context.Background()
		titles := rapid.SampledFrom([]string{"Docs", "Wiki", "Mail", "CI", "Vault"})

		steps := rapid.IntRange(1, 30).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			cat := genCategory.Draw(t, "category")
			title := titles.Draw(t, "title")
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				var img *Upload
				if rapid.Bool().Draw(t, "img") {
					img = pngUpload("a.png", "x")
				}
				_, err := svc.Create(ctx, CreateInput{Category: cat, Title: title, URL: "u", Image: img})
				if err != nil && !errors.Is(err, apperr.ErrDuplicateTitle) {
					t.Fatalf("Create: %v", err)
				}
			case 1:
				var img *Upload
				if rapid.Bool().Draw(t, "img") {
					img = pngUpload("b.png", "y")
				}
				_, err := svc.Update(ctx, UpdateInput{Category: cat, CurrentTitle: title, NewTitle: titles.Draw(t, "newTitle"), URL: "u2", Image: img})
				if err != nil && !errors.Is(err, apperr.ErrNotFound) && !errors.Is(err, apperr.ErrDuplicateTitle) {
					t.Fatalf("Update: %v", err)
				}
			case 2:
				err := svc.Delete(ctx, cat, title)
				if err != nil && !errors.Is(err, apperr.ErrNotFound) {
					t.Fatalf("Delete: %v", err)
				}
			}
		}

		doc, err := svc.ListAll(ctx)
		if err != nil {
			t.Fatal(err)
		}
		referenced := 0
		for _, c := range entity.Categories {
			seen := map[string]bool{}
			for _, e := range doc.Entries(c) {
				if seen[e.Title] {
					t.Fatalf("duplicate title %q in %s", e.Title, c)
				}
				seen[e.Title] = true
				if assets.Owned(e.Image) {
					referenced++
					if !assets.has(e.Image) {
						t.Fatalf("entry %q references missing asset %s", e.Title, e.Image)
					}
				}
			}
		}
		if len(assets.files) != referenced {
			t.Fatalf("stored assets = %d, referenced = %d: orphan left behind", len(assets.files), referenced)
		}
	})
}

func TestProperty_DeleteTwiceIsNotFound(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		svc := NewService(&memDocs{}, newMemAssets(), Options{Logger: logger.Discard()})
		ctx := context.Background()
		cat := genCategory.Draw(t, "category")
		title := genTitle.Draw(t, "title")
		if _, err := svc.Create(ctx, CreateInput{Category: cat, Title: title, URL: "u"}); err != nil {
			t.Fatal(err)
		}
		if err := svc.Delete(ctx, cat, title); err != nil {
			t.Fatal(err)
		}
		before, _ := svc.ListAll(ctx)
		if err := svc.Delete(ctx, cat, title); !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("second Delete = %v, want NotFound", err)
		}
		after, _ := svc.ListAll(ctx)
		for _, c := range entity.Categories {
			if len(before.Entries(c)) != len(after.Entries(c)) {
				t.Fatal("failed delete changed the catalog")
			}
		}
	})
}
