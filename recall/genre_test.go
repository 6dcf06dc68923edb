package recall

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/catalog"
	"github.com/cinematch/cinematch/core"
)

const genreCSV = `Title,Genre,Star Cast,Director,IMDb Rating,Generated_Plot
Parasite,Drama Thriller,Song Kang-ho,Bong Joon-ho,8.6,plot
Inception,Sci-Fi Action,Leonardo DiCaprio,Christopher Nolan,8.8,plot
The Host,Horror Drama,Song Kang-ho,Bong Joon-ho,7.1,plot
Oldboy,Mystery Thriller,Choi Min-sik,Park Chan-wook,8.4,plot
`

func TestGenre_Recall(t *testing.T) {
	cat := catalog.NewFromReader(strings.NewReader(genreCSV), zerolog.Nop())
	src := &Genre{Catalog: cat, TopK: 5}

	rctx := &core.RecommendContext{
		Profile: &core.UserProfile{PreferredGenres: []string{"Drama"}},
	}
	out, err := src.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d items, want 2 drama titles", len(out))
	}
	if out[0].Title != "Parasite" || out[1].Title != "The Host" {
		t.Errorf("titles = [%s %s], want catalog order [Parasite The Host]", out[0].Title, out[1].Title)
	}
	for _, it := range out {
		if !math.IsInf(it.Distance, 1) {
			t.Errorf("item %q distance = %v, want +Inf so semantic candidates sort first", it.Title, it.Distance)
		}
		if lbl := it.Labels["recall_source"]; lbl.Value != "genre" {
			t.Errorf("item %q recall_source = %q, want genre", it.Title, lbl.Value)
		}
		if lbl := it.Labels["matched_genre"]; lbl.Value != "Drama" {
			t.Errorf("item %q matched_genre = %q, want Drama", it.Title, lbl.Value)
		}
	}
}

func TestGenre_OverlappingGenresDeduped(t *testing.T) {
	cat := catalog.NewFromReader(strings.NewReader(genreCSV), zerolog.Nop())
	src := &Genre{Catalog: cat}

	rctx := &core.RecommendContext{
		Profile: &core.UserProfile{PreferredGenres: []string{"Thriller", "Drama"}},
	}
	out, err := src.Recall(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}

	seen := make(map[string]int)
	for _, it := range out {
		seen[it.Title]++
	}
	for title, n := range seen {
		if n > 1 {
			t.Errorf("title %q returned %d times, want once", title, n)
		}
	}
	// Parasite 同时命中 Thriller 和 Drama，只出现一次
	if seen["Parasite"] != 1 {
		t.Errorf("Parasite count = %d, want 1", seen["Parasite"])
	}
}

func TestGenre_NoProfile(t *testing.T) {
	cat := catalog.NewFromReader(strings.NewReader(genreCSV), zerolog.Nop())
	src := &Genre{Catalog: cat}

	out, err := src.Recall(context.Background(), &core.RecommendContext{})
	if err != nil {
		t.Fatalf("Recall() error = %v", err)
	}
	if out != nil {
		t.Errorf("no profile should yield nil, got %v", out)
	}
}
