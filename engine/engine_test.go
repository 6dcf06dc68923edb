package engine

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/catalog"
	"github.com/cinematch/cinematch/core"
	"github.com/cinematch/cinematch/embedding"
	"github.com/cinematch/cinematch/vector"
)

const engineCSV = `Title,Genre,Star Cast,Director,IMDb Rating,Generated_Plot
Parasite,Drama Thriller,Song Kang-ho,Bong Joon-ho,8.6,A poor family schemes to infiltrate a wealthy household.
Inception,Sci-Fi Action,Leonardo DiCaprio,Christopher Nolan,8.8,A thief steals secrets through dream-sharing technology.
The Host,Horror Drama,Song Kang-ho,Bong Joon-ho,7.1,A monster emerges from the Han river and abducts a girl.
Oldboy,Mystery Thriller,Choi Min-sik,Park Chan-wook,8.4,A man imprisoned for years seeks revenge on his captor.
Memories of Murder,Crime Drama,Song Kang-ho,Bong Joon-ho,8.1,Detectives hunt a serial killer in a rural province.
Burning,Drama Mystery,Yoo Ah-in,Lee Chang-dong,7.5,A writer suspects an enigmatic rich man of a terrible secret.
Snowpiercer,Sci-Fi Action,Chris Evans,Bong Joon-ho,7.1,Survivors of a frozen earth ride a perpetually moving train.
The Wailing,Horror Mystery,Kwak Do-won,Na Hong-jin,7.4,A policeman investigates a wave of killings tied to a stranger.
`

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	cat := catalog.NewFromReader(strings.NewReader(engineCSV), zerolog.Nop())
	if cat.Empty() {
		t.Fatal("test catalog failed to load")
	}

	dir := t.TempDir()
	retriever, err := vector.NewRetriever(cat, embedding.NewEncoder(embedding.DefaultDimension), vector.Options{
		EmbeddingPath: filepath.Join(dir, "embeddings.csv"),
		IndexPath:     filepath.Join(dir, "flat.index"),
	})
	if err != nil {
		t.Fatalf("NewRetriever() error = %v", err)
	}

	e, err := New(retriever, cat, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func titles(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestRecommend_AtMostTopKAscending(t *testing.T) {
	e := newTestEngine(t, Options{})

	items, err := e.Recommend(context.Background(), "crime investigation murder", nil, nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(items) == 0 || len(items) > DefaultTopK {
		t.Fatalf("got %d items, want 1..%d", len(items), DefaultTopK)
	}
	for i := 1; i < len(items); i++ {
		if items[i].Distance < items[i-1].Distance {
			t.Errorf("results not ascending by distance: %v", titles(items))
		}
	}
}

// 已判定影片绝不出现在推荐结果中，即使它是最近邻。
func TestRecommend_ExcludesSeenTitles(t *testing.T) {
	e := newTestEngine(t, Options{})

	liked := []string{"Parasite", "Memories of Murder"}
	disliked := []string{"The Host"}
	items, err := e.Recommend(context.Background(), "Bong Joon-ho drama", liked, disliked)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	seen := append(append([]string{}, liked...), disliked...)
	for _, it := range items {
		for _, title := range seen {
			if it.Title == title {
				t.Errorf("recommended already-judged title %q", title)
			}
		}
	}
}

// 喜欢列表注入有效查询：结果必须随口味信号变化。
func TestRecommend_LikedTitlesShapeQuery(t *testing.T) {
	e := newTestEngine(t, Options{})

	plain, err := e.Recommend(context.Background(), "movie night", nil, nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	flavored, err := e.Recommend(context.Background(), "movie night", []string{"Inception", "Snowpiercer"}, nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	same := len(plain) == len(flavored)
	if same {
		for i := range plain {
			if plain[i].Title != flavored[i].Title {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("liked titles had no effect on recommendations")
	}
}

func TestRecommend_EmptyQueryDeterministic(t *testing.T) {
	e := newTestEngine(t, Options{})

	first, err := e.Recommend(context.Background(), "", nil, nil)
	if err != nil {
		t.Fatalf("Recommend() with empty query error = %v", err)
	}
	second, err := e.Recommend(context.Background(), "", nil, nil)
	if err != nil {
		t.Fatalf("Recommend() with empty query error = %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("empty-query runs differ in size: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Title != second[i].Title {
			t.Errorf("empty-query runs differ at %d: %s vs %s", i, first[i].Title, second[i].Title)
		}
	}
}

func TestRecommend_FilterExpr(t *testing.T) {
	e := newTestEngine(t, Options{FilterExpr: `item.rating < 8.0`})

	items, err := e.Recommend(context.Background(), "mystery thriller", nil, nil)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	for _, it := range items {
		rating, ok := it.Meta["rating"].(float64)
		if !ok {
			t.Errorf("item %q has no rating in meta", it.Title)
			continue
		}
		if rating < 8.0 {
			t.Errorf("item %q rating %v should have been filtered", it.Title, rating)
		}
	}
}

func TestNew_InvalidFilterExpr(t *testing.T) {
	cat := catalog.NewFromReader(strings.NewReader(engineCSV), zerolog.Nop())
	_, err := New(nil, cat, Options{FilterExpr: `item.rating <<< 1`})
	if err == nil {
		t.Fatal("New() should reject an invalid filter expression")
	}
	de := core.GetDomainError(err)
	if de == nil || de.Code != core.ErrorCodeInvalidInput {
		t.Errorf("error = %v, want INVALID_INPUT domain error", err)
	}
}

func TestRecommendForProfile_GenreSupplement(t *testing.T) {
	e := newTestEngine(t, Options{})

	profile := &core.UserProfile{
		Name:            "kim",
		LikedMovies:     []string{"Parasite"},
		PreferredGenres: []string{"Horror"},
	}
	items, err := e.RecommendForProfile(context.Background(), "something dark", profile)
	if err != nil {
		t.Fatalf("RecommendForProfile() error = %v", err)
	}
	if len(items) == 0 || len(items) > DefaultTopK {
		t.Fatalf("got %d items, want 1..%d", len(items), DefaultTopK)
	}
	for _, it := range items {
		if it.Title == "Parasite" {
			t.Error("profile-liked title should be excluded")
		}
	}

	// 去重不变量：同一标题只出现一次
	counts := make(map[string]int)
	for _, it := range items {
		counts[it.Title]++
	}
	for title, n := range counts {
		if n > 1 {
			t.Errorf("title %q appears %d times", title, n)
		}
	}
}

func TestRecommendForProfile_NilProfile(t *testing.T) {
	e := newTestEngine(t, Options{})

	items, err := e.RecommendForProfile(context.Background(), "revenge thriller", nil)
	if err != nil {
		t.Fatalf("RecommendForProfile() error = %v", err)
	}
	if len(items) == 0 {
		t.Error("nil profile should still produce semantic recommendations")
	}
}

func TestComposeQuery(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		liked []string
		want  string
	}{
		{"base only", "sci-fi heist", nil, "sci-fi heist"},
		{"base plus liked", "sci-fi", []string{"Inception", "Oldboy"}, "sci-fi Inception Oldboy"},
		{"liked only", "", []string{"Inception"}, "Inception"},
		{"both empty", "", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := composeQuery(tt.base, tt.liked); got != tt.want {
				t.Errorf("composeQuery(%q, %v) = %q, want %q", tt.base, tt.liked, got, tt.want)
			}
		})
	}
}
