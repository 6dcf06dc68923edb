package recall

import (
	"context"
	"math"

	"github.com/cinematch/cinematch/catalog"
	"github.com/cinematch/cinematch/core"
	"github.com/cinematch/cinematch/pkg/utils"
)

// Genre 是类型偏好召回源：按画像中的 PreferredGenres 在目录上做
// 类型匹配，作为语义召回的补充候选。
// 画像为空或没有类型偏好时返回空结果。
type Genre struct {
	Catalog *catalog.Store

	// TopK 是每个偏好类型的候选上限；<=0 时取 5。
	TopK int
}

func (r *Genre) Name() string { return "recall.genre" }

func (r *Genre) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil || rctx.Profile == nil {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	topK := r.TopK
	if topK <= 0 {
		topK = 5
	}

	seen := make(map[int]bool)
	var out []*core.Item
	for _, genre := range rctx.Profile.PreferredGenres {
		for _, row := range r.Catalog.RowsByGenre(genre, topK) {
			if seen[row] {
				continue
			}
			seen[row] = true

			m := r.Catalog.Movie(row)
			if m == nil {
				continue
			}
			it := core.NewItem(row, m.Title)
			// 类型召回没有向量距离，排在语义候选之后
			it.Distance = math.Inf(1)
			it.Meta["genre"] = m.Genre
			if m.Rating != nil {
				it.Meta["rating"] = *m.Rating
			}
			it.PutLabel("recall_source", utils.Label{Value: "genre", Source: "recall"})
			it.PutLabel("matched_genre", utils.Label{Value: genre, Source: "recall"})
			out = append(out, it)
		}
	}
	return out, nil
}
