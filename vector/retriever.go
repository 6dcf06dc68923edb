package vector

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cinematch/cinematch/catalog"
	"github.com/cinematch/cinematch/core"
	"github.com/cinematch/cinematch/embedding"
	"github.com/cinematch/cinematch/pkg/utils"
)

// Options 配置 Retriever 的缓存路径与并发度。
type Options struct {
	// EmbeddingPath 是 embedding 矩阵缓存文件路径（CSV，一行一条目录记录）。
	EmbeddingPath string

	// IndexPath 是最近邻索引缓存文件路径。
	IndexPath string

	// Concurrency 是构建矩阵时的并发度；<=0 时取 CPU 核数。
	Concurrency int

	// Logger 默认 Nop。
	Logger zerolog.Logger
}

// Retriever 在影片目录上维护语义向量空间并回答最近邻查询。
//
// 初始化流程（lazy cache-or-rebuild，带指纹校验）：
//  1. 加载指纹文件，与当前目录行数/维度/编码方案比对；
//     不一致则整体重建缓存（记录 warn），而不是盲信旧文件
//  2. 缓存命中则直接加载矩阵与索引；缓存损坏则返回 CACHE_MISMATCH
//     错误，调用方应 fail fast
//  3. 缓存缺失则从目录描述文本计算 embedding（errgroup 并行）、
//     构建 flat 索引，并落盘矩阵 + 索引 + 指纹
//
// 初始化完成后只读，Search 可并发调用。
type Retriever struct {
	catalog *catalog.Store
	encoder *embedding.Encoder
	index   *FlatIndex
	logger  zerolog.Logger
}

// NewRetriever 初始化检索器。目录为空时得到空索引，所有查询返回空结果。
func NewRetriever(cat *catalog.Store, enc *embedding.Encoder, opts Options) (*Retriever, error) {
	r := &Retriever{
		catalog: cat,
		encoder: enc,
		logger:  opts.Logger,
	}

	if cat.Empty() {
		r.logger.Warn().Msg("catalog is empty, semantic index will return no results")
		r.index = NewFlatIndex(enc.Dimension())
		return r, nil
	}

	matrix, rebuilt, err := r.loadOrBuildMatrix(opts)
	if err != nil {
		return nil, err
	}

	index, err := r.loadOrBuildIndex(matrix, rebuilt, opts)
	if err != nil {
		return nil, err
	}
	r.index = index

	r.logger.Info().
		Int("movies", cat.Len()).
		Int("dim", enc.Dimension()).
		Str("scheme", embedding.Scheme).
		Msg("movie retriever initialized")
	return r, nil
}

// Index 返回底层索引（测试与诊断用）。
func (r *Retriever) Index() *FlatIndex { return r.index }

// Search 将查询文本用目录同款编码方案向量化，在索引上取 topK 最近邻，
// 按距离升序返回对应目录行。空索引/空目录返回空结果，不报错。
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]*core.Item, error) {
	if r.index == nil || r.index.Len() == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := r.encoder.Encode(query)
	rows, dists, err := r.index.Search(vec, topK)
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(rows))
	for i, row := range rows {
		m := r.catalog.Movie(row)
		if m == nil {
			continue
		}
		it := core.NewItem(row, m.Title)
		it.Distance = dists[i]
		it.Meta["genre"] = m.Genre
		it.Meta["director"] = m.Director
		it.Meta["star_cast"] = m.StarCast
		it.Meta["plot"] = m.GeneratedPlot
		if m.Rating != nil {
			it.Meta["rating"] = *m.Rating
		}
		it.PutLabel("recall_source", utils.Label{Value: "semantic", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// loadOrBuildMatrix 返回的 rebuilt 表示矩阵是重新计算的而非缓存加载；
// 此时索引缓存同样作废，必须一并重建。
func (r *Retriever) loadOrBuildMatrix(opts Options) ([][]float64, bool, error) {
	dim := r.encoder.Dimension()
	mpath := metaPath(opts.EmbeddingPath)

	cachePresent := fileExists(opts.EmbeddingPath)
	if cachePresent {
		if !fileExists(mpath) {
			// 缓存来历不明（无指纹），宁可失败也不盲信
			return nil, false, core.NewDomainError(core.ModuleVector, core.ErrorCodeCacheMismatch,
				"vector: embedding cache exists without fingerprint, refusing to trust it")
		}
		meta, err := loadMeta(mpath)
		if err != nil {
			return nil, false, err
		}
		if meta.Rows == r.catalog.Len() && meta.Dim == dim && meta.Scheme == embedding.Scheme {
			r.logger.Info().Str("path", opts.EmbeddingPath).Msg("loading cached embeddings")
			matrix, err := loadMatrixCSV(opts.EmbeddingPath, dim)
			return matrix, false, err
		}
		r.logger.Warn().
			Int("cache_rows", meta.Rows).Int("catalog_rows", r.catalog.Len()).
			Int("cache_dim", meta.Dim).Int("dim", dim).
			Str("cache_scheme", meta.Scheme).Str("scheme", embedding.Scheme).
			Msg("embedding cache fingerprint mismatch, rebuilding")
	}

	matrix, err := r.buildMatrix(opts.Concurrency)
	if err != nil {
		return nil, false, err
	}
	if err := saveMatrixCSV(opts.EmbeddingPath, matrix); err != nil {
		return nil, false, err
	}
	if err := saveMeta(mpath, cacheMeta{Rows: len(matrix), Dim: dim, Scheme: embedding.Scheme}); err != nil {
		return nil, false, err
	}
	r.logger.Info().Int("rows", len(matrix)).Msg("embeddings computed and cached")
	return matrix, true, nil
}

// buildMatrix 并行计算目录所有条目的 embedding。
// 每行独立写入预分配矩阵，结果与串行计算完全一致。
func (r *Retriever) buildMatrix(concurrency int) ([][]float64, error) {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	movies := r.catalog.Movies()
	usePlot := r.catalog.HasPlotData()
	matrix := make([][]float64, len(movies))

	var eg errgroup.Group
	eg.SetLimit(concurrency)
	for i := range movies {
		row := i
		eg.Go(func() error {
			matrix[row] = r.encoder.Encode(movies[row].DescriptiveText(usePlot))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return matrix, nil
}

// loadOrBuildIndex 在矩阵是缓存加载时复用索引缓存；矩阵重建过时
// 索引缓存一律作废（行数/维度可能恰好相同，比如只换了编码方案）。
func (r *Retriever) loadOrBuildIndex(matrix [][]float64, matrixRebuilt bool, opts Options) (*FlatIndex, error) {
	if matrixRebuilt {
		r.logger.Warn().Str("path", opts.IndexPath).Msg("embeddings were rebuilt, discarding index cache")
	} else if fileExists(opts.IndexPath) {
		index, err := LoadFlatIndex(opts.IndexPath)
		if err != nil {
			return nil, err
		}
		// 指纹在矩阵侧已校验；这里再对行数/维度做一致性兜底
		if index.Len() != len(matrix) || index.Dimension() != r.encoder.Dimension() {
			r.logger.Warn().
				Int("index_rows", index.Len()).Int("matrix_rows", len(matrix)).
				Msg("index cache out of sync with embeddings, rebuilding")
		} else {
			r.logger.Info().Str("path", opts.IndexPath).Msg("loading cached flat index")
			return index, nil
		}
	}

	index := NewFlatIndex(r.encoder.Dimension())
	if err := index.Add(matrix); err != nil {
		return nil, err
	}
	if err := index.Save(opts.IndexPath); err != nil {
		return nil, err
	}
	r.logger.Info().Int("rows", index.Len()).Msg("flat index built and cached")
	return index, nil
}
