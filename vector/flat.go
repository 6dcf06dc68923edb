// Package vector 实现影片目录上的语义检索：flat（精确暴力）欧氏距离
// 索引、embedding/索引的磁盘缓存，以及把目录、编码器、索引捆绑在一起
// 的 Retriever。
package vector

import (
	"math"
	"os"
	"path/filepath"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/cinematch/cinematch/core"
)

// FlatIndex 是精确的暴力搜索索引：对所有向量计算欧氏距离后取 TopK。
// 不变量：索引第 i 行与目录第 i 行一一对应；维度全索引一致。
// 构建完成后只读，可并发查询。
type FlatIndex struct {
	dim     int
	vectors [][]float64
}

// NewFlatIndex 创建空索引。
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// Add 追加一批向量；任一向量维度不符即整体拒绝。
func (idx *FlatIndex) Add(vectors [][]float64) error {
	for _, v := range vectors {
		if len(v) != idx.dim {
			return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: dimension mismatch")
		}
	}
	idx.vectors = append(idx.vectors, vectors...)
	return nil
}

// Len 返回索引中的向量数。
func (idx *FlatIndex) Len() int { return len(idx.vectors) }

// Dimension 返回索引维度。
func (idx *FlatIndex) Dimension() int { return idx.dim }

// Search 返回与 query 距离最近的 topK 个行号及对应距离，升序排列；
// 距离相等时按行号稳定排序。空索引返回空结果，不报错。
func (idx *FlatIndex) Search(query []float64, topK int) ([]int, []float64, error) {
	if len(idx.vectors) == 0 {
		return nil, nil, nil
	}
	if len(query) != idx.dim {
		return nil, nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector: query dimension mismatch")
	}
	if topK <= 0 {
		topK = 10
	}

	type scored struct {
		row  int
		dist float64
	}
	all := make([]scored, len(idx.vectors))
	for i, v := range idx.vectors {
		all[i] = scored{row: i, dist: euclideanDistance(query, v)}
	}

	// 稳定排序：距离相等时保留行号顺序
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].dist < all[j].dist
	})

	if len(all) > topK {
		all = all[:topK]
	}

	rows := make([]int, len(all))
	dists := make([]float64, len(all))
	for i, s := range all {
		rows[i] = s.row
		dists[i] = s.dist
	}
	return rows, dists, nil
}

// flatIndexFile 是索引的持久化格式。
type flatIndexFile struct {
	Dim     int         `json:"dim"`
	Vectors [][]float64 `json:"vectors"`
}

// Save 将索引序列化到磁盘（目录不存在时自动创建）。
func (idx *FlatIndex) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(flatIndexFile{Dim: idx.dim, Vectors: idx.vectors})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadFlatIndex 从磁盘加载索引；文件损坏或内部维度不一致时返回
// CACHE_MISMATCH 错误（调用方应 fail fast，见 core.IsCacheMismatch）。
func LoadFlatIndex(path string) (*FlatIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file flatIndexFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeCacheMismatch, "vector: index cache is corrupt: "+err.Error())
	}
	if file.Dim <= 0 {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeCacheMismatch, "vector: index cache has invalid dimension")
	}
	for _, v := range file.Vectors {
		if len(v) != file.Dim {
			return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeCacheMismatch, "vector: index cache has inconsistent row dimension")
		}
	}
	return &FlatIndex{dim: file.Dim, vectors: file.Vectors}, nil
}

func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
