// Package embedding 实现文本到定长向量的单一映射。
//
// 编码方案是确定性的 feature hashing：分词后将每个词通过 FNV 哈希
// 散列到固定维度的桶上做带符号累加，最后做 L2 归一化。
// 同一进程生命周期内目录与查询共用同一个 Encoder 实例，
// 保证索引与查询的 embedding scheme 一致。
package embedding

import (
	"hash/fnv"
	"math"
	"strings"
)

// Scheme 是编码方案标识，随缓存指纹一起持久化；
// 方案变更时必须同步修改此标识，否则旧缓存会被误用。
const Scheme = "hash/v1"

// DefaultDimension 是默认向量维度。
const DefaultDimension = 256

// Encoder 是 text -> vector 的固定变换。创建后只读，可并发使用。
type Encoder struct {
	dim int
}

// NewEncoder 创建编码器；dim <= 0 时使用默认维度。
func NewEncoder(dim int) *Encoder {
	if dim <= 0 {
		dim = DefaultDimension
	}
	return &Encoder{dim: dim}
}

// Dimension 返回向量维度。
func (e *Encoder) Dimension() int { return e.dim }

// Encode 将文本编码为定长向量。
// 空文本（或只含分隔符的文本）返回零向量，这也是退化查询的
// 确定性行为：零向量照常参与距离计算，不会报错。
func (e *Encoder) Encode(text string) []float64 {
	vec := make([]float64, e.dim)

	words := tokenize(text)
	if len(words) == 0 {
		return vec
	}

	for _, w := range words {
		bucket, sign := e.hash(w)
		vec[bucket] += sign
	}

	// L2 归一化：让距离只反映方向差异，不受词数影响
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// hash 返回词的桶下标和符号（+1/-1）。
// 符号位取自哈希的高位，降低不同词落入同桶时的系统性偏置。
func (e *Encoder) hash(word string) (int, float64) {
	h := fnv.New64a()
	h.Write([]byte(word))
	sum := h.Sum64()

	bucket := int(sum % uint64(e.dim))
	sign := 1.0
	if sum>>63 == 1 {
		sign = -1.0
	}
	return bucket, sign
}

// tokenize 分词：小写化后按非字母数字字符切分。
func tokenize(text string) []string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil
	}
	return strings.FieldsFunc(text, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= '0' && r <= '9':
			return false
		default:
			return true
		}
	})
}
