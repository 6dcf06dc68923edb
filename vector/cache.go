package vector

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/cinematch/cinematch/core"
)

// cacheMeta 是缓存指纹：行数 + 维度 + 编码方案。
// 与 embedding 矩阵和索引文件一起落盘，加载时校验，
// 不一致则整体重建，避免盲信过期缓存。
type cacheMeta struct {
	Rows   int    `json:"rows"`
	Dim    int    `json:"dim"`
	Scheme string `json:"scheme"`
}

// metaPath 返回 embedding 矩阵对应的指纹文件路径。
func metaPath(embeddingPath string) string {
	return embeddingPath + ".meta.json"
}

func saveMeta(path string, meta cacheMeta) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func loadMeta(path string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, core.NewDomainError(core.ModuleVector, core.ErrorCodeCacheMismatch, "vector: cache fingerprint is corrupt: "+err.Error())
	}
	return meta, nil
}

// saveMatrixCSV 按行持久化 embedding 矩阵（与目录行一一对应）。
func saveMatrixCSV(path string, matrix [][]float64) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	record := make([]string, 0, 64)
	for _, row := range matrix {
		record = record[:0]
		for _, v := range row {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// loadMatrixCSV 从磁盘加载 embedding 矩阵；文件损坏或行维度不一致时
// 返回 CACHE_MISMATCH 错误。
func loadMatrixCSV(path string, dim int) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeCacheMismatch, "vector: embedding cache is corrupt: "+err.Error())
	}

	matrix := make([][]float64, 0, len(records))
	for _, record := range records {
		if len(record) != dim {
			return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeCacheMismatch, "vector: embedding cache row dimension mismatch")
		}
		row := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeCacheMismatch, "vector: embedding cache has non-numeric value: "+err.Error())
			}
			row[i] = v
		}
		matrix = append(matrix, row)
	}
	return matrix, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
