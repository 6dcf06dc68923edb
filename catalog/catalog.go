// Package catalog 实现影片目录存储：进程启动时从 CSV 一次性加载，
// 之后只读，提供关键词检索与评分查询。
//
// 降级策略：数据文件缺失/损坏不会导致进程失败，而是降级为空目录，
// 所有下游查询对空目录返回空结果（记录 error 日志，不向调用方抛错）。
package catalog

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/core"
)

// 数据集的列名（与清洗后的 IMDb 数据保持一致）。
const (
	colTitle    = "Title"
	colGenre    = "Genre"
	colStarCast = "Star Cast"
	colDirector = "Director"
	colRating   = "IMDb Rating"
	colPlot     = "Generated_Plot"
)

// 缺失字段的占位文案。
const (
	placeholderPlot        = "No plot available."
	placeholderDescription = "No description available."
	placeholderNA          = "N/A"
)

// Store 是只读的影片目录。加载完成后不再变更，读操作无需同步。
type Store struct {
	movies  []core.Movie
	hasPlot bool
	logger  zerolog.Logger
}

// New 加载目录。加载失败时返回空目录（不返回 error），
// 由日志记录失败原因。
func New(path string, logger zerolog.Logger) *Store {
	s := &Store{logger: logger}

	f, err := os.Open(path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to load movie catalog, falling back to empty")
		return s
	}
	defer f.Close()

	if err := s.load(f); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("failed to parse movie catalog, falling back to empty")
		s.movies = nil
		s.hasPlot = false
		return s
	}

	logger.Info().Int("movies", len(s.movies)).Bool("has_plot", s.hasPlot).Msg("movie catalog loaded")
	return s
}

// NewFromReader 从 Reader 加载目录（测试用）。
func NewFromReader(r io.Reader, logger zerolog.Logger) *Store {
	s := &Store{logger: logger}
	if err := s.load(r); err != nil {
		logger.Error().Err(err).Msg("failed to parse movie catalog, falling back to empty")
		s.movies = nil
		s.hasPlot = false
	}
	return s
}

func (s *Store) load(r io.Reader) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog: dataset is empty")
	}

	// 按表头定位列，列顺序不做假设
	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[colTitle]; !ok {
		return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, "catalog: missing Title column")
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	movies := make([]core.Movie, 0, len(records)-1)
	for _, row := range records[1:] {
		m := core.Movie{
			Title:         field(row, colTitle),
			Genre:         field(row, colGenre),
			StarCast:      field(row, colStarCast),
			Director:      field(row, colDirector),
			GeneratedPlot: field(row, colPlot),
		}
		if raw := field(row, colRating); raw != "" {
			if rating, err := strconv.ParseFloat(raw, 64); err == nil {
				m.Rating = &rating
			}
		}
		if m.GeneratedPlot != "" {
			s.hasPlot = true
		}
		movies = append(movies, m)
	}

	s.movies = movies
	return nil
}

// Empty 返回目录是否为空（数据不可用时也为空）。
func (s *Store) Empty() bool { return len(s.movies) == 0 }

// Len 返回目录条目数。
func (s *Store) Len() int { return len(s.movies) }

// Movies 返回全部条目（只读，调用方不得修改）。
func (s *Store) Movies() []core.Movie { return s.movies }

// Movie 按行号返回条目；行号越界返回 nil。
func (s *Store) Movie(row int) *core.Movie {
	if row < 0 || row >= len(s.movies) {
		return nil
	}
	return &s.movies[row]
}

// HasPlotData 返回目录中是否存在任何非空的剧情文本，
// 决定 embedding 描述文本的取材方式。
func (s *Store) HasPlotData() bool { return s.hasPlot }

// SearchByKeywords 在标题/类型/演员/导演四个字段上做大小写不敏感的
// 子串匹配（字段间逻辑 OR），按目录原始顺序返回至多 topK 条结果。
// 不做相关性排序；空目录返回空结果。
// 空查询是全匹配（空子串命中所有行），返回目录前 topK 条。
func (s *Store) SearchByKeywords(query string, topK int) []core.SearchResult {
	if s.Empty() {
		s.logger.Warn().Msg("no movie data available for search")
		return []core.SearchResult{}
	}
	if topK <= 0 {
		topK = 5
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]core.SearchResult, 0, topK)
	for i := range s.movies {
		m := &s.movies[i]
		if !matchAny(q, m.Title, m.Genre, m.StarCast, m.Director) {
			continue
		}

		plot := m.GeneratedPlot
		if plot == "" {
			plot = placeholderPlot
		}
		desc := strings.TrimSpace(m.DescriptiveText(s.hasPlot))
		if desc == "" || desc == "|" {
			desc = placeholderDescription
		}
		out = append(out, core.SearchResult{
			Title:       m.Title,
			Plot:        plot,
			Description: desc,
		})
		if len(out) >= topK {
			break
		}
	}
	return out
}

// GetRating 按标题做大小写不敏感的子串匹配，返回第一条匹配的评分。
// 数据集不含票数列，Votes 恒为 "N/A"。未命中或空目录时 ok 为 false。
func (s *Store) GetRating(title string) (*core.RatingInfo, bool) {
	if s.Empty() {
		return nil, false
	}

	q := strings.ToLower(strings.TrimSpace(title))
	for i := range s.movies {
		m := &s.movies[i]
		if !strings.Contains(strings.ToLower(strings.TrimSpace(m.Title)), q) {
			continue
		}
		rating := placeholderNA
		if m.Rating != nil {
			rating = strconv.FormatFloat(*m.Rating, 'f', -1, 64)
		}
		return &core.RatingInfo{
			Title:  m.Title,
			Rating: rating,
			Votes:  placeholderNA,
		}, true
	}
	return nil, false
}

// RowsByGenre 返回类型字段包含 genre（大小写不敏感子串）的行号，
// 按目录原始顺序，至多 topK 条。用于类型偏好召回。
func (s *Store) RowsByGenre(genre string, topK int) []int {
	if s.Empty() || genre == "" {
		return nil
	}
	if topK <= 0 {
		topK = 5
	}

	g := strings.ToLower(strings.TrimSpace(genre))
	out := make([]int, 0, topK)
	for i := range s.movies {
		if strings.Contains(strings.ToLower(s.movies[i].Genre), g) {
			out = append(out, i)
			if len(out) >= topK {
				break
			}
		}
	}
	return out
}

func matchAny(q string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(strings.TrimSpace(f)), q) {
			return true
		}
	}
	return false
}
