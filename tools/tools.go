// Package tools 暴露给编排层（语言驱动的分发器）的操作集合：
// 评分查询、关键词检索、个性化推荐、画像更新。
// 全部是 call-and-return 的结构化结果，不做流式输出。
package tools

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/catalog"
	"github.com/cinematch/cinematch/core"
	"github.com/cinematch/cinematch/engine"
)

// 未命中时的哨兵值（值语义，不是错误）。
const (
	RatingNotFound = "Not Found"
	VotesNA        = "N/A"
)

// Tools 捆绑编排层需要的全部操作。
type Tools struct {
	catalog  *catalog.Store
	engine   *engine.Engine
	sessions core.SessionService
	logger   zerolog.Logger
}

// New 创建工具集。
func New(cat *catalog.Store, eng *engine.Engine, sessions core.SessionService, logger zerolog.Logger) *Tools {
	return &Tools{
		catalog:  cat,
		engine:   eng,
		sessions: sessions,
		logger:   logger,
	}
}

// RatingResult 是评分查询结果。
type RatingResult struct {
	Title  string `json:"title"`
	Rating string `json:"rating"`
	Votes  string `json:"votes"`
}

// GetMovieRating 查询影片评分。未命中返回哨兵值，不报错。
func (t *Tools) GetMovieRating(title string) RatingResult {
	t.logger.Info().Str("title", title).Msg("tool executed: get_movie_rating")

	info, ok := t.catalog.GetRating(title)
	if !ok {
		return RatingResult{Title: title, Rating: RatingNotFound, Votes: VotesNA}
	}
	return RatingResult{Title: title, Rating: info.Rating, Votes: info.Votes}
}

// SearchResult 是关键词检索结果。
type SearchResult struct {
	Results []core.SearchResult `json:"results"`
}

// SearchMovies 按关键词检索影片信息，返回至多 5 条。
func (t *Tools) SearchMovies(query string) SearchResult {
	t.logger.Info().Str("query", query).Msg("tool executed: search_movies")
	return SearchResult{Results: t.catalog.SearchByKeywords(query, 5)}
}

// Recommendation 是单条推荐结果。
type Recommendation struct {
	Title    string  `json:"title"`
	Genre    string  `json:"genre,omitempty"`
	Plot     string  `json:"plot,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
	Distance float64 `json:"distance"`
}

// RecommendResult 是推荐操作结果。
type RecommendResult struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// RecommendMovies 基于主题查询与用户已判定列表产出个性化推荐。
func (t *Tools) RecommendMovies(ctx context.Context, baseQuery string, liked, disliked []string) (RecommendResult, error) {
	t.logger.Info().Str("base_query", baseQuery).Strs("liked", liked).Msg("tool executed: recommend_movies")

	items, err := t.engine.Recommend(ctx, baseQuery, liked, disliked)
	if err != nil {
		return RecommendResult{}, err
	}

	recs := make([]Recommendation, 0, len(items))
	for _, it := range items {
		rec := Recommendation{Title: it.Title, Distance: it.Distance}
		if v, ok := it.Meta["genre"].(string); ok {
			rec.Genre = v
		}
		if v, ok := it.Meta["plot"].(string); ok {
			rec.Plot = v
		}
		if v, ok := it.Meta["rating"].(float64); ok {
			rec.Rating = v
		}
		recs = append(recs, rec)
	}
	return RecommendResult{Recommendations: recs}, nil
}

// UpdateResult 是画像更新结果。
type UpdateResult struct {
	Status string `json:"status"`
	UserID string `json:"user_id"`
}

// UpdateUserPreferences 把喜欢/不喜欢的影片写入会话画像（去重），
// 写回走按键互斥的 read-modify-write。
func (t *Tools) UpdateUserPreferences(ctx context.Context, userID, sessionID, liked, disliked string) (UpdateResult, error) {
	t.logger.Info().Str("user_id", userID).Msg("tool executed: update_user_preferences")

	if _, err := t.sessions.UpdateProfile(ctx, userID, sessionID, liked, disliked); err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Status: "success", UserID: userID}, nil
}
