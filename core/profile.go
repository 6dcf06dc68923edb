package core

import "time"

// UserProfile 是用户口味画像的核心抽象。
//
// 它不属于某个单独的处理节点，而是：
//   - 被整条推荐链路共享（个性化查询、已看过滤）
//   - 由偏好更新操作持续演进
//   - 随会话生命周期存在，会话删除时销毁
//
// 维度说明：
//
//	维度              作用
//	LikedMovies       个性化召回偏置 + 已看过滤
//	DislikedMovies    已看过滤
//	PreferredGenres   类型偏好召回补充
type UserProfile struct {
	// Name 用户昵称，可选。
	Name string `json:"name,omitempty"`

	// LikedMovies 喜欢的影片标题，追加式、去重。
	LikedMovies []string `json:"liked_movies"`

	// DislikedMovies 不喜欢的影片标题，追加式、去重。
	DislikedMovies []string `json:"disliked_movies"`

	// PreferredGenres 偏好的影片类型，追加式、去重。
	PreferredGenres []string `json:"preferred_genres"`

	// UpdateTime 最后更新时间
	UpdateTime time.Time `json:"update_time"`
}

// NewUserProfile 创建一个空画像（会话首次创建时使用）。
func NewUserProfile() *UserProfile {
	return &UserProfile{
		LikedMovies:     make([]string, 0),
		DislikedMovies:  make([]string, 0),
		PreferredGenres: make([]string, 0),
		UpdateTime:      time.Now(),
	}
}

// AddLikedMovie 追加喜欢的影片；已存在时不重复追加。
// 返回是否发生了实际写入。
func (p *UserProfile) AddLikedMovie(title string) bool {
	if title == "" {
		return false
	}
	if containsString(p.LikedMovies, title) {
		return false
	}
	p.LikedMovies = append(p.LikedMovies, title)
	p.UpdateTime = time.Now()
	return true
}

// AddDislikedMovie 追加不喜欢的影片；已存在时不重复追加。
func (p *UserProfile) AddDislikedMovie(title string) bool {
	if title == "" {
		return false
	}
	if containsString(p.DislikedMovies, title) {
		return false
	}
	p.DislikedMovies = append(p.DislikedMovies, title)
	p.UpdateTime = time.Now()
	return true
}

// AddPreferredGenre 追加偏好类型；已存在时不重复追加。
func (p *UserProfile) AddPreferredGenre(genre string) bool {
	if genre == "" {
		return false
	}
	if containsString(p.PreferredGenres, genre) {
		return false
	}
	p.PreferredGenres = append(p.PreferredGenres, genre)
	p.UpdateTime = time.Now()
	return true
}

// HasSeen 检查标题是否已在喜欢/不喜欢列表中（大小写敏感的精确匹配）。
func (p *UserProfile) HasSeen(title string) bool {
	return containsString(p.LikedMovies, title) || containsString(p.DislikedMovies, title)
}

// Clone 返回画像的深拷贝，避免调用方拿到存储内部的可变引用。
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	cp := &UserProfile{
		Name:            p.Name,
		LikedMovies:     append([]string(nil), p.LikedMovies...),
		DislikedMovies:  append([]string(nil), p.DislikedMovies...),
		PreferredGenres: append([]string(nil), p.PreferredGenres...),
		UpdateTime:      p.UpdateTime,
	}
	return cp
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
