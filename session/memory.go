// Package session 实现会话存储：键为 (user_id, session_id)，
// 保存用户画像与任意对话状态。
//
// 提供两个后端：
//   - MemoryService：进程内 map，适合测试/开发/单进程部署
//   - RedisService：go-redis 后端，适合需要跨进程共享的部署
//
// 两者都实现 core.SessionService，画像更新在同一会话键上按键互斥，
// 并发的 "I liked X" 更新不会互相覆盖。
package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/core"
)

// MemoryService 是内存实现的会话存储。
// 对外只交换副本：Get/Create/List 返回深拷贝，Update 存入深拷贝，
// 调用方拿不到存储内部的可变引用（所有变更必须显式走 Update /
// UpdateProfile，而不是改一个共享对象）。
type MemoryService struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
	keys     *keyedMutex
	logger   zerolog.Logger
}

// NewMemoryService 创建内存会话存储。
func NewMemoryService(logger zerolog.Logger) *MemoryService {
	return &MemoryService{
		sessions: make(map[string]*core.Session),
		keys:     newKeyedMutex(),
		logger:   logger,
	}
}

// Create 创建会话；键已存在时幂等返回既有记录，不重置画像。
func (m *MemoryService) Create(ctx context.Context, appName, userID, sessionID string) (*core.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := core.SessionKey(userID, sessionID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[key]; ok {
		m.logger.Debug().Str("key", key).Msg("session already exists, returning existing record")
		return cloneSession(existing), nil
	}

	sess := &core.Session{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
		Profile:   core.NewUserProfile(),
		State:     make(map[string]any),
	}
	m.sessions[key] = sess
	m.logger.Info().Str("key", key).Msg("session created")
	return cloneSession(sess), nil
}

// Get 返回会话副本；缺失时返回 core.ErrSessionNotFound。
func (m *MemoryService) Get(ctx context.Context, userID, sessionID string) (*core.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := core.SessionKey(userID, sessionID)

	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[key]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return cloneSession(sess), nil
}

// Update 以整条记录覆盖写入（last-writer-wins，无版本检查）。
func (m *MemoryService) Update(ctx context.Context, sess *core.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sess == nil {
		return core.NewDomainError(core.ModuleSession, core.ErrorCodeInvalidInput, "session: record is nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[sess.Key()] = cloneSession(sess)
	m.logger.Debug().Str("key", sess.Key()).Msg("session updated")
	return nil
}

// Delete 删除会话；键不存在时静默返回。
func (m *MemoryService) Delete(ctx context.Context, userID, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := core.SessionKey(userID, sessionID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[key]; ok {
		delete(m.sessions, key)
		m.logger.Info().Str("key", key).Msg("session deleted")
	}
	return nil
}

// List 线性扫描返回 appName 与 userID 都匹配的会话，顺序未定义。
func (m *MemoryService) List(ctx context.Context, appName, userID string) ([]*core.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*core.Session
	for _, sess := range m.sessions {
		if sess.UserID == userID && sess.AppName == appName {
			out = append(out, cloneSession(sess))
		}
	}
	m.logger.Debug().Str("user_id", userID).Int("count", len(out)).Msg("sessions listed")
	return out, nil
}

// UpdateProfile 在按键互斥下对画像做 read-modify-write：
// 将 liked/disliked 追加进画像（去重）并写回。
// 会话不存在时返回 core.ErrSessionNotFound。
func (m *MemoryService) UpdateProfile(ctx context.Context, userID, sessionID string, liked, disliked string) (*core.UserProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := core.SessionKey(userID, sessionID)

	unlock := m.keys.Lock(key)
	defer unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[key]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	if sess.Profile == nil {
		sess.Profile = core.NewUserProfile()
	}

	if liked != "" && sess.Profile.AddLikedMovie(liked) {
		m.logger.Info().Str("key", key).Str("title", liked).Msg("added liked movie to profile")
	}
	if disliked != "" && sess.Profile.AddDislikedMovie(disliked) {
		m.logger.Info().Str("key", key).Str("title", disliked).Msg("added disliked movie to profile")
	}
	return sess.Profile.Clone(), nil
}

// Close 实现 core.SessionService 接口；内存后端无资源可释放。
func (m *MemoryService) Close() error { return nil }

// cloneSession 深拷贝画像、浅拷贝状态 map 本身（值仍是共享引用，
// 约定由编排层把状态值当不可变数据使用）。
func cloneSession(s *core.Session) *core.Session {
	if s == nil {
		return nil
	}
	cp := &core.Session{
		AppName:   s.AppName,
		UserID:    s.UserID,
		SessionID: s.SessionID,
		Profile:   s.Profile.Clone(),
		State:     make(map[string]any, len(s.State)),
	}
	for k, v := range s.State {
		cp.State[k] = v
	}
	return cp
}

var _ core.SessionService = (*MemoryService)(nil)
