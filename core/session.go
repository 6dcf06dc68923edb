package core

import "context"

// Session 是一次对话的作用域：绑定用户与画像，并携带任意会话状态。
// 以 (UserID, SessionID) 作为唯一键；AppName 仅作为属性参与 List 过滤，
// 不参与键（与既有部署保持一致，跨应用共用 user/session id 会发生碰撞，
// 见 DESIGN.md 的 Open Question 记录）。
type Session struct {
	AppName   string `json:"app_name"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`

	// Profile 是会话持有的用户画像，创建会话时初始化为空画像。
	Profile *UserProfile `json:"profile"`

	// State 是任意对话状态（由编排层读写，本核心不解释其内容）。
	State map[string]any `json:"state"`
}

// Key 返回会话存储键。
func (s *Session) Key() string {
	return SessionKey(s.UserID, s.SessionID)
}

// SessionKey 拼接会话存储键：{user_id}:{session_id}。
func SessionKey(userID, sessionID string) string {
	return userID + ":" + sessionID
}

// SessionService 是会话存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（session）实现
//   - 会话状态通过显式参数传递，不依赖任何 ambient/global 上下文
//   - 缺失键是正常结果（ErrSessionNotFound），不是异常
//
// 实现：
//   - session.MemoryService 实现此接口（进程内，带按键互斥）
//   - session.RedisService 实现此接口（go-redis 后端）
type SessionService interface {
	// Create 创建会话；键已存在时幂等返回既有记录（不重置画像）。
	Create(ctx context.Context, appName, userID, sessionID string) (*Session, error)

	// Get 返回会话；缺失时返回 ErrSessionNotFound。
	Get(ctx context.Context, userID, sessionID string) (*Session, error)

	// Update 以整条记录覆盖写入（last-writer-wins）。
	Update(ctx context.Context, sess *Session) error

	// Delete 删除会话；键不存在时静默返回。
	Delete(ctx context.Context, userID, sessionID string) error

	// List 线性扫描返回 appName 与 userID 都匹配的会话，顺序未定义。
	List(ctx context.Context, appName, userID string) ([]*Session, error)

	// UpdateProfile 对指定会话的画像做 read-modify-write：
	// 将 liked/disliked 追加进画像（去重），并写回会话状态。
	// 同一会话键上的并发调用被按键互斥串行化。
	UpdateProfile(ctx context.Context, userID, sessionID string, liked, disliked string) (*UserProfile, error)

	// Close 释放资源（连接等）。
	Close() error
}

// ErrSessionNotFound 表示会话键不存在。
var ErrSessionNotFound = NewDomainError(ModuleSession, ErrorCodeNotFound, "session: key not found")
