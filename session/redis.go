package session

import (
	"context"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cinematch/cinematch/core"
)

// redisKeyPrefix 是会话键的命名空间前缀，实际键为 session:{user}:{id}。
const redisKeyPrefix = "session:"

// RedisService 是 Redis 实现的会话存储，记录以 JSON 编码。
// 画像的 read-modify-write 通过进程内按键互斥串行化；
// 多实例部署下该互斥只覆盖单进程，跨实例仍是 last-writer-wins。
type RedisService struct {
	client *redis.Client
	keys   *keyedMutex
	logger zerolog.Logger
}

// NewRedisService 创建 Redis 会话存储并验证连通性。
func NewRedisService(addr string, db int, logger zerolog.Logger) (*RedisService, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisService{
		client: client,
		keys:   newKeyedMutex(),
		logger: logger,
	}, nil
}

func redisKey(userID, sessionID string) string {
	return redisKeyPrefix + core.SessionKey(userID, sessionID)
}

// Create 创建会话；键已存在时幂等返回既有记录。
// 用 SETNX 保证并发创建时只有一个初始画像落盘。
func (r *RedisService) Create(ctx context.Context, appName, userID, sessionID string) (*core.Session, error) {
	key := redisKey(userID, sessionID)

	if existing, err := r.get(ctx, key); err == nil {
		return existing, nil
	} else if !core.IsNotFound(err) {
		return nil, err
	}

	sess := &core.Session{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
		Profile:   core.NewUserProfile(),
		State:     make(map[string]any),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}

	created, err := r.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return nil, err
	}
	if !created {
		// 并发创建竞争失败：读回胜者的记录
		return r.get(ctx, key)
	}
	r.logger.Info().Str("key", key).Msg("session created")
	return sess, nil
}

// Get 返回会话；缺失时返回 core.ErrSessionNotFound。
func (r *RedisService) Get(ctx context.Context, userID, sessionID string) (*core.Session, error) {
	return r.get(ctx, redisKey(userID, sessionID))
}

func (r *RedisService) get(ctx context.Context, key string) (*core.Session, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	var sess core.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Update 以整条记录覆盖写入（last-writer-wins）。
func (r *RedisService) Update(ctx context.Context, sess *core.Session) error {
	if sess == nil {
		return core.NewDomainError(core.ModuleSession, core.ErrorCodeInvalidInput, "session: record is nil")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+sess.Key(), data, 0).Err()
}

// Delete 删除会话；键不存在时 DEL 本身就是静默 no-op。
func (r *RedisService) Delete(ctx context.Context, userID, sessionID string) error {
	return r.client.Del(ctx, redisKey(userID, sessionID)).Err()
}

// List 按 user 前缀 SCAN 后按 AppName 过滤，顺序未定义。
func (r *RedisService) List(ctx context.Context, appName, userID string) ([]*core.Session, error) {
	pattern := redisKeyPrefix + userID + ":*"

	var out []*core.Session
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		sess, err := r.get(ctx, iter.Val())
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if sess.AppName == appName && sess.UserID == userID {
			out = append(out, sess)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProfile 在按键互斥下做 get-modify-set。
func (r *RedisService) UpdateProfile(ctx context.Context, userID, sessionID string, liked, disliked string) (*core.UserProfile, error) {
	key := core.SessionKey(userID, sessionID)

	unlock := r.keys.Lock(key)
	defer unlock()

	sess, err := r.get(ctx, redisKeyPrefix+key)
	if err != nil {
		return nil, err
	}
	if sess.Profile == nil {
		sess.Profile = core.NewUserProfile()
	}

	changed := false
	if liked != "" && sess.Profile.AddLikedMovie(liked) {
		changed = true
		r.logger.Info().Str("key", key).Str("title", liked).Msg("added liked movie to profile")
	}
	if disliked != "" && sess.Profile.AddDislikedMovie(disliked) {
		changed = true
		r.logger.Info().Str("key", key).Str("title", disliked).Msg("added disliked movie to profile")
	}

	if changed {
		if err := r.Update(ctx, sess); err != nil {
			return nil, err
		}
	}
	return sess.Profile.Clone(), nil
}

// Close 关闭 Redis 连接。
func (r *RedisService) Close() error {
	return r.client.Close()
}

var _ core.SessionService = (*RedisService)(nil)
