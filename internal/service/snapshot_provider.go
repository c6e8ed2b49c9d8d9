package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"examforge_backend/internal/model"
	"examforge_backend/internal/util"
	"examforge_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const snapshotKeyPrefix = "examforge:snapshot:"

// VersionStore 读取版本行，由 repository.ExamRepository 实现。
type VersionStore interface {
	GetVersion(versionID uint) (*model.ExamVersion, error)
}

// CachedSnapshotProvider 在版本行前面加一层 Redis 缓存。
// 版本内容不可变，TTL 只是为了控制缓存占用，不存在一致性问题。
type CachedSnapshotProvider struct {
	Versions VersionStore
	Redis    *redis.Client
	TTL      time.Duration
}

func NewCachedSnapshotProvider(versions VersionStore, rdb *redis.Client) *CachedSnapshotProvider {
	return &CachedSnapshotProvider{
		Versions: versions,
		Redis:    rdb,
		TTL:      24 * time.Hour,
	}
}

func (p *CachedSnapshotProvider) Snapshot(versionID uint) (*model.ExamSnapshot, error) {
	ctx := context.Background()
	key := fmt.Sprintf("%s%d", snapshotKeyPrefix, versionID)

	if p.Redis != nil {
		val, err := p.Redis.Get(ctx, key).Result()
		if err == nil {
			var snap model.ExamSnapshot
			if err := json.Unmarshal([]byte(val), &snap); err == nil {
				return &snap, nil
			}
			// 缓存内容损坏，回源并覆盖
			logger.Log.Warn("corrupt snapshot cache entry", zap.Uint("versionId", versionID))
		} else if err != redis.Nil {
			logger.Log.Warn("snapshot cache read failed", zap.Error(err))
		}
	}

	version, err := p.Versions.GetVersion(versionID)
	if err != nil {
		return nil, err
	}

	var snap model.ExamSnapshot
	if err := json.Unmarshal([]byte(version.Content), &snap); err != nil {
		return nil, util.InternalErr(fmt.Errorf("parse snapshot for version %d: %w", versionID, err))
	}
	snap.VersionID = version.ID
	snap.ExamID = version.ExamID

	if p.Redis != nil {
		// 缓存带上 examId/versionId 的完整结构，命中时无需再补
		cached, _ := json.Marshal(&snap)
		if err := p.Redis.Set(ctx, key, cached, p.TTL).Err(); err != nil {
			logger.Log.Warn("snapshot cache write failed", zap.Error(err))
		}
	}
	return &snap, nil
}
