package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// JobNumberGenerator 工单号生成器。
// 用Redis按天自增序列，并发建单不会撞号；
// Redis不可用时退化为uuid后缀，牺牲可读性保证唯一。
type JobNumberGenerator struct {
	rdb *redis.Client
}

func NewJobNumberGenerator(rdb *redis.Client) *JobNumberGenerator {
	return &JobNumberGenerator{rdb: rdb}
}

func (g *JobNumberGenerator) Next(ctx context.Context) string {
	date := time.Now().Format("20060102")
	if g.rdb != nil {
		key := "jobcard:seq:" + date
		n, err := g.rdb.Incr(ctx, key).Result()
		if err == nil {
			g.rdb.Expire(ctx, key, 48*time.Hour)
			return fmt.Sprintf("JC-%s-%04d", date, n)
		}
	}
	return fmt.Sprintf("JC-%s-%s", date, strings.ToUpper(uuid.New().String()[:8]))
}
