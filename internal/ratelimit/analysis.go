package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/pulseware/platform/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyAnalysisFacility = "analysis:facility:%s"

// AnalysisLimiter throttles paid analysis submissions per facility. A nil
// limiter (rate limiting disabled) allows everything.
type AnalysisLimiter struct {
	enabled bool

	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewAnalysisLimiter(cfg config.Config) (*AnalysisLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.AnalysisRate <= 0 || limitCfg.AnalysisBurst <= 0 {
		return nil, errors.New("analysis rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &AnalysisLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.AnalysisRate,
		burst:   limitCfg.AnalysisBurst,
	}, nil
}

func (l *AnalysisLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *AnalysisLimiter) Allow(ctx context.Context, facilityID snowflake.ID) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyAnalysisFacility, facilityID.String()), l.rate, l.burst)
}
