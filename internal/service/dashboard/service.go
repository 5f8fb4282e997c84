package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/crm-atlas/internal/domain"
	healthsvc "github.com/ignite/crm-atlas/internal/service/health"
)

// FlagSource supplies persisted flags and the active evaluation config.
// *health.Service satisfies it.
type FlagSource interface {
	Flags(ctx context.Context, f healthsvc.FlagFilter) ([]domain.HealthFlag, error)
	Config(ctx context.Context) domain.HealthConfig
}

// ChannelRollup is one channel's aggregate position.
type ChannelRollup struct {
	Channel    domain.Channel      `json:"channel"`
	Status     domain.HealthStatus `json:"status"`
	RedCount   int                 `json:"red_count"`
	AmberCount int                 `json:"amber_count"`
	GreenCount int                 `json:"green_count"`
	Unknown    int                 `json:"unknown_count"`
}

// Overview is the dashboard payload.
type Overview struct {
	Since    time.Time       `json:"since"`
	Strategy string          `json:"strategy"`
	Channels []ChannelRollup `json:"channels"`
}

const cacheTTL = 60 * time.Second

// Service computes channel rollups with a Redis cache in front.
type Service struct {
	source FlagSource
	redis  *redis.Client
}

// NewService creates a dashboard service. redisClient may be nil; rollups are
// then computed on every call.
func NewService(source FlagSource, redisClient *redis.Client) *Service {
	return &Service{source: source, redis: redisClient}
}

// ChannelOverview returns per-channel rollups over flags since the given
// date, using the configured rollup strategy.
func (s *Service) ChannelOverview(ctx context.Context, since time.Time) (*Overview, error) {
	cacheKey := fmt.Sprintf("dashboard:channels:%s", since.Format("2006-01-02"))

	if s.redis != nil {
		data, err := s.redis.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var cached Overview
			if json.Unmarshal(data, &cached) == nil {
				return &cached, nil
			}
		}
	}

	cfg := s.source.Config(ctx)
	flags, err := s.source.Flags(ctx, healthsvc.FlagFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("load flags: %w", err)
	}

	overview := &Overview{
		Since:    since,
		Strategy: string(cfg.RollupStrategy),
		Channels: rollup(flags, cfg.RollupStrategy),
	}

	if s.redis != nil {
		data, _ := json.Marshal(overview)
		if err := s.redis.Set(ctx, cacheKey, data, cacheTTL).Err(); err != nil {
			log.Printf("[dashboard.Service] cache write failed: %v", err)
		}
	}
	return overview, nil
}

func rollup(flags []domain.HealthFlag, strategy domain.RollupStrategy) []ChannelRollup {
	byChannel := make(map[domain.Channel]*ChannelRollup)
	for _, f := range flags {
		r, ok := byChannel[f.Channel]
		if !ok {
			r = &ChannelRollup{Channel: f.Channel}
			byChannel[f.Channel] = r
		}
		switch f.Status {
		case domain.StatusRed:
			r.RedCount++
		case domain.StatusAmber:
			r.AmberCount++
		case domain.StatusGreen:
			r.GreenCount++
		default:
			r.Unknown++
		}
	}

	out := make([]ChannelRollup, 0, len(byChannel))
	for _, r := range byChannel {
		r.Status = channelStatus(r, strategy)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status.Rank() != out[j].Status.Rank() {
			return out[i].Status.Rank() > out[j].Status.Rank()
		}
		return out[i].Channel < out[j].Channel
	})
	return out
}

func channelStatus(r *ChannelRollup, strategy domain.RollupStrategy) domain.HealthStatus {
	known := r.RedCount + r.AmberCount + r.GreenCount
	if known == 0 {
		return domain.StatusUnknown
	}

	if strategy == domain.RollupWeighted {
		// Severity-weighted average: red=2, amber=1, green=0. A channel
		// goes red at an average of 1.0 and amber at 0.5.
		score := float64(2*r.RedCount+r.AmberCount) / float64(known)
		switch {
		case score >= 1.0:
			return domain.StatusRed
		case score >= 0.5:
			return domain.StatusAmber
		}
		return domain.StatusGreen
	}

	// worst_of
	switch {
	case r.RedCount > 0:
		return domain.StatusRed
	case r.AmberCount > 0:
		return domain.StatusAmber
	}
	return domain.StatusGreen
}
