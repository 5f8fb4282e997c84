package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/crm-atlas/internal/domain"
	healthsvc "github.com/ignite/crm-atlas/internal/service/health"
)

type memSource struct {
	flags []domain.HealthFlag
	cfg   domain.HealthConfig
	calls int
}

func (m *memSource) Flags(_ context.Context, _ healthsvc.FlagFilter) ([]domain.HealthFlag, error) {
	m.calls++
	return m.flags, nil
}

func (m *memSource) Config(_ context.Context) domain.HealthConfig { return m.cfg }

func flag(channel domain.Channel, status domain.HealthStatus) domain.HealthFlag {
	return domain.HealthFlag{Channel: channel, Status: status}
}

func TestChannelOverview_WorstOf(t *testing.T) {
	src := &memSource{
		cfg: domain.HealthConfig{RollupStrategy: domain.RollupWorstOf},
		flags: []domain.HealthFlag{
			flag(domain.ChannelEmail, domain.StatusGreen),
			flag(domain.ChannelEmail, domain.StatusRed),
			flag(domain.ChannelPush, domain.StatusGreen),
			flag(domain.ChannelPush, domain.StatusAmber),
			flag(domain.ChannelSMS, domain.StatusUnknown),
		},
	}

	svc := NewService(src, nil)
	out, err := svc.ChannelOverview(context.Background(), time.Now().AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("ChannelOverview() error: %v", err)
	}
	if len(out.Channels) != 3 {
		t.Fatalf("channels = %d, want 3", len(out.Channels))
	}

	// Sorted worst first.
	if out.Channels[0].Channel != domain.ChannelEmail || out.Channels[0].Status != domain.StatusRed {
		t.Errorf("first rollup = %+v, want email red", out.Channels[0])
	}
	if out.Channels[1].Channel != domain.ChannelPush || out.Channels[1].Status != domain.StatusAmber {
		t.Errorf("second rollup = %+v, want push amber", out.Channels[1])
	}
	if out.Channels[2].Status != domain.StatusUnknown {
		t.Errorf("sms with only unknown flags should roll up unknown, got %s", out.Channels[2].Status)
	}
}

func TestChannelOverview_Weighted(t *testing.T) {
	src := &memSource{
		cfg: domain.HealthConfig{RollupStrategy: domain.RollupWeighted},
		flags: []domain.HealthFlag{
			// One red among many greens stays green under weighting.
			flag(domain.ChannelEmail, domain.StatusRed),
			flag(domain.ChannelEmail, domain.StatusGreen),
			flag(domain.ChannelEmail, domain.StatusGreen),
			flag(domain.ChannelEmail, domain.StatusGreen),
			flag(domain.ChannelEmail, domain.StatusGreen),
		},
	}

	svc := NewService(src, nil)
	out, err := svc.ChannelOverview(context.Background(), time.Now().AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("ChannelOverview() error: %v", err)
	}
	if out.Channels[0].Status != domain.StatusGreen {
		t.Errorf("weighted status = %s, want green (score 0.4)", out.Channels[0].Status)
	}
	if out.Channels[0].RedCount != 1 {
		t.Errorf("red count = %d, want 1", out.Channels[0].RedCount)
	}
}

func TestChannelOverview_CachedInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	src := &memSource{
		cfg:   domain.HealthConfig{RollupStrategy: domain.RollupWorstOf},
		flags: []domain.HealthFlag{flag(domain.ChannelEmail, domain.StatusAmber)},
	}
	svc := NewService(src, redisClient)

	since := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	if _, err := svc.ChannelOverview(context.Background(), since); err != nil {
		t.Fatalf("first call error: %v", err)
	}
	out, err := svc.ChannelOverview(context.Background(), since)
	if err != nil {
		t.Fatalf("second call error: %v", err)
	}

	if src.calls != 1 {
		t.Errorf("flag source called %d times, want 1 (second read from cache)", src.calls)
	}
	if out.Channels[0].Status != domain.StatusAmber {
		t.Errorf("cached status = %s, want amber", out.Channels[0].Status)
	}

	// Cache ages out rather than being invalidated.
	mr.FastForward(2 * cacheTTL)
	if _, err := svc.ChannelOverview(context.Background(), since); err != nil {
		t.Fatalf("post-expiry call error: %v", err)
	}
	if src.calls != 2 {
		t.Errorf("flag source called %d times after expiry, want 2", src.calls)
	}
}
