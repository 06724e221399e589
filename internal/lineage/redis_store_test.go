package lineage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/spreadlab/claimtrace/internal/quota"
)

func startRedis(t *testing.T, ctx context.Context) (testcontainers.Container, *redis.Client) {
	t.Helper()
	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithOccurrence(1).WithStartupTimeout(60 * time.Second),
	}
	rc, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("failed to start redis: %v", err)
	}
	port, err := rc.MappedPort(ctx, "6379")
	if err != nil {
		_ = rc.Terminate(ctx)
		t.Fatalf("failed to get mapped port: %v", err)
	}
	host, err := rc.Host(ctx)
	if err != nil {
		_ = rc.Terminate(ctx)
		t.Fatalf("failed to get host: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = rc.Terminate(ctx)
		t.Fatalf("failed to ping redis: %v", err)
	}
	return rc, client
}

func TestRedisStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()
	rc, client := startRedis(t, ctx)
	defer func() { _ = rc.Terminate(ctx) }()

	s := NewRedisStore(client)
	primary, secondaries := sampleLineage()

	if err := s.SaveLineage(ctx, primary, secondaries); err != nil {
		t.Fatalf("SaveLineage: %v", err)
	}

	got, err := s.GetPrimary(ctx, primary.ID)
	if err != nil {
		t.Fatalf("GetPrimary: %v", err)
	}
	if got.Text != primary.Text || got.Origin != primary.Origin {
		t.Errorf("primary mismatch: %+v", got)
	}

	list, err := s.ListSecondaries(ctx, primary.ID)
	if err != nil {
		t.Fatalf("ListSecondaries: %v", err)
	}
	if len(list) != len(secondaries) {
		t.Fatalf("got %d secondaries, want %d", len(list), len(secondaries))
	}
	for i := range list {
		if list[i].ID != secondaries[i].ID {
			t.Errorf("secondary %d is %q, want %q", i, list[i].ID, secondaries[i].ID)
		}
	}

	if _, err := s.GetPrimary(ctx, "no-such-claim"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	ttl, err := client.TTL(ctx, "claim:"+primary.ID).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 {
		t.Errorf("primary key has no expiry, ttl %v", ttl)
	}
}

func TestRedisQuotaIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()
	rc, client := startRedis(t, ctx)
	defer func() { _ = rc.Terminate(ctx) }()

	s := quota.NewRedisStore(client, 3, "")
	for i := 0; i < 3; i++ {
		ok, err := s.CheckAndConsume(ctx, "alice")
		if err != nil {
			t.Fatalf("CheckAndConsume: %v", err)
		}
		if !ok {
			t.Fatalf("call %d denied with budget remaining", i+1)
		}
	}
	ok, err := s.CheckAndConsume(ctx, "alice")
	if err != nil {
		t.Fatalf("CheckAndConsume: %v", err)
	}
	if ok {
		t.Fatal("call past the limit was granted")
	}

	remaining, err := s.Remaining(ctx, "alice")
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if remaining != 0 {
		t.Errorf("remaining %d, want 0", remaining)
	}

	fresh, err := s.Remaining(ctx, "bob")
	if err != nil {
		t.Fatalf("Remaining: %v", err)
	}
	if fresh != 3 {
		t.Errorf("untouched user remaining %d, want 3", fresh)
	}

	ttl, err := client.TTL(ctx, "quota:alice").Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > 24*time.Hour {
		t.Errorf("quota key ttl %v, want within the daily window", ttl)
	}
}
