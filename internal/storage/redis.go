package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	config "github.com/tokenlens/burnwatch/configs"
	"github.com/tokenlens/burnwatch/internal/common"
)

var DEFAULT_REDIS_POOL_SIZE = 20

const (
	profileKeyPrefix = "burn:profile:"
	jobKeyPrefix     = "burn:job:"
	jobIndexPrefix   = "burn:jobs:"
)

// maxProcessedBlockScript sets lastProcessedBlock only when the new value
// exceeds the stored one, keeping the field non-decreasing even with
// concurrent immediate-tier and deferred-tier writers.
var maxProcessedBlockScript = redis.NewScript(`
local cur = tonumber(redis.call('HGET', KEYS[1], 'lastProcessedBlock') or '0')
local new = tonumber(ARGV[1])
if new > cur then
  redis.call('HSET', KEYS[1], 'lastProcessedBlock', ARGV[1])
end
return 0
`)

// RedisConnector persists profiles as hashes so a merge touches only the
// fields it computed; two writers refreshing disjoint window sets cannot
// clobber each other.
type RedisConnector struct {
	client *redis.Client
	cfg    *config.RedisConfig
}

func NewRedisConnector(cfg *config.RedisConfig) (*RedisConnector, error) {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = DEFAULT_REDIS_POOL_SIZE
	}

	options := &redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: poolSize,
	}

	client := redis.NewClient(options)

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Msgf("Connected to Redis")
	return &RedisConnector{
		client: client,
		cfg:    cfg,
	}, nil
}

func (r *RedisConnector) GetProfile(ctx context.Context, tokenID string) (*common.TokenBurnProfile, error) {
	fields, err := r.client.HGetAll(ctx, profileKeyPrefix+tokenID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", tokenID, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	chainID, _ := strconv.ParseUint(fields["chainId"], 10, 64)
	profile := common.NewTokenBurnProfile(fields["contractAddress"], chainID)

	if v, ok := fields["decimals"]; ok {
		decimals, _ := strconv.ParseUint(v, 10, 8)
		profile.Decimals = uint8(decimals)
	}
	if v, ok := fields["lastProcessedBlock"]; ok {
		profile.LastProcessedBlock, _ = strconv.ParseUint(v, 10, 64)
	}
	if v, ok := fields["lastUpdated"]; ok {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil && unix > 0 {
			profile.LastUpdated = time.Unix(unix, 0).UTC()
		}
	}
	if v, ok := fields["computationTimeMs"]; ok {
		profile.ComputationTimeMs, _ = strconv.ParseInt(v, 10, 64)
	}
	for field, value := range fields {
		if w, ok := common.WindowFromStorageKey(field); ok {
			profile.Windows[w], _ = strconv.ParseFloat(value, 64)
		}
	}
	return profile, nil
}

func (r *RedisConnector) MergeProfile(ctx context.Context, tokenID string, update ProfileUpdate) error {
	key := profileKeyPrefix + tokenID

	fields := map[string]interface{}{
		"contractAddress": update.ContractAddress,
		"chainId":         strconv.FormatUint(update.ChainID, 10),
	}
	if update.Decimals != nil {
		fields["decimals"] = strconv.FormatUint(uint64(*update.Decimals), 10)
	}
	for w, amount := range update.Windows {
		fields[w.StorageKey()] = strconv.FormatFloat(amount, 'f', -1, 64)
	}
	if !update.LastUpdated.IsZero() {
		fields["lastUpdated"] = strconv.FormatInt(update.LastUpdated.Unix(), 10)
	}
	if update.ComputationTimeMs > 0 {
		fields["computationTimeMs"] = strconv.FormatInt(update.ComputationTimeMs, 10)
	}

	if err := r.client.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("failed to merge profile %s: %w", tokenID, err)
	}

	if update.LastProcessedBlock > 0 {
		err := maxProcessedBlockScript.Run(ctx, r.client, []string{key}, strconv.FormatUint(update.LastProcessedBlock, 10)).Err()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("failed to advance lastProcessedBlock for %s: %w", tokenID, err)
		}
	}
	return nil
}

func (r *RedisConnector) InsertJob(ctx context.Context, job *common.RecomputationJob) error {
	jobJson, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, jobKeyPrefix+job.ID, string(jobJson), 0).Err(); err != nil {
		return fmt.Errorf("failed to store job %s: %w", job.ID, err)
	}
	if err := r.client.LPush(ctx, jobIndexPrefix+job.TokenID, job.ID).Err(); err != nil {
		return fmt.Errorf("failed to index job %s: %w", job.ID, err)
	}
	return nil
}

func (r *RedisConnector) GetJob(ctx context.Context, jobID string) (*common.RecomputationJob, error) {
	value, err := r.client.Get(ctx, jobKeyPrefix+jobID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", jobID, err)
	}

	var job common.RecomputationJob
	if err := json.Unmarshal([]byte(value), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", jobID, err)
	}
	return &job, nil
}

func (r *RedisConnector) UpdateJob(ctx context.Context, job *common.RecomputationJob) error {
	jobJson, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, jobKeyPrefix+job.ID, string(jobJson), 0).Err(); err != nil {
		return fmt.Errorf("failed to update job %s: %w", job.ID, err)
	}
	return nil
}

func (r *RedisConnector) ListJobsByToken(ctx context.Context, tokenID string, limit, page int) ([]*common.RecomputationJob, error) {
	if limit <= 0 {
		limit = 25
	}
	if page < 0 {
		page = 0
	}
	start := int64(page * limit)
	stop := start + int64(limit) - 1

	ids, err := r.client.LRange(ctx, jobIndexPrefix+tokenID, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs for %s: %w", tokenID, err)
	}

	jobs := make([]*common.RecomputationJob, 0, len(ids))
	for _, id := range ids {
		job, err := r.GetJob(ctx, id)
		if err != nil {
			return nil, err
		}
		if job != nil {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}
