package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/amirphl/simple-ta/internal/candle"
	"github.com/amirphl/simple-ta/internal/utils"
	goredis "github.com/go-redis/redis/v8"
)

// RedisConfig configures the Redis candle store.
type RedisConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int
}

// Redis keeps one sorted set per symbol, timeframe and source, scored by
// unix seconds, plus a set naming the sources seen for each series.
type Redis struct {
	client *goredis.Client
}

// NewRedis connects and pings the server.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	utils.GetLogger().Printf("Store | connected to redis at %s", cfg.Addr)
	return &Redis{client: client}, nil
}

func (r *Redis) Client() *goredis.Client { return r.client }

func (r *Redis) Close() error { return r.client.Close() }

func redisSeriesKey(symbol, timeframe, source string) string {
	return "candles:" + symbol + ":" + timeframe + ":" + source
}

func redisSourcesKey(symbol, timeframe string) string {
	return "candles:" + symbol + ":" + timeframe + ":sources"
}

func score(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// SaveCandles replaces any candle with the same key and adds the rest.
func (r *Redis) SaveCandles(ctx context.Context, candles []candle.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	if err := validateAll(candles); err != nil {
		return err
	}

	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, c := range candles {
			c.Timestamp = c.Timestamp.UTC()
			member, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("encoding candle %s %s at %s: %w", c.Symbol, c.Timeframe, c.Timestamp, err)
			}
			key := redisSeriesKey(c.Symbol, c.Timeframe, c.Source)
			ts := score(c.Timestamp)
			pipe.ZRemRangeByScore(ctx, key, ts, ts)
			pipe.ZAdd(ctx, key, &goredis.Z{Score: float64(c.Timestamp.Unix()), Member: member})
			pipe.SAdd(ctx, redisSourcesKey(c.Symbol, c.Timeframe), c.Source)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save candles: %w", err)
	}
	return nil
}

func (r *Redis) sources(ctx context.Context, symbol, timeframe, source string) ([]string, error) {
	if source != "" {
		return []string{source}, nil
	}
	sources, err := r.client.SMembers(ctx, redisSourcesKey(symbol, timeframe)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list sources: %w", err)
	}
	sort.Strings(sources)
	return sources, nil
}

func decodeMembers(members []string) ([]candle.Candle, error) {
	out := make([]candle.Candle, 0, len(members))
	for _, m := range members {
		var c candle.Candle
		if err := json.Unmarshal([]byte(m), &c); err != nil {
			return nil, fmt.Errorf("redis decode candle: %w", err)
		}
		c.Timestamp = c.Timestamp.UTC()
		out = append(out, c)
	}
	return out, nil
}

// GetCandles retrieves candles in [start, end) ordered by timestamp.
func (r *Redis) GetCandles(ctx context.Context, symbol, timeframe, source string, start, end time.Time) ([]candle.Candle, error) {
	sources, err := r.sources(ctx, symbol, timeframe, source)
	if err != nil {
		return nil, err
	}

	var out []candle.Candle
	for _, src := range sources {
		members, err := r.client.ZRangeByScore(ctx, redisSeriesKey(symbol, timeframe, src), &goredis.ZRangeBy{
			Min: score(start),
			Max: "(" + score(end),
		}).Result()
		if err != nil {
			return nil, fmt.Errorf("redis range candles: %w", err)
		}
		candles, err := decodeMembers(members)
		if err != nil {
			return nil, err
		}
		out = append(out, candles...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (r *Redis) GetLatestCandle(ctx context.Context, symbol, timeframe string) (*candle.Candle, error) {
	sources, err := r.sources(ctx, symbol, timeframe, "")
	if err != nil {
		return nil, err
	}

	var latest *candle.Candle
	for _, src := range sources {
		members, err := r.client.ZRevRange(ctx, redisSeriesKey(symbol, timeframe, src), 0, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("redis latest candle: %w", err)
		}
		candles, err := decodeMembers(members)
		if err != nil {
			return nil, err
		}
		if len(candles) == 1 && (latest == nil || candles[0].Timestamp.After(latest.Timestamp)) {
			latest = &candles[0]
		}
	}
	return latest, nil
}

func (r *Redis) GetCandleCount(ctx context.Context, symbol, timeframe string, start, end time.Time) (int, error) {
	sources, err := r.sources(ctx, symbol, timeframe, "")
	if err != nil {
		return 0, err
	}
	total := 0
	for _, src := range sources {
		n, err := r.client.ZCount(ctx, redisSeriesKey(symbol, timeframe, src), score(start), "("+score(end)).Result()
		if err != nil {
			return 0, fmt.Errorf("redis count candles: %w", err)
		}
		total += int(n)
	}
	return total, nil
}

func (r *Redis) DeleteCandles(ctx context.Context, symbol, timeframe string, before time.Time) error {
	sources, err := r.sources(ctx, symbol, timeframe, "")
	if err != nil {
		return err
	}
	for _, src := range sources {
		if err := r.client.ZRemRangeByScore(ctx, redisSeriesKey(symbol, timeframe, src), "-inf", "("+score(before)).Err(); err != nil {
			return fmt.Errorf("redis delete candles: %w", err)
		}
	}
	return nil
}
