package redis

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/taskline/backend/domain"
	"github.com/taskline/backend/holiday"
)

const holidayKeyPrefix = "holidays:"

// HolidayCache caches whole months of the public holiday calendar in Redis,
// keyed "holidays:YYYY-MM" as a day-number to name map. The recurrence
// engine probes the same months over and over; one Redis roundtrip answers
// a month instead of thirty lookups. Redis being down is not an error: the
// cache degrades to the wrapped lookup.
type HolidayCache struct {
	client *redislib.Client
	next   holiday.Lookup
	ttl    time.Duration
	logger *zap.Logger
}

// NewHolidayCache wraps a lookup with a Redis month cache.
func NewHolidayCache(client *redislib.Client, next holiday.Lookup, ttl time.Duration, logger *zap.Logger) *HolidayCache {
	if next == nil {
		next = holiday.None
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolidayCache{
		client: client,
		next:   next,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *HolidayCache) Lookup(date time.Time) *domain.Holiday {
	if c.client == nil {
		return c.next.Lookup(date)
	}

	day := domain.DayOf(date)
	month, err := c.monthTable(day)
	if err != nil {
		c.logger.Debug("holiday cache unavailable, falling through", zap.Error(err))
		return c.next.Lookup(date)
	}

	name, ok := month[strconv.Itoa(day.Day())]
	if !ok {
		return nil
	}
	return &domain.Holiday{Date: day, Name: name}
}

func (c *HolidayCache) monthTable(day time.Time) (map[string]string, error) {
	key := holidayKeyPrefix + day.Format("2006-01")

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	raw, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var table map[string]string
		if jsonErr := json.Unmarshal([]byte(raw), &table); jsonErr == nil {
			return table, nil
		}
		// Corrupt entry: rebuild below.
	} else if err != redislib.Nil {
		return nil, err
	}

	table := make(map[string]string)
	start := domain.MonthStart(day)
	for d := start; d.Month() == start.Month(); d = d.AddDate(0, 0, 1) {
		if h := c.next.Lookup(d); h != nil {
			table[strconv.Itoa(d.Day())] = h.Name
		}
	}

	payload, err := json.Marshal(table)
	if err != nil {
		return table, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Debug("failed to store holiday month table", zap.Error(err))
	}
	return table, nil
}

var _ holiday.Lookup = (*HolidayCache)(nil)
