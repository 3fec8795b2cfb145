package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agentfox/agentfox/internal/pkg/cache"
	"github.com/agentfox/agentfox/internal/pkg/database"
)

const (
	agentRunsKey         = "agent:counters:runs"
	paymentsProcessedKey = "payments:counters:processed"
	creditsGrantedKey    = "payments:counters:credits_granted"
)

// AddAgentRun increments the pending run counter for an agent in Redis
func AddAgentRun(agentID uint) error {
	ctx := context.Background()
	field := strconv.FormatUint(uint64(agentID), 10)
	return cache.GetClient().HIncrBy(ctx, agentRunsKey, field, 1).Err()
}

// AddPaymentProcessed increments the processed-webhook counter
func AddPaymentProcessed() error {
	ctx := context.Background()
	return cache.GetClient().Incr(ctx, paymentsProcessedKey).Err()
}

// AddCreditsGranted adds to the running total of granted credits
func AddCreditsGranted(n int64) error {
	ctx := context.Background()
	return cache.GetClient().IncrBy(ctx, creditsGrantedKey, n).Err()
}

// PaymentTotals returns the processed-event and granted-credit counters.
func PaymentTotals() (processed int64, creditsGranted int64, err error) {
	ctx := context.Background()
	rdb := cache.GetClient()
	processed, err = rdb.Get(ctx, paymentsProcessedKey).Int64()
	if err != nil && err.Error() != "redis: nil" {
		return 0, 0, err
	}
	creditsGranted, err = rdb.Get(ctx, creditsGrantedKey).Int64()
	if err != nil && err.Error() != "redis: nil" {
		return processed, 0, err
	}
	return processed, creditsGranted, nil
}

// FlushAll flushes pending agent run counters to the database
func FlushAll() error {
	return flushHashToTable(agentRunsKey, "agents", "run_count")
}

// flushHashToTable drains a Redis hash atomically and applies batched increments.
// Uses RENAME to a temporary key for atomic drain without losing in-flight increments.
func flushHashToTable(redisKey, table, column string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	// Atomically move the hash to a temp key for draining
	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	// Build batched UPDATE using CASE WHEN id THEN inc
	type pair struct {
		id  uint64
		inc int64
	}
	pairs := make([]pair, 0, len(data))
	for k, v := range data {
		id, perr := strconv.ParseUint(k, 10, 64)
		if perr != nil {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		pairs = append(pairs, pair{id: id, inc: inc})
	}
	if len(pairs) == 0 {
		return nil
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].id < pairs[j].id })

	// UPDATE agents SET <column> = <column> + CASE id WHEN ? THEN ? ... END WHERE id IN ( ... )
	var builder strings.Builder
	args := make([]interface{}, 0, len(pairs)*3)
	builder.WriteString("UPDATE ")
	builder.WriteString(table)
	builder.WriteString(" SET ")
	builder.WriteString(column)
	builder.WriteString(" = ")
	builder.WriteString(column)
	builder.WriteString(" + CASE id ")
	for _, p := range pairs {
		builder.WriteString(" WHEN ? THEN ?")
		args = append(args, p.id, p.inc)
	}
	builder.WriteString(" END WHERE id IN (")
	for i, p := range pairs {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("?")
		args = append(args, p.id)
	}
	builder.WriteString(")")

	sql := builder.String()
	db := database.GetDB()
	if err := db.Exec(sql, args...).Error; err != nil {
		return err
	}
	return nil
}
