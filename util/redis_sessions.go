package util

import (
	"context"
	"fmt"

	"github.com/clinicconnect/clinic-api/config"
	"github.com/redis/go-redis/v9"
)

// AddSessionToStaffSet adds the session token to the per-staff Redis set.
// The set has no TTL and persists until explicitly cleaned up via
// RemoveSessionTokenFromStaffSet or InvalidateStaffSessions.
func AddSessionToStaffSet(staffID uint, token string) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	ctx := context.Background()
	staffSetKey := fmt.Sprintf("staff_sessions:%d", staffID)
	if err := rdb.SAdd(ctx, staffSetKey, token).Err(); err != nil {
		return err
	}
	// Use PERSIST to ensure the set has no TTL and relies on explicit cleanup
	return rdb.Persist(ctx, staffSetKey).Err()
}

// removeSessionScript atomically removes a token from the per-staff set and
// deletes the set once it becomes empty.
const removeSessionScript = `
	local removed = redis.call('SREM', KEYS[1], ARGV[1])
	if removed > 0 then
		local count = redis.call('SCARD', KEYS[1])
		if count == 0 then
			redis.call('DEL', KEYS[1])
		end
	end
	return removed
`

// RemoveSessionTokenFromStaffSet removes a single session token from the per-staff set.
// If the set becomes empty after removal, it is deleted.
func RemoveSessionTokenFromStaffSet(staffID uint, token string) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	ctx := context.Background()
	staffSetKey := fmt.Sprintf("staff_sessions:%d", staffID)
	return rdb.Eval(ctx, removeSessionScript, []string{staffSetKey}, token).Err()
}

// InvalidateStaffSessions deletes all session:<token> keys for the given staff
// account and removes the per-staff set. Best-effort: it will return an error
// if Redis calls fail, but callers may choose to ignore it.
func InvalidateStaffSessions(staffID uint) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	ctx := context.Background()
	staffSetKey := fmt.Sprintf("staff_sessions:%d", staffID)
	members, err := rdb.SMembers(ctx, staffSetKey).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	for _, tok := range members {
		_ = rdb.Del(ctx, fmt.Sprintf("session:%s", tok)).Err()
	}
	return rdb.Del(ctx, staffSetKey).Err()
}
