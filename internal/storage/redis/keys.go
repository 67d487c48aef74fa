package redis

import (
	"fmt"

	"github.com/mcoot/conquestgame-go/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "cqgame"

// lobbyKey returns the Redis key for the global lobby
func lobbyKey() string {
	return fmt.Sprintf("%s:lobby", keyPrefix)
}

// matchKey returns the Redis key for a match snapshot
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// matchIndexKey returns the Redis key for the SET of stored match IDs
func matchIndexKey() string {
	return fmt.Sprintf("%s:idx:matches", keyPrefix)
}

// summaryKey returns the Redis key for a match summary
func summaryKey(id model.MatchID) string {
	return fmt.Sprintf("%s:summary:%s", keyPrefix, id)
}

// summaryIndexKey returns the Redis key for the ZSET of summaries scored by end time
func summaryIndexKey() string {
	return fmt.Sprintf("%s:idx:summaries", keyPrefix)
}
