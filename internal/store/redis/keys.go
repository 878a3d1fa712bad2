package redis

// KeyPrefixStats is the prefix for per-endpoint counter hashes.
const KeyPrefixStats = "slackrelay:stats:"

// StatsKey returns the Redis key for an endpoint's counter hash.
func StatsKey(token string) string {
	return KeyPrefixStats + token
}
