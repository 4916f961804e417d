package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-timetable-api/pkg/config"
)

func TestOptionsSingleNode(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "cache", Port: 6380, Password: "pw", DB: 2})
	assert.Equal(t, []string{"cache:6380"}, opts.Addrs)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Empty(t, opts.MasterName)
}

func TestOptionsPreferExplicitAddrs(t *testing.T) {
	opts := Options(config.RedisConfig{
		Host:       "ignored",
		Port:       6379,
		Addrs:      []string{"s1:26379", "s2:26379"},
		MasterName: "timetable",
	})
	assert.Equal(t, []string{"s1:26379", "s2:26379"}, opts.Addrs)
	assert.Equal(t, "timetable", opts.MasterName)
}
