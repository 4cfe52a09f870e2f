package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/dealroom/internal/client/changefeed"
	"github.com/dmitrijs2005/dealroom/internal/client/config"
	"github.com/dmitrijs2005/dealroom/internal/logging"
)

func TestOpenFeed(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()

	feed, err := openFeed(cfg, logging.Nop{})
	require.NoError(t, err)
	assert.IsType(t, &changefeed.PostgresFeed{}, feed)

	cfg.ChangeFeed = "kafka"
	_, err = openFeed(cfg, logging.Nop{})
	assert.Error(t, err, "kafka without brokers")

	cfg.KafkaBrokers = []string{"localhost:9092"}
	feed, err = openFeed(cfg, logging.Nop{})
	require.NoError(t, err)
	assert.IsType(t, &changefeed.KafkaFeed{}, feed)

	cfg.ChangeFeed = "none"
	feed, err = openFeed(cfg, logging.Nop{})
	require.NoError(t, err)
	assert.Nil(t, feed)

	cfg.ChangeFeed = "rabbit"
	_, err = openFeed(cfg, logging.Nop{})
	assert.ErrorContains(t, err, "unknown change feed")
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	cfg := &config.Config{ObjectBackend: "ftp"}
	_, err := openStore(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown object backend")
}

func TestRun_RejectsBadSurface(t *testing.T) {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Surface = "sidebar"
	assert.Error(t, run(context.Background(), cfg, logging.Nop{}))
}
