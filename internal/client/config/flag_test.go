package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{"cmd", "-d", "postgres://db/x", "-b", "minio", "-e", "localhost:9000", "-deal", "deal123",
				"-u", "alice", "-s", "center", "-n", "5", "-r", "400", "-f", "kafka", "-k", "a:9092, b:9092",
				"-j", "file:j.db", "-o", "/tmp/dl", "-t", "tok", "-m", ":9100", "-migrate"},
			expected: &Config{
				DatabaseDSN: "postgres://db/x", ObjectBackend: "minio", S3Endpoint: "localhost:9000",
				DealID: "deal123", UploadedBy: "alice", Surface: "center", UploadConcurrency: 5,
				RefetchDelay: 400 * time.Millisecond, ChangeFeed: "kafka", KafkaBrokers: []string{"a:9092", "b:9092"},
				JournalDSN: "file:j.db", DownloadDir: "/tmp/dl", AccessToken: "tok", MetricsAddr: ":9100",
				RunMigrations: true,
			},
		},
		{
			name:     "bool flag does not swallow next flag",
			args:     []string{"cmd", "-migrate", "-deal", "d1", "-x", "ignored"},
			expected: &Config{DealID: "d1", RunMigrations: true},
		},
		{name: "incorrect concurrency", args: []string{"cmd", "-n", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			origArgs := os.Args
			t.Cleanup(func() { os.Args = origArgs })
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,,b"))
}
