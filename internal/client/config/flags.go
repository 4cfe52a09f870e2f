package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/dealroom/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-d string     metadata database DSN
//	-b string     object store backend: s3 or minio
//	-e string     object store endpoint
//	-deal string  deal id; empty opens the global view
//	-u string     uploader recorded on new documents
//	-s string     upload surface: panel, center or category
//	-n int        uploads in flight per category
//	-r int        refetch delay after delete (milliseconds)
//	-f string     change feed: postgres, kafka or none
//	-k string     comma-separated kafka brokers
//	-j string     orphan journal DSN (sqlite)
//	-o string     download directory
//	-t string     access token carrying the nda_accepted claim
//	-m string     address to serve /metrics on
//	-migrate      apply metadata migrations on start
//
// Only these flags are parsed; os.Args is filtered with flagx.FilterArgs.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-d", "-b", "-e", "-deal", "-u", "-s", "-n", "-r", "-f", "-k", "-j", "-o", "-t", "-m"},
		"-migrate")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "metadata database DSN")
	fs.StringVar(&cfg.ObjectBackend, "b", cfg.ObjectBackend, "object store backend (s3|minio)")
	fs.StringVar(&cfg.S3Endpoint, "e", cfg.S3Endpoint, "object store endpoint")
	fs.StringVar(&cfg.DealID, "deal", cfg.DealID, "deal id")
	fs.StringVar(&cfg.UploadedBy, "u", cfg.UploadedBy, "uploader")
	fs.StringVar(&cfg.Surface, "s", cfg.Surface, "upload surface (panel|center|category)")
	fs.IntVar(&cfg.UploadConcurrency, "n", cfg.UploadConcurrency, "uploads in flight per category")
	refetch := fs.Int("r", int(cfg.RefetchDelay.Milliseconds()), "refetch delay after delete (in milliseconds)")
	fs.StringVar(&cfg.ChangeFeed, "f", cfg.ChangeFeed, "change feed (postgres|kafka|none)")
	brokers := fs.String("k", strings.Join(cfg.KafkaBrokers, ","), "kafka brokers")
	fs.StringVar(&cfg.JournalDSN, "j", cfg.JournalDSN, "orphan journal DSN")
	fs.StringVar(&cfg.DownloadDir, "o", cfg.DownloadDir, "download directory")
	fs.StringVar(&cfg.AccessToken, "t", cfg.AccessToken, "access token")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics address")
	fs.BoolVar(&cfg.RunMigrations, "migrate", cfg.RunMigrations, "apply migrations on start")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RefetchDelay = time.Duration(*refetch) * time.Millisecond
	cfg.KafkaBrokers = splitList(*brokers)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
