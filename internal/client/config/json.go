package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/dealroom/internal/flagx"
	"github.com/dmitrijs2005/dealroom/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// zero-value fields that are absent from the file leave Config untouched.
type JsonConfig struct {
	DatabaseDSN   string `json:"database_dsn"`
	RunMigrations *bool  `json:"run_migrations"`

	ObjectBackend string `json:"object_backend"`
	S3User        string `json:"s3_user"`
	S3Password    string `json:"s3_password"`
	S3Bucket      string `json:"s3_bucket"`
	S3Region      string `json:"s3_region"`
	S3Endpoint    string `json:"s3_endpoint"`
	MinioUseSSL   *bool  `json:"minio_use_ssl"`

	DealID            string          `json:"deal_id"`
	UploadedBy        string          `json:"uploaded_by"`
	Surface           string          `json:"surface"`
	UploadConcurrency int             `json:"upload_concurrency"`
	RefetchDelay      *timex.Duration `json:"refetch_delay"`

	ChangeFeed    string   `json:"change_feed"`
	NotifyChannel string   `json:"notify_channel"`
	KafkaBrokers  []string `json:"kafka_brokers"`
	KafkaTopic    string   `json:"kafka_topic"`
	KafkaGroupID  string   `json:"kafka_group_id"`

	JournalDSN  string `json:"journal_dsn"`
	DownloadDir string `json:"download_dir"`
	AccessToken string `json:"access_token"`
	MetricsAddr string `json:"metrics_addr"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag it does nothing. Read or unmarshal
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.ObjectBackend, jc.ObjectBackend)
	setString(&cfg.S3User, jc.S3User)
	setString(&cfg.S3Password, jc.S3Password)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.DealID, jc.DealID)
	setString(&cfg.UploadedBy, jc.UploadedBy)
	setString(&cfg.Surface, jc.Surface)
	setString(&cfg.ChangeFeed, jc.ChangeFeed)
	setString(&cfg.NotifyChannel, jc.NotifyChannel)
	setString(&cfg.KafkaTopic, jc.KafkaTopic)
	setString(&cfg.KafkaGroupID, jc.KafkaGroupID)
	setString(&cfg.JournalDSN, jc.JournalDSN)
	setString(&cfg.DownloadDir, jc.DownloadDir)
	setString(&cfg.AccessToken, jc.AccessToken)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)

	if jc.RunMigrations != nil {
		cfg.RunMigrations = *jc.RunMigrations
	}
	if jc.MinioUseSSL != nil {
		cfg.MinioUseSSL = *jc.MinioUseSSL
	}
	if jc.UploadConcurrency > 0 {
		cfg.UploadConcurrency = jc.UploadConcurrency
	}
	if jc.RefetchDelay != nil {
		cfg.RefetchDelay = time.Duration(jc.RefetchDelay.Duration)
	}
	if len(jc.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = jc.KafkaBrokers
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
