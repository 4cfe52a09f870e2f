// Package config loads runtime configuration for the deal document CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Object store credentials are only read from the JSON file.
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like
// "250ms" or integer nanoseconds:
//
//	{
//	  "database_dsn": "postgres://app@db:5432/dealroom",
//	  "object_backend": "minio",
//	  "s3_endpoint": "localhost:9000",
//	  "s3_user": "minio",
//	  "s3_password": "minio123",
//	  "s3_bucket": "deal-documents",
//	  "deal_id": "deal123",
//	  "change_feed": "kafka",
//	  "kafka_brokers": ["localhost:9092"],
//	  "refetch_delay": "300ms"
//	}
package config
