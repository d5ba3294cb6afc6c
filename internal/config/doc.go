// Package config loads fotoboek's runtime configuration from environment
// variables, optionally seeded from a .env file in the working directory.
//
// Recognized variables:
//
//	MEDIA_SOURCE_PATH      root of the media library (default /media)
//	FILE_STORAGE_PATH      root of generated previews and videos (default /storage)
//	DATABASE_PATH          SQLite file (default $FILE_STORAGE_PATH/fotoboek.db)
//	NUM_WORKER_THREADS     queue workers (default 2 per CPU, at most 8)
//	TASK_LOCK_TIMEOUT_SEC  seconds before a claimed task may be claimed again (default 3600)
//	TRANSCODE_THREADS      encoder threads (default 1 per CPU, at most 16)
//	IDLE_INTERVAL          sleep when the queue is empty (default 60s)
//	PORT                   HTTP port (default 8080)
//	FFMPEG_PATH            ffmpeg binary (default "ffmpeg" on PATH)
//	LOG_LEVEL              debug, info, warn or error
//	S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY, S3_BUCKET, S3_REGION, S3_USE_SSL
//	                       optional object storage mirror
//	METRICS_INTERVAL       refresh period of the queue gauges (default 30s)
//
// MEMORY_LIMIT and MEMORY_RATIO are read separately by the memory package
// because they must take effect before the configuration is loaded.
package config
