// Command fotoboek runs the media pipeline.
//
// Every subcommand reads its configuration from the environment (and an
// optional .env file) and opens the same SQLite task queue, so several
// processes can work on one library:
//
//	fotoboek serve              workers, admin HTTP server and metrics
//	fotoboek scan               register new files below MEDIA_SOURCE_PATH
//	fotoboek add <path>...      register specific files
//	fotoboek tasks [--file-id]  list pending tasks in claim order
//	fotoboek work [--once]      run workers without the HTTP server
//
// # Serve lifecycle
//
//  1. GOMEMLIMIT is derived from MEMORY_LIMIT.
//  2. Configuration is loaded and the directories are checked.
//  3. The database is opened and migrated.
//  4. libvips is started and ffmpeg is probed.
//  5. Workers, the metrics collector and the HTTP server start together.
//  6. On SIGINT or SIGTERM the server drains, workers finish their current
//     task and the process exits.
package main
