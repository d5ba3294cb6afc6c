// Package logging provides the leveled logger used throughout fotoboek.
//
// Levels are DEBUG, INFO, WARN and ERROR, plus FATAL which terminates the
// process. The active level is read once from the environment: DEBUG=true
// forces debug output, otherwise LOG_LEVEL selects the level (default info).
//
// Components that run concurrently, such as workers, use a prefixed Logger
// so their lines can be told apart:
//
//	log := logging.Named("worker-0")
//	log.Info("claimed task %d", id)
package logging
