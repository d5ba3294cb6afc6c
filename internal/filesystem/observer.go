package filesystem

// Observer records retry metrics for NFS resilience. The metrics package
// provides the implementation so that filesystem does not import it.
type Observer interface {
	ObserveRetryAttempt(op, volume string)
	ObserveRetrySuccess(op, volume string)
	ObserveRetryFailure(op, volume string)
	ObserveStaleError(op, volume string)
}

type nopObserver struct{}

func (nopObserver) ObserveRetryAttempt(string, string) {}
func (nopObserver) ObserveRetrySuccess(string, string) {}
func (nopObserver) ObserveRetryFailure(string, string) {}
func (nopObserver) ObserveStaleError(string, string)   {}

var defaultObserver Observer = nopObserver{}

// SetObserver sets the package-level metrics observer. Passing nil restores
// the no-op observer.
func SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	defaultObserver = o
}
