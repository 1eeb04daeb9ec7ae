// Package async joins goroutines through channels that close when they finish.
package async

// Job runs f on its own goroutine. The returned channel is closed once f returns.
func Job(f func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()
	return done
}
