package async

// Gather0 closes its channel after every channel in c is closed.
func Gather0(c ...<-chan struct{}) <-chan struct{} {
	return Job(func() {
		for _, f := range c {
			<-f
		}
	})
}
