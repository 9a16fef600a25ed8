package main

// session runs the shell from humacli's OnStart hook and lets OnStop wait
// until shutdown, cleanup included, has finished.
type session struct {
	run     func() error // blocks until the app has quit
	quit    func()
	cleanup []func()
	exit    func(code int)

	finished chan struct{}
}

func newSession(run func() error, quit func(), exit func(code int)) *session {
	return &session{
		run:      run,
		quit:     quit,
		exit:     exit,
		finished: make(chan struct{}),
	}
}

// onCleanup registers fn to run after the app has quit, in order.
func (s *session) onCleanup(fn func()) {
	s.cleanup = append(s.cleanup, fn)
}

// start runs the app, then the cleanup functions, and exits with status 1
// if the app did not shut down cleanly.
func (s *session) start() {
	defer close(s.finished)

	err := s.run()
	for _, fn := range s.cleanup {
		fn()
	}
	if err != nil {
		s.exit(1)
	}
}

// stop asks the app to quit and waits for start to finish.
func (s *session) stop() {
	s.quit()
	<-s.finished
}
