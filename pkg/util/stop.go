/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package util

type (
	// StopSignal is the cooperative cancellation signal shared between a
	// plugin and the runner. The runner closes C to request a stop; the
	// plugin closes stoppedC once its run loop has returned.
	StopSignal struct {
		C        chan struct{}
		stoppedC chan struct{}
	}
)

func NewStopSignal() *StopSignal {
	return &StopSignal{
		C:        make(chan struct{}),
		stoppedC: make(chan struct{}),
	}
}

func (s *StopSignal) StopAndWait() {
	s.Stop()
	s.WaitStopped()
}

// Stop must only be call once
func (s *StopSignal) Stop() {
	close(s.C)
}

func (s *StopSignal) IsStopAsked() bool {
	select {
	case <-s.C:
		return true
	default:
		return false
	}
}

// StopDone must only be call once
func (s *StopSignal) StopDone() {
	close(s.stoppedC)
}

func (s *StopSignal) WaitStopped() {
	<-s.stoppedC
}

// Stopped returns the channel closed once the run loop has returned.
func (s *StopSignal) Stopped() <-chan struct{} {
	return s.stoppedC
}
