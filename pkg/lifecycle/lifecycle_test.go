package lifecycle_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/beacon/pkg/lifecycle"
)

func TestReadiness(t *testing.T) {
	lc := lifecycle.New()
	release := make(chan struct{})
	lc.OnStartup(func() { <-release })

	if lc.Ready() {
		t.Fatal("ready while a startup hook is pending")
	}

	close(release)
	lc.WaitForStartup()
	if !lc.Ready() {
		t.Fatal("not ready after startup hooks finished")
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatal(err)
	}
	if lc.Ready() {
		t.Error("still ready after shutdown began")
	}
}

func TestHooks(t *testing.T) {
	lc := lifecycle.New()

	var started, stopped atomic.Int32
	for range 3 {
		lc.OnStartup(func() { started.Add(1) })
		lc.OnShutdown(func() {
			<-lc.Context().Done()
			stopped.Add(1)
		})
	}

	lc.WaitForStartup()
	if got := started.Load(); got != 3 {
		t.Errorf("startup hooks ran %d times, want 3", got)
	}
	if got := stopped.Load(); got != 0 {
		t.Errorf("shutdown hooks ran %d times before Shutdown", got)
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatal(err)
	}
	if got := stopped.Load(); got != 3 {
		t.Errorf("shutdown hooks ran %d times, want 3", got)
	}
	if lc.Context().Err() == nil {
		t.Error("context not cancelled after shutdown")
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Errorf("second shutdown: %v", err)
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()
	hold := make(chan struct{})
	defer close(hold)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-hold
	})
	lc.WaitForStartup()

	if err := lc.Shutdown(20 * time.Millisecond); err == nil {
		t.Error("expected a timeout while a hook is still running")
	}
}
