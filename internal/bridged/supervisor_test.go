package bridged

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func blockUntilDone(started chan<- string, name string) ModuleRunner {
	return ModuleRunner{Name: name, Run: func(ctx context.Context) error {
		started <- name
		<-ctx.Done()
		return ctx.Err()
	}}
}

func TestSupervisorStopsOnCancel(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	supervisor := Supervisor{Logger: zap.New(core)}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	started := make(chan string, 2)
	go func() {
		<-started
		<-started
		cancel()
	}()

	err := supervisor.Run(ctx, []ModuleRunner{blockUntilDone(started, "raumfeld"), blockUntilDone(started, "brain_bridge")})
	if err != nil {
		t.Fatalf("supervisor run: %v", err)
	}
	if n := logs.FilterMessage("module stopped").Len(); n != 2 {
		t.Fatalf("expected 2 stopped modules, got %d", n)
	}
	if logs.FilterMessage("shutdown requested").Len() != 1 {
		t.Fatalf("expected shutdown log")
	}
}

func TestSupervisorFirstErrorStopsPeers(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	supervisor := Supervisor{Logger: zap.New(core)}

	started := make(chan string, 1)
	boom := errors.New("mqtt subscribe failed")
	err := supervisor.Run(context.Background(), []ModuleRunner{
		blockUntilDone(started, "synchronizer"),
		{Name: "brain_bridge", Run: func(context.Context) error {
			<-started
			return boom
		}},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	failed := logs.FilterMessage("module exited").All()
	if len(failed) != 1 || failed[0].ContextMap()["module"] != "brain_bridge" {
		t.Fatalf("unexpected failure logs: %+v", failed)
	}
}

func TestSupervisorCleanExitKeepsOthersRunning(t *testing.T) {
	supervisor := Supervisor{Logger: zap.NewNop()}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	started := make(chan string, 1)
	err := supervisor.Run(ctx, []ModuleRunner{
		{Name: "oneshot", Run: func(context.Context) error { return nil }},
		blockUntilDone(started, "notifier"),
	})
	if err != nil {
		t.Fatalf("supervisor run: %v", err)
	}
	select {
	case <-started:
	default:
		t.Fatalf("notifier never started")
	}
}

func TestSupervisorNoModules(t *testing.T) {
	if err := (Supervisor{}).Run(context.Background(), nil); err == nil {
		t.Fatalf("expected error")
	}
}
