package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeService struct {
	name     string
	startErr error
	blocking bool

	mu      sync.Mutex
	stopped bool
	order   *[]string
}

func (f *fakeService) Name() string { return f.name }

func (f *fakeService) Start(ctx context.Context) error {
	if !f.blocking {
		return f.startErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeService) Stop(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	if f.order != nil {
		*f.order = append(*f.order, "stop:"+f.name)
	}
	return nil
}

func TestParseMode(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: ModeAll},
		{in: " API ", want: ModeAPI},
		{in: "worker", want: ModeWorker},
		{in: "cron", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("mode %q should fail", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("mode %q want %q got %q err=%v", tc.in, tc.want, got, err)
		}
	}
}

func TestRunnerStopsAllWhenOneServiceFails(t *testing.T) {
	var order []string
	failing := &fakeService{name: "worker", startErr: errors.New("redis down"), order: &order}
	blocking := &fakeService{name: "http", blocking: true, order: &order}

	runner := NewRunner(blocking, failing)
	runner.OnShutdown("database", func() error {
		order = append(order, "close:database")
		return nil
	})
	runner.OnShutdown("redis", func() error {
		order = append(order, "close:redis")
		return errors.New("already closed")
	})

	err := runner.Run(t.Context(), time.Second, nil)
	if err == nil || err.Error() != "redis down" {
		t.Fatalf("expected worker error, got %v", err)
	}
	if !blocking.stopped || !failing.stopped {
		t.Fatalf("all services should be stopped")
	}
	want := []string{"stop:http", "stop:worker", "close:redis", "close:database"}
	if len(order) != len(want) {
		t.Fatalf("unexpected shutdown order: %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("unexpected shutdown order: %v", order)
		}
	}
}

func TestRunnerReturnsNilOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	svc := &fakeService{name: "http", blocking: true}
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	if err := NewRunner(svc).Run(ctx, time.Second, nil); err != nil {
		t.Fatalf("cancel should exit cleanly, got %v", err)
	}
	if !svc.stopped {
		t.Fatalf("service should be stopped")
	}
}

func TestRunnerRejectsEmpty(t *testing.T) {
	if err := NewRunner().Run(t.Context(), time.Second, nil); err == nil {
		t.Fatalf("expected error for empty runner")
	}
	if err := RunWithOptions(nil, Options{}); err == nil {
		t.Fatalf("expected error for nil runner")
	}
}
