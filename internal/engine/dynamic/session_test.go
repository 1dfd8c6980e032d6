package dynamic

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/law-makers/listings/internal/engine"
)

func TestOpen_MissingExecutable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no-such-chrome")

	s, err := Open(context.Background(), Options{ChromePath: missing, LaunchTimeout: time.Second})
	if err == nil {
		s.Close()
		t.Fatal("Expected launch error for missing executable")
	}
	if !errors.Is(err, engine.ErrLaunch) {
		t.Errorf("Expected LAUNCH error, got %v", err)
	}
	if !errors.Is(err, engine.ErrBrowserNotFound) {
		t.Errorf("Expected underlying ErrBrowserNotFound, got %v", err)
	}
}

func TestResolveChrome_ExplicitDirectory(t *testing.T) {
	if _, err := ResolveChrome(t.TempDir()); err == nil {
		t.Error("Expected a directory to be rejected as browser executable")
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{NavTimeout: 10 * time.Second, WaitTimeout: time.Minute}.withDefaults()

	if o.LaunchTimeout != 30*time.Second {
		t.Errorf("Expected default launch timeout 30s, got %s", o.LaunchTimeout)
	}
	if o.WaitTimeout != 5*time.Second {
		t.Errorf("Expected wait timeout clamped to half the navigation timeout, got %s", o.WaitTimeout)
	}
}
