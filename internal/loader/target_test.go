package loader

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSlotWaitResolvesOnDisplay(t *testing.T) {
	slot := NewSlot()
	slot.SetWantedURL(urlA)
	slot.DisplayPlaceholder(solidImage(1, 1))

	done := make(chan error, 1)
	go func() {
		_, err := slot.Wait(context.Background())
		done <- err
	}()

	select {
	case <-done:
		t.Fatalf("placeholder must not resolve the wait")
	case <-time.After(20 * time.Millisecond):
	}

	slot.Display(solidImage(2, 2))
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img, placeholder := slot.Image(); placeholder || img.Bounds().Dx() != 2 {
		t.Fatalf("expected displayed image")
	}
}

func TestSlotIgnoresFailuresForOtherURLs(t *testing.T) {
	slot := NewSlot()
	slot.SetWantedURL(urlY)
	slot.LoadFailed(urlX, errors.New("old failure"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := slot.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("failure of another url must not resolve, got %v", err)
	}

	boom := errors.New("boom")
	slot.LoadFailed(urlY, boom)
	if _, err := slot.Wait(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestSlotRetagResetsState(t *testing.T) {
	slot := NewSlot()
	slot.SetWantedURL(urlX)
	slot.Display(solidImage(2, 2))
	slot.SetWantedURL(urlY)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := slot.Wait(ctx); err == nil {
		t.Fatalf("retagged slot should wait for the new url")
	}
}

func TestZeroValueSlotIsUsable(t *testing.T) {
	var slot Slot
	slot.SetWantedURL(urlA)
	slot.Display(solidImage(1, 1))
	if _, err := slot.Wait(context.Background()); err != nil {
		t.Fatalf("zero value slot should work: %v", err)
	}
}
