package job

import (
	"errors"
	"testing"
	"time"

	"github.com/openquant/hindsight/internal/core"
)

func TestStoreCreateAndGet(t *testing.T) {
	store := NewStore(10, time.Hour)

	j := store.Create("scan")
	if j.ID == "" {
		t.Fatal("job missing ID")
	}
	if j.Status != StatusPending {
		t.Errorf("status = %s, want %s", j.Status, StatusPending)
	}

	got, err := store.Get(j.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != j.ID {
		t.Errorf("got ID %s, want %s", got.ID, j.ID)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := NewStore(10, time.Hour)
	if _, err := store.Get("nope"); !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("err = %v, want JOB_NOT_FOUND", err)
	}
}

func TestStoreUpdate(t *testing.T) {
	store := NewStore(10, time.Hour)
	j := store.Create("scan")

	err := store.Update(j.ID, func(j *Job) {
		j.Status = StatusComplete
		j.Result = "done"
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, _ := store.Get(j.ID)
	if got.Status != StatusComplete || got.Result != "done" {
		t.Errorf("job = %+v, want complete with result", got)
	}

	if err := store.Update("nope", func(*Job) {}); !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("err = %v, want JOB_NOT_FOUND", err)
	}
}

func TestStoreEvictsOldest(t *testing.T) {
	store := NewStore(2, time.Hour)

	first := store.Create("scan")
	store.Create("scan")
	store.Create("scan") // evicts first

	if _, err := store.Get(first.ID); !errors.Is(err, core.ErrJobNotFound) {
		t.Error("oldest job should have been evicted")
	}
	if got := len(store.List()); got != 2 {
		t.Errorf("jobs = %d, want 2", got)
	}
}

func TestStorePurgesExpired(t *testing.T) {
	store := NewStore(10, time.Minute)

	old := store.Create("scan")
	store.Update(old.ID, func(j *Job) {
		j.CreatedAt = time.Now().Add(-time.Hour)
	})

	store.Create("scan") // triggers the purge

	if _, err := store.Get(old.ID); !errors.Is(err, core.ErrJobNotFound) {
		t.Error("expired job should have been purged")
	}
}
