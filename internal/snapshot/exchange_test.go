package snapshot_test

import (
	"sync"
	"testing"

	"github.com/annelo/go-nameplates/internal/snapshot"
)

func makeSnapshot(frame uint32, n int) snapshot.Snapshot {
	records := make([]snapshot.EntityRecord, n)
	for i := range records {
		records[i] = snapshot.EntityRecord{ID: uint32(i + 1), Name: "npc", Distance: float64(frame)}
	}
	return snapshot.Snapshot{Frame: frame, Records: records}
}

func TestExchange_EmptyUntilPublished(t *testing.T) {
	ex := snapshot.NewExchange()
	if _, ok := ex.Read(); ok {
		t.Fatalf("fresh exchange must report no data")
	}
}

func TestExchange_PublishAndRead(t *testing.T) {
	ex := snapshot.NewExchange()
	ex.Publish(makeSnapshot(7, 3))

	got, ok := ex.Read()
	if !ok {
		t.Fatalf("published snapshot must be readable")
	}
	if got.Frame != 7 || got.Len() != 3 {
		t.Fatalf("read snapshot frame=%d len=%d, want frame=7 len=3", got.Frame, got.Len())
	}
}

func TestExchange_PublishCopiesCallerBuffer(t *testing.T) {
	ex := snapshot.NewExchange()
	s := makeSnapshot(1, 2)
	ex.Publish(s)

	// Producer reuses its buffer between runs; that must not leak into
	// the published snapshot
	s.Records[0].Name = "mutated"

	got, _ := ex.Read()
	if got.Records[0].Name != "npc" {
		t.Fatalf("published snapshot shares caller buffer")
	}
}

func TestExchange_ReadCopiesSlot(t *testing.T) {
	ex := snapshot.NewExchange()
	ex.Publish(makeSnapshot(1, 2))

	first, _ := ex.Read()
	first.Records[1].Name = "mutated"

	second, _ := ex.Read()
	if second.Records[1].Name != "npc" {
		t.Fatalf("reader mutation leaked into the slot")
	}
}

func TestExchange_Clear(t *testing.T) {
	ex := snapshot.NewExchange()
	ex.Publish(makeSnapshot(1, 1))
	ex.Clear()

	if s, ok := ex.Read(); ok || s.Len() != 0 {
		t.Fatalf("cleared exchange must report no data, got ok=%v len=%d", ok, s.Len())
	}
}

func TestExchange_ConcurrentPublishRead(t *testing.T) {
	ex := snapshot.NewExchange()
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		var frame uint32
		for {
			select {
			case <-stop:
				return
			default:
				frame++
				// Record distance mirrors the frame, so a torn snapshot
				// would surface as a mismatched pair
				ex.Publish(makeSnapshot(frame, 4))
			}
		}
	}()

	for i := 0; i < 2000; i++ {
		s, ok := ex.Read()
		if !ok {
			continue
		}
		if s.Len() != 4 {
			t.Fatalf("torn snapshot: len=%d", s.Len())
		}
		for _, rec := range s.Records {
			if rec.Distance != float64(s.Frame) {
				t.Fatalf("record from frame %v inside snapshot %d", rec.Distance, s.Frame)
			}
		}
	}

	close(stop)
	wg.Wait()
}
