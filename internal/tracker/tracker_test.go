package tracker

import (
	"testing"

	"github.com/bluegreen-ops/poolwatch/internal/logline"
)

func observe(t *Tracker, pool string) (*Failover, *Recovery) {
	return t.Observe(logline.Entry{
		Timestamp:    "01/Feb/2025:00:00:00 +0000",
		Pool:         pool,
		Release:      "r1",
		UpstreamAddr: "10.0.0.5:8080",
	})
}

func TestObserve_FirstObservationInitializesOnly(t *testing.T) {
	tr := New("blue")

	fo, rec := observe(tr, "green")
	if fo != nil || rec != nil {
		t.Fatal("first observation must not emit a detection")
	}
	if tr.LastSeen() != "green" {
		t.Errorf("last seen = %q, want green", tr.LastSeen())
	}
}

func TestObserve_SamePoolIsNoop(t *testing.T) {
	tr := New("blue")
	observe(tr, "blue")

	for i := 0; i < 3; i++ {
		fo, rec := observe(tr, "blue")
		if fo != nil || rec != nil {
			t.Fatal("repeat observation of the same pool emitted a detection")
		}
	}
}

func TestObserve_FailoverCarriesEntryFields(t *testing.T) {
	tr := New("blue")
	observe(tr, "blue")

	fo, rec := tr.Observe(logline.Entry{
		Timestamp:    "01/Feb/2025:12:00:00 +0000",
		Pool:         "green",
		Release:      "r2",
		UpstreamAddr: "10.0.0.9:8080",
	})
	if fo == nil {
		t.Fatal("expected a failover")
	}
	if rec != nil {
		t.Fatal("failover away from primary must not also be a recovery")
	}
	if fo.Previous != "blue" || fo.Current != "green" {
		t.Errorf("failover = %s -> %s, want blue -> green", fo.Previous, fo.Current)
	}
	if fo.Release != "r2" {
		t.Errorf("release = %q", fo.Release)
	}
	if fo.Upstream != "10.0.0.9:8080" {
		t.Errorf("upstream = %q", fo.Upstream)
	}
	if fo.Timestamp != "01/Feb/2025:12:00:00 +0000" {
		t.Errorf("timestamp = %q", fo.Timestamp)
	}
}

func TestObserve_BlueGreenBlueScenario(t *testing.T) {
	tr := New("blue")

	var failovers, recoveries int
	for _, pool := range []string{"blue", "blue", "green", "blue"} {
		fo, rec := observe(tr, pool)
		if fo != nil {
			failovers++
		}
		if rec != nil {
			recoveries++
			if rec.Pool != "blue" {
				t.Errorf("recovered pool = %q, want blue", rec.Pool)
			}
		}
	}

	if failovers != 1 {
		t.Errorf("failovers = %d, want 1", failovers)
	}
	if recoveries != 1 {
		t.Errorf("recoveries = %d, want 1", recoveries)
	}
}

func TestObserve_StayingOnPrimaryNeverRecovers(t *testing.T) {
	tr := New("blue")
	for i := 0; i < 5; i++ {
		_, rec := observe(tr, "blue")
		if rec != nil {
			t.Fatal("recovery fired while traffic never left the primary")
		}
	}
}

func TestObserve_FailoverBetweenNonPrimaryPools(t *testing.T) {
	tr := New("blue")
	observe(tr, "green")

	fo, rec := observe(tr, "purple")
	if fo == nil {
		t.Fatal("expected failover green -> purple")
	}
	if rec != nil {
		t.Fatal("transition between non-primary pools is not a recovery")
	}
	if fo.Previous != "green" || fo.Current != "purple" {
		t.Errorf("failover = %s -> %s", fo.Previous, fo.Current)
	}
}

func TestObserve_RecoveryAfterInitialNonPrimary(t *testing.T) {
	// Session starts while already failed over; return to primary still
	// counts as a recovery.
	tr := New("blue")
	observe(tr, "green")

	fo, rec := observe(tr, "blue")
	if fo != nil {
		t.Fatal("return to primary must not be reported as a failover")
	}
	if rec == nil {
		t.Fatal("expected recovery")
	}
}
