package window

import "testing"

func TestErrorRate_InsufficientDataUntilFull(t *testing.T) {
	w := New(5)

	for i := 0; i < 4; i++ {
		w.Push(500)
		if _, ok := w.ErrorRate(); ok {
			t.Fatalf("error rate reported after %d of 5 pushes", i+1)
		}
	}

	w.Push(500)
	rate, ok := w.ErrorRate()
	if !ok {
		t.Fatal("error rate not reported after window filled")
	}
	if rate != 100 {
		t.Errorf("rate = %v, want 100", rate)
	}
}

func TestPush_EvictsOldest(t *testing.T) {
	w := New(3)

	// Fill with errors, then displace them one by one.
	w.Push(500)
	w.Push(502)
	w.Push(503)

	w.Push(200)
	rate, _ := w.ErrorRate()
	if want := 100 * 2.0 / 3.0; rate != want {
		t.Errorf("rate = %v, want %v", rate, want)
	}

	w.Push(200)
	w.Push(200)
	rate, _ = w.ErrorRate()
	if rate != 0 {
		t.Errorf("rate = %v, want 0 after all errors evicted", rate)
	}
	if w.Len() != 3 {
		t.Errorf("len = %d, want 3", w.Len())
	}
}

func TestErrorRate_Boundaries(t *testing.T) {
	tests := []struct {
		name     string
		statuses []int
		want     float64
	}{
		{"all success", []int{200, 201, 204, 301}, 0},
		{"499 is not an error", []int{499, 499, 499, 499}, 0},
		{"500 is an error", []int{500, 200, 200, 200}, 25},
		{"mixed", []int{500, 503, 200, 404}, 50},
		{"zero sentinel never counts", []int{0, 0, 0, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New(len(tt.statuses))
			for _, s := range tt.statuses {
				w.Push(s)
			}
			rate, ok := w.ErrorRate()
			if !ok {
				t.Fatal("window full but no rate reported")
			}
			if rate != tt.want {
				t.Errorf("rate = %v, want %v", rate, tt.want)
			}
		})
	}
}

func TestErrorRate_StableAcrossManyWraps(t *testing.T) {
	w := New(10)
	for i := 0; i < 1000; i++ {
		if i%10 == 0 {
			w.Push(500)
		} else {
			w.Push(200)
		}
	}

	rate, ok := w.ErrorRate()
	if !ok {
		t.Fatal("expected rate")
	}
	if rate != 10 {
		t.Errorf("rate = %v, want 10", rate)
	}
	if w.Errors() != 1 {
		t.Errorf("errors = %d, want 1", w.Errors())
	}
}
