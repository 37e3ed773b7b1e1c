package traj

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"
)

func writeLog(Te *testing.T, name string) {
	w, err := NewWriter(name, 3, map[string]string{"prec": "6", "system": "toy"})
	if err != nil {
		Te.Fatal(err)
	}
	defer w.Close()
	if w.Len() != 3 {
		Te.Errorf("writer width is %d, want 3", w.Len())
	}
	for i := 0; i < 4; i++ {
		lambda := float64(i) * 0.25
		work := float64(i) * 1.5
		coords := []float64{0.125 * float64(i), -0.5, 2.0}
		if err := w.WNext(lambda, work, coords); err != nil {
			Te.Fatal(err)
		}
	}
	//a frame of the wrong width must be rejected
	if err := w.WNext(1.0, 0.0, []float64{1.0}); err == nil {
		Te.Error("the writer accepted a frame of the wrong width")
	}
	if err := w.WNext(1.0, 0.0, nil); err == nil {
		Te.Error("the writer accepted nil coordinates")
	}
}

func readLog(Te *testing.T, name string) {
	r, m, err := New(name)
	if err != nil {
		Te.Fatal(err)
	}
	if m == nil || m["system"] != "toy" {
		Te.Errorf("metadata didn't survive the roundtrip: %v", m)
	}
	if r.Len() != 3 {
		Te.Fatalf("reader width is %d, want 3", r.Len())
	}
	c := make([]float64, 3)
	for i := 0; i < 4; i++ {
		lambda, work, err := r.Next(c)
		if err != nil {
			Te.Fatal(err)
		}
		if math.Abs(lambda-float64(i)*0.25) > 1e-5 {
			Te.Errorf("frame %d carries lambda %v", i, lambda)
		}
		if math.Abs(work-float64(i)*1.5) > 1e-6 {
			Te.Errorf("frame %d carries work %v", i, work)
		}
		want := []float64{0.125 * float64(i), -0.5, 2.0}
		for j, v := range c {
			if math.Abs(v-want[j]) > 1e-6 {
				Te.Errorf("frame %d coordinate %d is %v, want %v", i, j, v, want[j])
			}
		}
	}
	_, _, err = r.Next(c)
	if err == nil {
		Te.Fatal("read past the end of the log")
	}
	if !IsLastFrame(err) {
		Te.Errorf("the end of the log surfaced as a real error: %v", err)
	}
	if r.Readable() {
		Te.Error("the reader is still readable after the last frame")
	}
}

func TestRoundTrip(Te *testing.T) {
	//once per compressor: zstd (default), gzip ('z') and flate ('r')
	for _, name := range []string{"frames.stf", "frames.stz", "frames.str"} {
		full := filepath.Join(Te.TempDir(), name)
		fmt.Println("roundtripping", full)
		writeLog(Te, full)
		readLog(Te, full)
	}
}

func TestOpenFailures(Te *testing.T) {
	//failures to create or open the file come back as package errors, so
	//callers can decorate them like any other
	bad := filepath.Join(Te.TempDir(), "no", "such", "dir", "frames.stf")
	_, err := NewWriter(bad, 3, nil)
	if err == nil {
		Te.Fatal("created a log inside a directory that doesn't exist")
	}
	if _, ok := err.(Error); !ok {
		Te.Errorf("a create failure surfaced as %T, want a package Error", err)
	}
	_, _, err = New(filepath.Join(Te.TempDir(), "missing.stf"))
	if err == nil {
		Te.Fatal("opened a log that doesn't exist")
	}
	if _, ok := err.(Error); !ok {
		Te.Errorf("an open failure surfaced as %T, want a package Error", err)
	}
}

func TestSkippedFrames(Te *testing.T) {
	full := filepath.Join(Te.TempDir(), "skip.stf")
	writeLog(Te, full)
	r, _, err := New(full)
	if err != nil {
		Te.Fatal(err)
	}
	defer r.Close()
	//nil coordinates skip the frame but still check and report it
	lambda, _, err := r.Next(nil)
	if err != nil {
		Te.Fatal(err)
	}
	if lambda != 0.0 {
		Te.Errorf("first skipped frame carries lambda %v, want 0", lambda)
	}
	lambda, work, err := r.Next(nil)
	if err != nil {
		Te.Fatal(err)
	}
	if math.Abs(lambda-0.25) > 1e-5 || math.Abs(work-1.5) > 1e-6 {
		Te.Errorf("second skipped frame carries lambda %v, work %v", lambda, work)
	}
	//and a wrong-size buffer is rejected
	if _, _, err := r.Next(make([]float64, 2)); err == nil {
		Te.Error("the reader accepted a wrong-size buffer")
	}
}
