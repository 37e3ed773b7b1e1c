package feplot

import (
	"os"
	"path/filepath"
	"testing"

	fep "github.com/rmera/gofep"
)

func TestProtocolPlot(Te *testing.T) {
	dir := Te.TempDir()
	protocols := map[fep.Direction][]float64{
		fep.Forward: {0.0, 0.3, 0.5, 0.65, 0.8, 0.9, 1.0},
		fep.Reverse: {1.0, 0.7, 0.45, 0.3, 0.15, 0.0},
	}
	name := filepath.Join(dir, "protocol")
	if err := Protocol(protocols, "discovered schedules", name); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(name + ".png"); err != nil {
		Te.Error("no protocol figure was written")
	}
	if err := Protocol(nil, "empty", filepath.Join(dir, "nope")); err == nil {
		Te.Error("plotted an empty protocol map")
	}
}

func TestWorkHistPlot(Te *testing.T) {
	dir := Te.TempDir()
	work := []float64{0.1, 0.15, 0.3, 0.32, 0.4, 0.41, 0.5, 0.7, 0.72, 0.9, 1.1, 1.3}
	name := filepath.Join(dir, "work")
	if err := WorkHist(work, 6, "forward works", name); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(name + ".png"); err != nil {
		Te.Error("no histogram figure was written")
	}
	if err := WorkHist(nil, 6, "empty", filepath.Join(dir, "nope")); err == nil {
		Te.Error("plotted an empty work array")
	}
}

func TestComponentsPlot(Te *testing.T) {
	dir := Te.TempDir()
	L, err := fep.NewLambdaProtocol(fep.Default)
	if err != nil {
		Te.Fatal(err)
	}
	name := filepath.Join(dir, "components")
	if err := Components(L, 50, "default staging", name); err != nil {
		Te.Fatal(err)
	}
	if _, err := os.Stat(name + ".png"); err != nil {
		Te.Error("no components figure was written")
	}
	if err := Components(nil, 50, "nil", filepath.Join(dir, "nope")); err == nil {
		Te.Error("plotted a nil protocol")
	}
}
