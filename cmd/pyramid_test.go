package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/iandees/marblecutter/pkg/geo"
)

func TestTileRange(t *testing.T) {
	world := geo.BoundingBox{Left: -geo.OriginShift, Bottom: -geo.OriginShift, Right: geo.OriginShift, Top: geo.OriginShift}

	x0, y0, x1, y1 := tileRange(0, world)
	if x0 != 0 || y0 != 0 || x1 != 0 || y1 != 0 {
		t.Errorf("zoom 0 world: got (%d,%d)-(%d,%d), want the single tile", x0, y0, x1, y1)
	}

	// north-west quadrant at zoom 2: tiles 0..1 in both axes
	nw := geo.BoundingBox{Left: -geo.OriginShift, Bottom: 0, Right: 0, Top: geo.OriginShift}
	x0, y0, x1, y1 = tileRange(2, nw)
	if x0 != 0 || y0 != 0 || x1 != 1 || y1 != 1 {
		t.Errorf("zoom 2 NW quadrant: got (%d,%d)-(%d,%d), want (0,0)-(1,1)", x0, y0, x1, y1)
	}
}

func TestEnqueueTilesStopsOnCancel(t *testing.T) {
	savedMin, savedMax := minzoom, maxzoom
	defer func() { minzoom, maxzoom = savedMin, savedMax }()
	minzoom, maxzoom = 0, 4

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	world := geo.BoundingBox{Left: -geo.OriginShift, Bottom: -geo.OriginShift, Right: geo.OriginShift, Top: geo.OriginShift}

	// nobody reads the queue, mimicking workers that all bailed out
	queue := make(chan tileID)
	done := make(chan struct{})
	go func() {
		enqueueTiles(ctx, queue, world)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer kept blocking after cancellation")
	}

	if _, open := <-queue; open {
		t.Error("queue not closed")
	}
}
