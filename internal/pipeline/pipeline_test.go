package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync"
	"testing"

	"github.com/ironsheep/doc-rectify-mcp/internal/config"
	"github.com/ironsheep/doc-rectify-mcp/internal/imaging"
)

// createPagePNG returns PNG bytes of a white page with a black text band.
func createPagePNG(t *testing.T, width, height int, band image.Rectangle) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	draw.Draw(img, band, &image.Uniform{color.Black}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode PNG: %v", err)
	}
	return buf.Bytes()
}

func newTestPipeline(t *testing.T, mutate func(*config.Options)) *Pipeline {
	t.Helper()
	opts := config.Default()
	if mutate != nil {
		mutate(&opts)
	}
	p, err := New(opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("format: got %q, want jpeg", format)
	}
	return cfg.Width, cfg.Height
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	opts := config.Default()
	opts.Analyzer = "magic"
	if _, err := New(opts); err == nil {
		t.Error("expected error for unknown analyzer")
	}
}

func TestProcess_Band(t *testing.T) {
	p := newTestPipeline(t, nil)
	data := createPagePNG(t, 800, 600, image.Rect(100, 200, 700, 260))

	prob, err := p.Process(context.Background(), "page.png", data)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if prob.ID == "" || prob.Name != "page.png" {
		t.Errorf("unexpected identity: %q %q", prob.ID, prob.Name)
	}
	if prob.Width != 800 || prob.Height != 600 {
		t.Errorf("source size: got %dx%d", prob.Width, prob.Height)
	}
	if !prob.Decoded() || prob.Analysis.Fallback {
		t.Fatalf("expected a detected region, got %+v", prob.Analysis)
	}
	if prob.Crop == nil || !prob.Crop.Within(800, 600, 1) {
		t.Errorf("crop outside image: %+v", prob.Crop)
	}
	if prob.Rotation != prob.DetectedRotation {
		t.Errorf("rotation %v should start at detected %v", prob.Rotation, prob.DetectedRotation)
	}
	w, h := decodeSize(t, prob.Processed)
	if w >= 800 || h >= 600 {
		t.Errorf("processed %dx%d should be smaller than the page", w, h)
	}
	if bytes.Equal(prob.Original, prob.Processed) {
		t.Error("processed bytes equal original")
	}
}

func TestProcess_DecodeError(t *testing.T) {
	p := newTestPipeline(t, nil)
	_, err := p.Process(context.Background(), "junk.bin", []byte("not an image"))
	if !errors.Is(err, imaging.ErrDecode) {
		t.Errorf("got %v, want ErrDecode", err)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	p := newTestPipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, "page.png", createPagePNG(t, 100, 100, image.Rect(10, 10, 90, 20)))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestCommit_NoTrim(t *testing.T) {
	p := newTestPipeline(t, nil)
	img, err := imaging.DecodeBytes(createPagePNG(t, 400, 300, image.Rect(50, 50, 100, 60)))
	if err != nil {
		t.Fatal(err)
	}

	data, err := p.Commit(img, imaging.Rect{X: 20, Y: 10, Width: 300, Height: 200}, 0)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if w, h := decodeSize(t, data); w != 300 || h != 200 {
		t.Errorf("size: got %dx%d, want 300x200", w, h)
	}
}

func TestCommit_Rotated(t *testing.T) {
	p := newTestPipeline(t, nil)
	img, err := imaging.DecodeBytes(createPagePNG(t, 400, 300, image.Rect(50, 50, 100, 60)))
	if err != nil {
		t.Fatal(err)
	}

	data, err := p.Commit(img, imaging.Rect{X: 0, Y: 0, Width: 200, Height: 100}, 90)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if w, h := decodeSize(t, data); w != 100 || h != 200 {
		t.Errorf("size: got %dx%d, want 100x200", w, h)
	}
}

func TestProblemCommit(t *testing.T) {
	p := newTestPipeline(t, nil)
	prob, err := p.Process(context.Background(), "page.png", createPagePNG(t, 400, 300, image.Rect(50, 100, 350, 140)))
	if err != nil {
		t.Fatal(err)
	}

	src, err := imaging.DecodeBytes(prob.Original)
	if err != nil {
		t.Fatal(err)
	}
	r := imaging.Rect{X: 10, Y: 10, Width: 120, Height: 90}
	data, err := p.Commit(src, r, 0)
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	prob.Commit(data, r, 0)
	if *prob.Crop != r || prob.Rotation != 0 {
		t.Errorf("committed state not recorded: %+v %v", prob.Crop, prob.Rotation)
	}
	if w, h := decodeSize(t, prob.Processed); w != 120 || h != 90 {
		t.Errorf("size: got %dx%d, want 120x90", w, h)
	}
}

func TestProcessBatch_IsolatesFailures(t *testing.T) {
	for _, workers := range []int{1, 3} {
		p := newTestPipeline(t, func(o *config.Options) { o.BatchWorkers = workers })
		inputs := []Input{
			{Name: "a.png", Data: createPagePNG(t, 300, 300, image.Rect(30, 100, 270, 130))},
			{Name: "broken.jpg", Data: []byte{0xff, 0xd8, 0x00}},
			{Name: "b.png", Data: createPagePNG(t, 200, 400, image.Rect(20, 50, 180, 80))},
		}

		var (
			mu    sync.Mutex
			calls []int
		)
		results := p.ProcessBatch(context.Background(), inputs, func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			if total != len(inputs) {
				t.Errorf("total: got %d", total)
			}
			calls = append(calls, done)
		})

		if len(results) != 3 {
			t.Fatalf("results: got %d", len(results))
		}
		for _, i := range []int{0, 2} {
			if results[i].Err != nil || results[i].Problem == nil || !results[i].Problem.Decoded() {
				t.Errorf("workers=%d %s: unexpected result %+v", workers, inputs[i].Name, results[i])
			}
		}

		broken := results[1]
		if !errors.Is(broken.Err, imaging.ErrDecode) {
			t.Errorf("workers=%d broken: got err %v, want ErrDecode", workers, broken.Err)
		}
		if broken.Problem == nil || broken.Problem.Decoded() || !bytes.Equal(broken.Problem.Processed, inputs[1].Data) {
			t.Errorf("workers=%d broken: expected raw fallback record", workers)
		}

		if len(calls) != 3 {
			t.Fatalf("workers=%d progress calls: got %v", workers, calls)
		}
		for i, c := range calls {
			if c != i+1 {
				t.Errorf("workers=%d progress not monotonic: %v", workers, calls)
				break
			}
		}
	}
}

func TestProcessBatch_Cancelled(t *testing.T) {
	p := newTestPipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inputs := []Input{
		{Name: "a.png", Data: createPagePNG(t, 100, 100, image.Rect(10, 10, 90, 20))},
		{Name: "b.png", Data: createPagePNG(t, 100, 100, image.Rect(10, 10, 90, 20))},
	}
	called := false
	results := p.ProcessBatch(ctx, inputs, func(done, total int) { called = true })

	for i, r := range results {
		if !errors.Is(r.Err, context.Canceled) || r.Problem != nil {
			t.Errorf("result %d: got %+v, want context.Canceled", i, r)
		}
		if r.Name != inputs[i].Name {
			t.Errorf("result %d: name %q", i, r.Name)
		}
	}
	if called {
		t.Error("progress called for inputs that never started")
	}
}

func TestProcessBatch_Empty(t *testing.T) {
	p := newTestPipeline(t, nil)
	if results := p.ProcessBatch(context.Background(), nil, nil); len(results) != 0 {
		t.Errorf("got %d results", len(results))
	}
}
