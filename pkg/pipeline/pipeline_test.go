package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/cardforge/pkg/config"
	"github.com/matzehuels/cardforge/pkg/errors"
	"github.com/matzehuels/cardforge/pkg/layout"
	"github.com/matzehuels/cardforge/pkg/photo"
)

// recordingSink keeps every event for inspection.
type recordingSink struct {
	progress []float64
	lines    []string
	fatal    []string
}

func (s *recordingSink) Progress(p float64) { s.progress = append(s.progress, p) }
func (s *recordingSink) Log(line string)    { s.lines = append(s.lines, line) }
func (s *recordingSink) Fatal(text string)  { s.fatal = append(s.fatal, text) }

func (s *recordingSink) saved() []string {
	var out []string
	for _, l := range s.lines {
		if name, ok := strings.CutPrefix(l, "saved "); ok {
			out = append(out, name)
		}
	}
	return out
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	if err := imaging.Save(img, path); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// fixture lays out a template, a config and an output directory under a
// temp dir and serves a red photo at /photo.png.
type fixture struct {
	dir    string
	cfg    *config.Config
	out    string
	server *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "template.png"), solid(320, 240, color.NRGBA{R: 240, G: 240, B: 240, A: 255}))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, solid(40, 30, color.NRGBA{R: 255, A: 255}), imaging.PNG); err != nil {
		t.Fatal(err)
	}
	photoBytes := buf.Bytes()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photo.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(photoBytes)
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Template = "template.png"
	cfg.FilenamePattern = "{article_clean}.png"
	return &fixture{dir: dir, cfg: cfg, out: filepath.Join(dir, "out"), server: srv}
}

func (f *fixture) data(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(f.dir, "data.csv")
	content := "Артикул,Применимость по КК,Ссылка на фото\n" + strings.Join(rows, "\n") + "\n"
	writeFile(t, path, content)
	return path
}

func (f *fixture) options(data string, sink Sink) Options {
	return Options{
		DataPath:  data,
		Config:    f.cfg,
		BaseDir:   f.dir,
		OutputDir: f.out,
		Sink:      sink,
	}
}

func (f *fixture) runner() *Runner {
	return NewRunner(photo.NewFetcher(nil, nil), nil)
}

func TestRunEndToEnd(t *testing.T) {
	f := newFixture(t)
	data := f.data(t,
		fmt.Sprintf("AB-123,Toyota / Honda,%s/photo.png", f.server.URL),
		fmt.Sprintf("CD-4,Kia,%s/missing.png", f.server.URL),
		",Kia,",
	)
	sink := &recordingSink{}

	result, err := f.runner().Run(context.Background(), f.options(data, sink))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.Total != 3 || result.Rendered != 3 || result.Failed() != 0 {
		t.Errorf("result = %+v", result)
	}
	if result.PhotoFailures != 1 {
		t.Errorf("PhotoFailures = %d, want 1", result.PhotoFailures)
	}
	if result.RunID == "" {
		t.Error("RunID is empty")
	}

	wantNames := []string{"ab123.png", "cd4.png", "0002.png"}
	if got := sink.saved(); strings.Join(got, ",") != strings.Join(wantNames, ",") {
		t.Errorf("saved = %v, want %v", got, wantNames)
	}
	for _, name := range wantNames {
		if _, err := os.Stat(filepath.Join(f.out, name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}

	wantProgress := []float64{100.0 / 3, 200.0 / 3, 100, 100}
	if len(sink.progress) != len(wantProgress) {
		t.Fatalf("progress = %v", sink.progress)
	}
	for i, p := range wantProgress {
		if diff := sink.progress[i] - p; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("progress[%d] = %v, want %v", i, sink.progress[i], p)
		}
	}
	if len(sink.fatal) != 0 {
		t.Errorf("fatal = %v", sink.fatal)
	}
}

func TestRunPlacesPhoto(t *testing.T) {
	f := newFixture(t)
	data := f.data(t, fmt.Sprintf("AB-1,,%s/photo.png", f.server.URL))

	if _, err := f.runner().Run(context.Background(), f.options(data, NopSink{})); err != nil {
		t.Fatal(err)
	}
	img, err := imaging.Open(filepath.Join(f.out, "ab1.png"))
	if err != nil {
		t.Fatal(err)
	}
	assertRed(t, img)
}

// assertRed checks the center of the default photo box, at
// (0.05+0.29, 0.28+0.26) of the 320x240 template.
func assertRed(t *testing.T, img image.Image) {
	t.Helper()
	x := layout.ResolveCoord(0.34, 320)
	y := layout.ResolveCoord(0.54, 240)
	r, g, b, a := img.At(x, y).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 || a>>8 != 255 {
		t.Errorf("photo box center (%d,%d) = (%d,%d,%d,%d), want opaque red", x, y, r>>8, g>>8, b>>8, a>>8)
	}
}

func TestRunBadChromaKeyPastesOpaque(t *testing.T) {
	f := newFixture(t)
	f.cfg.ImageBox.RemoveBG = true
	f.cfg.ImageBox.RemoveBGColor = "#GGGGGG"
	data := f.data(t,
		fmt.Sprintf("AB-1,,%s/photo.png", f.server.URL),
		fmt.Sprintf("AB-2,,%s/photo.png", f.server.URL),
	)
	sink := &recordingSink{}

	result, err := f.runner().Run(context.Background(), f.options(data, sink))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Rendered != 2 || result.PhotoFailures != 0 {
		t.Errorf("result = %+v", result)
	}
	if len(sink.fatal) != 0 {
		t.Errorf("fatal = %v", sink.fatal)
	}
	warned := false
	for _, l := range sink.lines {
		if strings.HasPrefix(l, "warning: ") && strings.Contains(l, "remove_bg_color") {
			warned = true
		}
	}
	if !warned {
		t.Errorf("lines = %v, want a remove_bg_color warning", sink.lines)
	}
	for _, name := range []string{"ab1.png", "ab2.png"} {
		img, err := imaging.Open(filepath.Join(f.out, name))
		if err != nil {
			t.Fatal(err)
		}
		assertRed(t, img)
	}
}

func TestRunDuplicateNames(t *testing.T) {
	tests := []struct {
		name    string
		workers int
	}{
		{"sequential", 1},
		{"parallel", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			data := f.data(t, "AB-1,Toyota,", "ab1,Kia,", "A/B 1,Honda,", "CD-2,,")
			sink := &recordingSink{}
			opts := f.options(data, sink)
			opts.Workers = tt.workers

			result, err := f.runner().Run(context.Background(), opts)
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			want := []string{"ab1.png", "ab1_2.png", "ab1_3.png", "cd2.png"}
			if got := sink.saved(); strings.Join(got, ",") != strings.Join(want, ",") {
				t.Errorf("saved = %v, want %v", got, want)
			}
			if result.Rendered != 4 {
				t.Errorf("Rendered = %d, want 4", result.Rendered)
			}
			entries, err := os.ReadDir(f.out)
			if err != nil {
				t.Fatal(err)
			}
			if len(entries) != 4 {
				t.Errorf("output dir has %d files, want 4", len(entries))
			}
			renamed := 0
			for _, l := range sink.lines {
				if strings.Contains(l, "already used") {
					renamed++
				}
			}
			if renamed != 2 {
				t.Errorf("rename notices = %d, want 2", renamed)
			}
		})
	}
}

func TestRunOrderedWithWorkers(t *testing.T) {
	f := newFixture(t)
	var rows []string
	var want []string
	for i := range 12 {
		rows = append(rows, fmt.Sprintf("A-%d,Toyota,", i))
		want = append(want, fmt.Sprintf("a%d.png", i))
	}
	data := f.data(t, rows...)
	sink := &recordingSink{}
	opts := f.options(data, sink)
	opts.Workers = 4

	result, err := f.runner().Run(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if got := sink.saved(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("saved order = %v", got)
	}
	for i, p := range sink.progress[:12] {
		if want := float64(i+1) * 100 / 12; p != want {
			t.Errorf("progress[%d] = %v, want %v", i, p, want)
		}
	}
	if len(result.Outputs) != 12 || filepath.Base(result.Outputs[5]) != "a5.png" {
		t.Errorf("Outputs = %v", result.Outputs)
	}
}

func TestRunRowFailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	data := f.data(t, "A-1,,", "B-2,,", "C-3,,")
	// A directory where the second card should go makes its save fail.
	if err := os.MkdirAll(filepath.Join(f.out, "b2.png"), 0o755); err != nil {
		t.Fatal(err)
	}
	sink := &recordingSink{}

	result, err := f.runner().Run(context.Background(), f.options(data, sink))
	if !errors.Is(err, errors.ErrCodeRowsFailed) {
		t.Fatalf("Run() error = %v, want ROWS_FAILED", err)
	}
	if result == nil || result.Rendered != 2 || result.Failed() != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.Failures[0].Index != 1 || !errors.Is(result.Failures[0].Err, errors.ErrCodeOutput) {
		t.Errorf("failure = %+v", result.Failures[0])
	}
	if got := sink.saved(); strings.Join(got, ",") != "a1.png,c3.png" {
		t.Errorf("saved = %v", got)
	}
}

func TestRunFatal(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture) Options
		code  errors.Code
	}{
		{
			name: "missing data",
			setup: func(t *testing.T, f *fixture) Options {
				return f.options(filepath.Join(f.dir, "nope.csv"), nil)
			},
			code: errors.ErrCodeDataUnreadable,
		},
		{
			name: "unsupported data",
			setup: func(t *testing.T, f *fixture) Options {
				path := filepath.Join(f.dir, "data.txt")
				writeFile(t, path, "a,b\n1,2\n")
				return f.options(path, nil)
			},
			code: errors.ErrCodeDataUnreadable,
		},
		{
			name: "empty data",
			setup: func(t *testing.T, f *fixture) Options {
				return f.options(f.data(t), nil)
			},
			code: errors.ErrCodeDataEmpty,
		},
		{
			name: "missing template",
			setup: func(t *testing.T, f *fixture) Options {
				f.cfg.Template = "absent.jpg"
				return f.options(f.data(t, "A,,"), nil)
			},
			code: errors.ErrCodeTemplateNotFound,
		},
		{
			name: "undecodable template",
			setup: func(t *testing.T, f *fixture) Options {
				writeFile(t, filepath.Join(f.dir, "broken.jpg"), "not an image")
				f.cfg.Template = "broken.jpg"
				return f.options(f.data(t, "A,,"), nil)
			},
			code: errors.ErrCodeTemplateInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			sink := &recordingSink{}
			opts := tt.setup(t, f)
			opts.Sink = sink

			result, err := f.runner().Run(context.Background(), opts)
			if !errors.Is(err, tt.code) {
				t.Fatalf("Run() error = %v, want %s", err, tt.code)
			}
			if !errors.IsFatal(err) {
				t.Errorf("IsFatal(%v) = false", err)
			}
			if result != nil {
				t.Errorf("result = %+v, want nil", result)
			}
			if len(sink.fatal) != 1 {
				t.Errorf("fatal = %v", sink.fatal)
			}
			if len(sink.saved()) != 0 {
				t.Errorf("saved = %v", sink.saved())
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	data := f.data(t, "A-1,,", "B-2,,")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner().Run(ctx, f.options(data, NopSink{}))
	if err != context.Canceled {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if _, err := os.Stat(filepath.Join(f.out, "a1.png")); err == nil {
		t.Error("card written after cancellation")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{DataPath: "a.csv"}, false},
		{"no data", Options{}, true},
		{"too many workers", Options{DataPath: "a.csv", Workers: MaxWorkers + 1}, true},
		{"bad config", Options{DataPath: "a.csv", Config: &config.Config{FilenamePattern: ""}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.SetDefaults()
			if err := tt.opts.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	var o Options
	o.SetDefaults()
	if o.Workers != DefaultWorkers || o.OutputDir != config.DefaultOutputDir || o.Sink == nil || o.Logger == nil {
		t.Errorf("SetDefaults() = %+v", o)
	}
}
