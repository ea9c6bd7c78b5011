package cli

import (
	"bytes"
	"context"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"

	"github.com/matzehuels/cardforge/pkg/config"
	"github.com/matzehuels/cardforge/pkg/pipeline"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{"saved card at info", LogInfo, func(l *log.Logger) { l.Info("saved ab123.jpg") }, true},
		{"row detail hidden at info", LogInfo, func(l *log.Logger) { l.Debug("saved card", "row", 3) }, false},
		{"row detail at debug", LogDebug, func(l *log.Logger) { l.Debug("saved card", "row", 3) }, true},
		{"photo warning at info", LogInfo, func(l *log.Logger) { l.Warn("photo not placed") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("wrote output = %v, want %v (%q)", got, tt.want, buf.String())
			}
		})
	}
}

func TestBatchTimerFinish(t *testing.T) {
	var buf bytes.Buffer
	timer := startTimer(newLogger(&buf, LogInfo))
	timer.finish(&pipeline.Result{Rendered: 3})

	out := buf.String()
	for _, want := range []string{"generate finished", "cards=3", "elapsed="} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestLoggerFromContext(t *testing.T) {
	custom := newLogger(&bytes.Buffer{}, LogInfo)
	tests := []struct {
		name string
		ctx  context.Context
		want *log.Logger
	}{
		{"attached", withLogger(context.Background(), custom), custom},
		{"missing", context.Background(), log.Default()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := loggerFromContext(tt.ctx); got != tt.want {
				t.Errorf("loggerFromContext() = %p, want %p", got, tt.want)
			}
		})
	}
}

// TestGenerateScopesLogsByRunAndRow runs generate through the root command
// and checks that every row line carries the same run id and its own row.
func TestGenerateScopesLogsByRunAndRow(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "template.png")
	if err := imaging.Save(image.NewNRGBA(image.Rect(0, 0, 200, 100)), tpl); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Template = tpl
	cfgPath := filepath.Join(dir, "layout.json")
	if err := cfg.Save(cfgPath); err != nil {
		t.Fatal(err)
	}
	data := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(data, []byte("Артикул,Применимость по КК\nAB-1,Toyota\nCD-2,Kia\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	root := New(&buf, LogDebug).RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"generate", data, "-c", cfgPath, "-o", filepath.Join(dir, "out"), "--no-cache"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}

	out := buf.String()
	runIDs := regexp.MustCompile(`run=([0-9a-f]{8})`).FindAllStringSubmatch(out, -1)
	if len(runIDs) == 0 {
		t.Fatalf("no run id in log:\n%s", out)
	}
	for _, m := range runIDs[1:] {
		if m[1] != runIDs[0][1] {
			t.Errorf("run ids differ: %s vs %s", m[1], runIDs[0][1])
		}
	}
	for _, want := range []string{"row=0", "row=1", "saved card", "generate finished", "cards=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}
