package sampler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

type fakeRunner struct {
	gpu     bool
	fail    error
	noVideo bool
	outDirs []string
	devices []string
	calls   int
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if name == "nvidia-smi" {
		if !f.gpu {
			return nil, errors.New("not found")
		}
		return []byte("GPU 0: NVIDIA A100\n"), nil
	}
	f.calls++
	var out, input string
	for i := 0; i+1 < len(args); i++ {
		switch args[i] {
		case "--output_folder":
			out = args[i+1]
		case "--input_path":
			input = args[i+1]
		case "--device":
			f.devices = append(f.devices, args[i+1])
		}
	}
	f.outDirs = append(f.outDirs, out)
	if f.fail != nil {
		return nil, f.fail
	}
	if f.noVideo {
		return []byte("done"), os.WriteFile(filepath.Join(out, "log.txt"), []byte("no frames"), 0o644)
	}
	if err := os.WriteFile(filepath.Join(out, "000001.mp4"), []byte("video:"+filepath.Base(input)), 0o644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(out, "000002.mp4"), []byte("second"), 0o644); err != nil {
		return nil, err
	}
	return nil, nil
}

func writeImages(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("image:"+name), 0o644); err != nil {
			t.Fatalf("write image: %v", err)
		}
		paths = append(paths, path)
	}
	return paths
}

func newSampler(t *testing.T, runner Runner) *ImageToVideo {
	t.Helper()
	cfg := DefaultConfig()
	cfg.TempDir = t.TempDir()
	s, err := New(cfg, runner, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestGenerateYieldsPairsInOrder(t *testing.T) {
	runner := &fakeRunner{gpu: true}
	s := newSampler(t, runner)
	paths := writeImages(t, "a.png", "b.png")

	var got []Sample
	for sample, err := range s.Generate(context.Background(), "svd", paths, DefaultGenerationConfig(), 42) {
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		dir := runner.outDirs[len(runner.outDirs)-1]
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Fatalf("temporary directory %s not removed before yield", dir)
		}
		got = append(got, sample)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(got))
	}
	if string(got[0].Image) != "image:a.png" || string(got[0].Video) != "video:a.png" {
		t.Fatalf("unexpected first sample %q %q", got[0].Image, got[0].Video)
	}
	if got[1].ImagePath != paths[1] {
		t.Fatalf("unexpected order %q", got[1].ImagePath)
	}
	if runner.devices[0] != DeviceCUDA {
		t.Fatalf("expected cuda device, got %q", runner.devices[0])
	}
	if runner.outDirs[0] == runner.outDirs[1] {
		t.Fatalf("each image needs its own directory")
	}
}

func TestGenerateIsNotRestartable(t *testing.T) {
	s := newSampler(t, &fakeRunner{})
	seq := s.Generate(context.Background(), "svd", writeImages(t, "a.png"), DefaultGenerationConfig(), 1)
	for _, err := range seq {
		if err != nil {
			t.Fatalf("first range: %v", err)
		}
	}
	var second error
	for _, err := range seq {
		second = err
	}
	if !errors.Is(second, ErrSequenceConsumed) {
		t.Fatalf("expected ErrSequenceConsumed, got %v", second)
	}
}

func TestGenerateStopsOnSamplerError(t *testing.T) {
	runner := &fakeRunner{fail: errors.New("exit status 1")}
	s := newSampler(t, runner)
	count := 0
	var last error
	for _, err := range s.Generate(context.Background(), "svd", writeImages(t, "a.png", "b.png"), DefaultGenerationConfig(), 1) {
		count++
		last = err
	}
	if count != 1 || last == nil {
		t.Fatalf("expected a single error, got %d items (%v)", count, last)
	}
	if runner.calls != 1 {
		t.Fatalf("expected sampler to stop after first failure, got %d calls", runner.calls)
	}
	if len(runner.outDirs) != 1 || runner.outDirs[0] == "" {
		t.Fatalf("expected the output folder to be recorded, got %v", runner.outDirs)
	}
	if _, err := os.Stat(runner.outDirs[0]); !os.IsNotExist(err) {
		t.Fatalf("temporary directory %s not removed after failure", runner.outDirs[0])
	}
}

func TestGenerateReportsMissingVideo(t *testing.T) {
	runner := &fakeRunner{gpu: true, noVideo: true}
	s := newSampler(t, runner)
	count := 0
	var last error
	for _, err := range s.Generate(context.Background(), "svd", writeImages(t, "a.png", "b.png"), DefaultGenerationConfig(), 1) {
		count++
		last = err
	}
	if count != 1 || !errors.Is(last, ErrNoVideo) {
		t.Fatalf("expected a single ErrNoVideo, got %d items (%v)", count, last)
	}
	if runner.calls != 1 {
		t.Fatalf("expected sampler to stop after missing video, got %d calls", runner.calls)
	}
	if _, err := os.Stat(runner.outDirs[0]); !os.IsNotExist(err) {
		t.Fatalf("temporary directory %s not removed after missing video", runner.outDirs[0])
	}
}

func TestGenerateFallsBackToCPU(t *testing.T) {
	runner := &fakeRunner{}
	s := newSampler(t, runner)
	for _, err := range s.Generate(context.Background(), "", writeImages(t, "a.png"), DefaultGenerationConfig(), 1) {
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
	}
	if runner.devices[0] != DeviceCPU {
		t.Fatalf("expected cpu device, got %q", runner.devices[0])
	}
}

func TestGenerationConfigValidate(t *testing.T) {
	gen := DefaultGenerationConfig()
	if gen.NumFrames != 14 || gen.NumSteps != 25 || gen.FrameRate != 6 || gen.MotionBucketID != 127 || gen.DecodingTimesteps != 14 || gen.LowVRAMMode {
		t.Fatalf("unexpected defaults %+v", gen)
	}
	if err := gen.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	gen.NumSteps = 0
	if err := gen.Validate(); err == nil {
		t.Fatalf("expected error for zero steps")
	}
}

func TestSamplerArgsLowVRAM(t *testing.T) {
	gen := DefaultGenerationConfig()
	gen.LowVRAMMode = true
	args := SamplerArgs("in.png", "/tmp/out", "svd", DeviceCPU, gen, 7)
	if args[len(args)-1] != "--low_vram_mode" {
		t.Fatalf("expected low vram flag, got %v", args)
	}
}

func TestDownloadModelSendsBearerToken(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("weights"))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.ModelURL = srv.URL + "/svd.safetensors"
	cfg.HFToken = "hf_test"
	s, err := New(cfg, &fakeRunner{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	dir := t.TempDir()
	path, err := s.DownloadModelWith(context.Background(), srv.Client(), dir)
	if err != nil {
		t.Fatalf("DownloadModel: %v", err)
	}
	if path != filepath.Join(dir, ModelFile) {
		t.Fatalf("unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "weights" {
		t.Fatalf("unexpected model file %q %v", data, err)
	}
	if auth != "Bearer hf_test" {
		t.Fatalf("expected bearer token, got %q", auth)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("partial files left behind: %d entries", len(entries))
	}
}

func TestDownloadModelRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gated", http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.ModelURL = srv.URL
	s, err := New(cfg, &fakeRunner{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.DownloadModelWith(context.Background(), srv.Client(), t.TempDir()); err == nil {
		t.Fatalf("expected error for unauthorized download")
	}
}
