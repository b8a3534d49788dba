// Package batch writes WebP previews of pack textures with a worker pool.
package batch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HugoSmits86/nativewebp"

	"customtex/internal/texture"
)

// Config holds the shared settings of a preview run.
type Config struct {
	OutputDir string
	MaxSize   int // longest preview edge; 0 keeps the source size
	Trim      bool
	Workers   int
	Progress  io.Writer
}

// Job is one pack texture to preview.
type Job struct {
	File    texture.File
	Variant string
}

// Result holds the outcome of one job.
type Result struct {
	Local   string
	Scene   string
	Variant string
	Slot    string
	Image   string
	Width   int
	Height  int
	Success bool
	Error   string
}

// Run processes every job with cfg.Workers goroutines. Results keep the
// order of jobs.
func Run(cfg Config, jobs []Job) []Result {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	total := len(jobs)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	done := make(chan struct{})
	if cfg.Progress != nil {
		go func() {
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						fmt.Fprintf(cfg.Progress, "  [%d/%d] %.1f textures/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	jobChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				results[idx] = processJob(cfg, jobs[idx])
				processed.Add(1)
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	close(done)
	return results
}

// OutputName maps a pack-relative texture path to its preview path.
func OutputName(local string) string {
	local = filepath.ToSlash(local)
	return strings.TrimSuffix(local, filepath.Ext(local)) + ".webp"
}

func processJob(cfg Config, job Job) Result {
	res := Result{
		Local:   filepath.ToSlash(job.File.Local),
		Scene:   string(job.File.Scene),
		Variant: job.Variant,
		Slot:    job.File.Slot.String(),
		Image:   OutputName(job.File.Local),
	}
	fail := func(err error) Result {
		res.Error = err.Error()
		return res
	}

	img, err := texture.Decode(job.File.Path)
	if err != nil {
		return fail(err)
	}
	if cfg.Trim {
		img = Trim(img)
	}
	img = Thumbnail(img, cfg.MaxSize)
	res.Width, res.Height = img.Bounds().Dx(), img.Bounds().Dy()

	outPath := filepath.Join(cfg.OutputDir, filepath.FromSlash(res.Image))
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fail(err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return fail(fmt.Errorf("webp encode: %w", err))
	}
	res.Success = true
	return res
}
