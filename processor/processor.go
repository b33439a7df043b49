package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/airbusgeo/geocube-importer/common"
	"github.com/airbusgeo/geocube-importer/importer"
	"github.com/airbusgeo/geocube-importer/interface/cache"
	"github.com/airbusgeo/geocube-importer/service"
	"github.com/airbusgeo/geocube-importer/service/geometry"
	"github.com/airbusgeo/geocube-importer/service/log"
	"github.com/airbusgeo/geocube/interface/messaging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const recordExt = ".json"

// Processor runs import jobs
type Processor struct {
	registry *importer.Registry
	workdir  string
	progress messaging.Publisher
}

// New creates a processor writing the caches in workdir.
// progress is optional: if not nil, the progress of the imports is published.
func New(registry *importer.Registry, workdir string, progress messaging.Publisher) *Processor {
	return &Processor{registry: registry, workdir: workdir, progress: progress}
}

// CachePath returns the path of the cache of the job
func (p *Processor) CachePath(job common.ImportJob) string {
	if job.CachePath != "" {
		return job.CachePath
	}
	return filepath.Join(p.workdir, job.UUID+".dat")
}

// RecordPath returns the path of the record written next to the cache
func RecordPath(cachePath string) string {
	return cachePath[:len(cachePath)-len(filepath.Ext(cachePath))] + recordExt
}

// OpenCache maps a cache written by ProcessImport, read-only, with its record
func OpenCache(cachePath string) (*common.Record, *cache.Buffer, error) {
	var rec common.Record
	if err := service.FromJSON(RecordPath(cachePath), &rec); err != nil {
		return nil, nil, fmt.Errorf("OpenCache.%w", err)
	}
	if err := rec.Validate(); err != nil {
		return nil, nil, fmt.Errorf("OpenCache[%s]: %w", cachePath, err)
	}
	if rec.Footprint != "" {
		if _, err := geometry.ParseFootprint(rec.Footprint); err != nil {
			return nil, nil, fmt.Errorf("OpenCache[%s].%w", cachePath, err)
		}
	}
	buf, err := cache.Open(cachePath, rec.Shape[0], rec.Shape[1])
	if err != nil {
		return nil, nil, fmt.Errorf("OpenCache.%w", err)
	}
	return &rec, buf, nil
}

// ProcessImport imports the source of the job into its cache and writes the record next to it.
// Errors are classified with service.MakeFatal and service.MakeTemporary.
func (p *Processor) ProcessImport(ctx context.Context, job common.ImportJob) (*common.Record, string, error) {
	if _, err := uuid.Parse(job.UUID); err != nil {
		return nil, "", service.MakeFatal(fmt.Errorf("ProcessImport: invalid uuid %q: %w", job.UUID, err))
	}
	cachePath := p.CachePath(job)
	if strings.EqualFold(filepath.Ext(cachePath), recordExt) {
		return nil, "", service.MakeFatal(fmt.Errorf("ProcessImport: cache path %s would be overwritten by its record", cachePath))
	}
	ctx = log.With(ctx, "uuid", job.UUID)
	src := importer.Source{Path: job.SourcePath, URI: job.SourceURI}

	imp, err := p.registry.Select(src)
	if err != nil {
		return nil, "", fmt.Errorf("ProcessImport.%w", classify(err))
	}
	log.Logger(ctx).Sugar().Infof("import %s with %s importer", src, imp.Name())

	rec, err := imp.Metadata(ctx, job.UUID, src)
	if err != nil {
		return nil, "", fmt.Errorf("ProcessImport.%w", classify(err))
	}
	if err := rec.Validate(); err != nil {
		return nil, "", service.MakeFatal(fmt.Errorf("ProcessImport[%s]: %w", src, err))
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0766); err != nil {
		return nil, "", service.MakeTemporary(fmt.Errorf("make directory %s: %w", filepath.Dir(cachePath), err))
	}

	var buf *cache.Buffer
	for prog, err := range imp.Import(ctx, job.UUID, src, cachePath) {
		if err != nil {
			// a partial cache is useless
			if e := os.Remove(cachePath); e != nil && !os.IsNotExist(e) {
				log.Logger(ctx).Sugar().Warnf("unable to remove %s: %v", cachePath, e)
			}
			return nil, "", fmt.Errorf("ProcessImport.%w", classify(err))
		}
		p.publishProgress(ctx, prog)
		if prog.Terminal() {
			buf = prog.Data
		}
	}
	if buf == nil {
		return nil, "", service.MakeFatal(fmt.Errorf("ProcessImport[%s]: the import did not provide any data", src))
	}
	if err := buf.Close(); err != nil {
		return nil, "", service.MakeTemporary(fmt.Errorf("ProcessImport.%w", err))
	}

	recordPath := RecordPath(cachePath)
	if err := service.Retriable(ctx, func() error {
		return service.ToJSON(rec, filepath.Dir(recordPath), filepath.Base(recordPath))
	}, time.Second, 3); err != nil {
		return nil, "", service.MakeTemporary(fmt.Errorf("ProcessImport.%w (after 3 retries)", err))
	}
	log.Logger(ctx).Sugar().Infof("%s imported in %s", rec.DisplayName, cachePath)
	return &rec, cachePath, nil
}

// publishProgress publishes the event. Failures are only logged.
func (p *Processor) publishProgress(ctx context.Context, prog importer.Progress) {
	if p.progress == nil {
		return
	}
	b, err := json.Marshal(common.ProgressMessage{
		UUID:         prog.UUID,
		Stages:       prog.Stages,
		CurrentStage: prog.CurrentStage,
		Completion:   prog.Completion,
		StageDesc:    prog.StageDesc,
		Done:         prog.Terminal(),
	})
	if err == nil {
		err = p.progress.Publish(ctx, b)
	}
	if err != nil {
		log.Logger(ctx).Sugar().Warnf("failed to publish progress: %v", err)
	}
}

// Result runs the job and returns its result
func (p *Processor) Result(ctx context.Context, job common.ImportJob) common.Result {
	rec, cachePath, err := p.ProcessImport(ctx, job)
	res := common.Result{UUID: job.UUID, Status: common.StatusDONE, CachePath: cachePath, Record: rec}
	if err != nil {
		res.Message = err.Error()
		res.Status = common.StatusFAILED
		if service.Temporary(err) {
			res.Status = common.StatusRETRY
		}
	}
	return res
}

// ProcessAll runs the jobs on a pool of workers and returns their results, in the same order.
// A job whose uuid has already been submitted fails: it would share its cache.
func (p *Processor) ProcessAll(ctx context.Context, jobs []common.ImportJob, workers int) ([]common.Result, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]common.Result, len(jobs))
	wg, ctx := errgroup.WithContext(ctx)
	jobChan := make(chan int, len(jobs))

	for i := 0; i < workers; i++ {
		wg.Go(func() error {
			for idx := range jobChan {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				results[idx] = p.Result(ctx, jobs[idx])
			}
			return nil
		})
	}

	// Push jobs
	submitted := service.StringSet{}
	for i, job := range jobs {
		if submitted.Exists(job.UUID) {
			results[i] = common.Result{UUID: job.UUID, Status: common.StatusFAILED, Message: "duplicate uuid"}
			continue
		}
		submitted.Push(job.UUID)
		jobChan <- i
	}
	close(jobChan)

	if err := wg.Wait(); err != nil {
		return results, fmt.Errorf("ProcessAll.%w", err)
	}
	return results, nil
}

// classify marks the errors of the importers as fatal or temporary
func classify(err error) error {
	var (
		noImporter  importer.ErrNoApplicableImporter
		unsupported importer.ErrUnsupportedSource
		decode      importer.ErrDecode
	)
	switch {
	case errors.As(err, &noImporter), errors.As(err, &unsupported), errors.As(err, &decode),
		errors.Is(err, importer.ErrSequenceConsumed):
		return service.MakeFatal(err)
	case errors.Is(err, importer.ErrCacheAllocation):
		return service.MakeTemporary(err)
	}
	return err
}
