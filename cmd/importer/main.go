package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/airbusgeo/geocube-importer/common"
	"github.com/airbusgeo/geocube-importer/guidebook"
	"github.com/airbusgeo/geocube-importer/importer"
	"github.com/airbusgeo/geocube-importer/processor"
	"github.com/airbusgeo/geocube-importer/service"
	"github.com/airbusgeo/geocube-importer/service/log"
	"github.com/airbusgeo/geocube/interface/messaging"
	"github.com/airbusgeo/geocube/interface/messaging/pgqueue"
	"github.com/airbusgeo/geocube/interface/messaging/pubsub"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type config struct {
	WorkingDir string
	Workers    int

	PgqDbConnection string
	PsProject       string
	JobQueue        string
	EventQueue      string
	ProgressQueue   string
}

func newAppConfig() (*config, error) {
	config := config{}
	// Global config
	flag.StringVar(&config.WorkingDir, "workdir", "/local-ssd", "working directory to store the caches and their records")
	flag.IntVar(&config.Workers, "workers", 1, "number of parallel imports (local files only)")

	// Messaging
	flag.StringVar(&config.PgqDbConnection, "pgq-connection", "", "enable pgq messaging system with a connection to the database")
	flag.StringVar(&config.PsProject, "ps-project", "", "pubsub subscription project (gcp only/not required in local usage)")
	flag.StringVar(&config.JobQueue, "job-queue", "", "name of the queue for import jobs (pgqueue or pubsub subscription)")
	flag.StringVar(&config.EventQueue, "event-queue", "", "name of the queue for job results (pgqueue or pubsub topic)")
	flag.StringVar(&config.ProgressQueue, "progress-queue", "", "name of the queue for import progress (pgqueue or pubsub topic, optional)")
	flag.Parse()

	if config.WorkingDir == "" {
		return nil, fmt.Errorf("missing workdir config flag")
	}
	if config.Workers < 1 {
		return nil, fmt.Errorf("workers must be positive: %d", config.Workers)
	}
	return &config, nil
}

func main() {
	ctx := context.Background()
	err := run(ctx)
	if err != nil {
		log.Fatal("error", zap.Error(err))
	}
}

func run(ctx context.Context) error {
	config, err := newAppConfig()
	if err != nil {
		return err
	}

	registry := importer.Default(guidebook.DefaultRegistry())
	for _, imp := range registry.Variants() {
		log.Logger(ctx).Sugar().Debugf("importer available: %s", imp.Name())
	}

	// Local files given in argument
	if flag.NArg() > 0 {
		return importFiles(ctx, processor.New(registry, config.WorkingDir, nil), flag.Args(), config.Workers)
	}

	var eventPublisher, progressPublisher messaging.Publisher
	var jobConsumer messaging.Consumer
	var logMessaging string
	{
		if config.PgqDbConnection != "" {
			db, w, err := pgqueue.SqlConnect(ctx, config.PgqDbConnection)
			if err != nil {
				return fmt.Errorf("MessagingService: %w", err)
			}
			if config.JobQueue != "" {
				logMessaging += fmt.Sprintf(" pulling on pgqueue:%s", config.JobQueue)
				consumer := pgqueue.NewConsumer(db, config.JobQueue)
				defer consumer.Stop()
				jobConsumer = consumer
			}
			if config.EventQueue != "" {
				logMessaging += fmt.Sprintf(" pushing on pgqueue:%s", config.EventQueue)
				eventPublisher = pgqueue.NewPublisher(w, config.EventQueue, pgqueue.WithMaxRetries(5))
			}
			if config.ProgressQueue != "" {
				logMessaging += fmt.Sprintf(" progress on pgqueue:%s", config.ProgressQueue)
				progressPublisher = pgqueue.NewPublisher(w, config.ProgressQueue)
			}
		} else if config.PsProject != "" {
			if config.JobQueue != "" {
				logMessaging += fmt.Sprintf(" pulling on %s/%s", config.PsProject, config.JobQueue)
				if jobConsumer, err = pubsub.NewConsumer(config.PsProject, config.JobQueue); err != nil {
					return fmt.Errorf("pubsub.NewConsumer: %w", err)
				}
			}
			if config.EventQueue != "" {
				logMessaging += fmt.Sprintf(" pushing on %s/%s", config.PsProject, config.EventQueue)
				eventTopic, err := pubsub.NewPublisher(ctx, config.PsProject, config.EventQueue, pubsub.WithMaxRetries(5))
				if err != nil {
					return fmt.Errorf("messaging.NewPublisher: %w", err)
				}
				defer eventTopic.Stop()
				eventPublisher = eventTopic
			}
			if config.ProgressQueue != "" {
				logMessaging += fmt.Sprintf(" progress on %s/%s", config.PsProject, config.ProgressQueue)
				progressTopic, err := pubsub.NewPublisher(ctx, config.PsProject, config.ProgressQueue)
				if err != nil {
					return fmt.Errorf("messaging.NewPublisher: %w", err)
				}
				defer progressTopic.Stop()
				progressPublisher = progressTopic
			}
		}
	}
	if jobConsumer == nil {
		return fmt.Errorf("missing configuration for messaging.JobConsumer")
	}
	if eventPublisher == nil {
		return fmt.Errorf("missing configuration for messaging.EventPublisher")
	}

	proc := processor.New(registry, config.WorkingDir, progressPublisher)

	jobStarted := time.Time{}
	go func() {
		http.HandleFunc("/termination_cost", func(w http.ResponseWriter, r *http.Request) {
			terminationCost := 0
			if jobStarted != (time.Time{}) {
				terminationCost = int(time.Since(jobStarted).Seconds() * 1000) //milliseconds since task was leased
			}
			fmt.Fprintf(w, "%d", terminationCost)
		})
		http.ListenAndServe(":9000", nil)
	}()

	maxTries := 15 //Must be less than the configured number of tries of the pubsub topic

	log.Logger(ctx).Debug("importer starts" + logMessaging)
	for {
		err := jobConsumer.Pull(ctx, func(ctx context.Context, msg *messaging.Message) (err error) {
			jobStarted = time.Now()
			defer func() {
				jobStarted = time.Time{}
			}()
			ctx = log.With(ctx, "msgID", msg.ID)
			log.Logger(log.With(ctx, "body", string(msg.Data))).Sugar().Debugf("message %s try %d", msg.ID, msg.TryCount)
			job := common.ImportJob{}
			if err := json.Unmarshal(msg.Data, &job); err != nil {
				return fmt.Errorf("invalid payload: %w", err)
			} else if job.UUID == "" {
				return fmt.Errorf("invalid payload: missing uuid")
			}

			res := common.Result{UUID: job.UUID, Status: common.StatusRETRY}
			defer func() {
				if err != nil && service.Temporary(err) {
					log.Logger(ctx).Warn("job temporary failure", zap.Error(err))
					return
				}
				if err != nil {
					log.Logger(ctx).Warn("job failed", zap.Error(err))
					res.Message = err.Error()
				}
				resb, e := json.Marshal(res)
				if e != nil {
					err = service.MakeTemporary(fmt.Errorf("marshal: %w", e))
				} else if e := eventPublisher.Publish(ctx, resb); e != nil {
					err = service.MakeTemporary(fmt.Errorf("failed to enqueue result: %w", e))
				}
			}()
			if msg.TryCount > maxTries {
				res.Status = common.StatusFAILED
				return fmt.Errorf("too many retries")
			}

			rec, cachePath, err := proc.ProcessImport(ctx, job)
			if err != nil {
				if msg.TryCount >= maxTries {
					res.Status = common.StatusFAILED
					return fmt.Errorf("too many retries: %w", err)
				}
				if service.Fatal(err) {
					res.Status = common.StatusFAILED
				}
				return err
			}
			log.Logger(ctx).Sugar().Infof("successfully imported %s", job.SourcePath+job.SourceURI)
			res.Status, res.Record, res.CachePath = common.StatusDONE, rec, cachePath
			return
		})
		if err != nil {
			return fmt.Errorf("ps.process: %w", err)
		}
	}
}

// importFiles imports local files, each one with a new uuid, and logs the results
func importFiles(ctx context.Context, proc *processor.Processor, files []string, workers int) error {
	jobs := make([]common.ImportJob, len(files))
	for i, file := range files {
		path, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("importFiles: %w", err)
		}
		jobs[i] = common.ImportJob{UUID: uuid.New().String(), SourcePath: path}
	}

	results, err := proc.ProcessAll(ctx, jobs, workers)
	if err != nil {
		return fmt.Errorf("importFiles.%w", err)
	}
	var errs []error
	for i, res := range results {
		resb, err := json.Marshal(res)
		if err != nil {
			return fmt.Errorf("importFiles: %w", err)
		}
		log.Logger(ctx).Info("result", zap.String("source", jobs[i].SourcePath), zap.ByteString("json", resb))
		if res.Status != common.StatusDONE {
			errs = append(errs, fmt.Errorf("%s: %s", jobs[i].SourcePath, res.Message))
		}
	}
	return service.MergeErrors(true, nil, errs...)
}
