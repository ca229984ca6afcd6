package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/capture"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/config"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/dms"
	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/mail"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/share"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/digest"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/importer"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/orchestrator"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/refdata"
	"github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/validate"
)

var (
	flagPreview            bool
	flagNoMail             bool
	flagIgnoreSourceErrors bool
)

func main() {
	root := &cobra.Command{
		Use:   "dataimport",
		Short: "Drain pending dataset notifications, validate them, and commit creation records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run()
		},
	}
	root.Flags().BoolVar(&flagPreview, "preview", false,
		"trace mode: consume nothing, shorten stability sleeps, return queue rows to pending")
	root.Flags().BoolVar(&flagNoMail, "no-mail", false,
		"render digests to the log instead of transmitting them")
	root.Flags().BoolVar(&flagIgnoreSourceErrors, "ignore-instrument-source-errors", false,
		"proceed past unexpected instrument network errors instead of deferring the dataset")
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	appCfg, err := config.Read()
	if err != nil {
		log.WithFields(log.Fields{
			"event": "config_read_failed",
		}).Error(err)
		return err
	}
	log.Init("dataimport", appCfg.Manager.LogLevel)
	log.WithFields(log.Fields{
		"event": "init_service",
	}).Info("service initialized")

	repo, err := dms.InitPGRepository(dms.Config{DSN: appCfg.Storage.DSN})
	if err != nil {
		log.WithFields(log.Fields{
			"event": "storage_conn_failed",
		}).Error(err)
		return err
	}

	shareCli := share.InitCIFSClient(share.Config{
		Username:        appCfg.Bionet.Username,
		EncodedPassword: appCfg.Bionet.EncodedPassword,
		MountRoot:       appCfg.Bionet.MountRoot,
		RecoverCommand:  appCfg.Bionet.RecoverCommand,
	})

	var sender mail.Sender
	if appCfg.Mail.Disabled || flagNoMail || flagPreview {
		sender = mail.InitPreviewSender()
	} else {
		sender = mail.InitSMTPSender(mail.Config{
			Server: appCfg.Mail.Server,
			Port:   appCfg.Mail.Port,
			From:   appCfg.Mail.From,
		})
	}

	cache := refdata.InitCache(repo, appCfg.Storage.Retries)
	skip := orchestrator.InitSkipRegistry()

	sleepInterval := time.Duration(appCfg.Validation.SleepIntervalSec) * time.Second
	if flagPreview {
		// Shortened explicitly, never silently.
		sleepInterval = time.Second
	}
	validator := validate.InitValidator(cache, shareCli, validate.DefaultClassifier(), skip, validate.Config{
		SleepInterval:      sleepInterval,
		TimeTolerance:      time.Duration(appCfg.Validation.TimeToleranceMin) * time.Minute,
		IgnoreSourceErrors: flagIgnoreSourceErrors,
	})

	imp := importer.InitImporter(repo,
		appCfg.Commit.Permits,
		time.Duration(appCfg.Commit.TimeoutSec)*time.Second,
		flagPreview)

	fileSource := capture.InitFileSource(capture.FileSourceConfig{
		Directory:  appCfg.Trigger.Directory,
		SuccessDir: appCfg.Trigger.SuccessDir,
		FailureDir: appCfg.Trigger.FailureDir,
		HoldoffDir: appCfg.Trigger.HoldoffDir,
	})
	queueSource := capture.InitQueueSource(repo, flagPreview)

	mailQueue := digest.InitQueue()
	aggregator := digest.InitAggregator(sender, appCfg.Mail.LogFileURL)

	orc := orchestrator.InitOrchestrator(orchestrator.Deps{
		FileSource:  fileSource,
		QueueSource: queueSource,
		Validator:   validator,
		Importer:    imp,
		Cache:       cache,
		Repo:        repo,
		Share:       shareCli,
		Guard:       orchestrator.InitRunGuard(appCfg.Manager.WorkDir, appCfg.Manager.DevHost),
		Skip:        skip,
		MailQueue:   mailQueue,
		Aggregator:  aggregator,
	}, orchestrator.Config{
		Parallelism: appCfg.Validation.Parallelism,
		BatchSize:   appCfg.Validation.BatchSize,
		Admins:      appCfg.Mail.Admins,
	})

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-done
		log.WithFields(log.Fields{
			"event": "ctx_cancel",
		}).Info("received syscall; finishing the current batch")
		cancel()
	}()

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:    appCfg.Manager.MetricsAddr,
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen: ", err)
		}
	}()
	defer srv.Shutdown(context.Background())

	if err := orc.Run(ctx); err != nil {
		log.WithFields(log.Fields{
			"event": "run_failed",
		}).Error(err)
		return err
	}
	log.WithFields(log.Fields{
		"event": "run_complete",
	}).Info("all pending candidates processed")
	return nil
}
