// Package app wires the configured collaborators of the command line:
// result archive, run journal, instance cache, metric sinks and MQTT
// notifications, all fed from one run event bus.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kilianp07/tecsched/api/results"
	"github.com/kilianp07/tecsched/config"
	"github.com/kilianp07/tecsched/core/archive"
	"github.com/kilianp07/tecsched/core/events"
	coremetrics "github.com/kilianp07/tecsched/core/metrics"
	coremon "github.com/kilianp07/tecsched/core/monitoring"
	"github.com/kilianp07/tecsched/experiments"
	"github.com/kilianp07/tecsched/infra/cache"
	"github.com/kilianp07/tecsched/infra/logger"
	"github.com/kilianp07/tecsched/infra/metrics"
	"github.com/kilianp07/tecsched/infra/monitoring"
	"github.com/kilianp07/tecsched/infra/mqtt"
	"github.com/kilianp07/tecsched/internal/eventbus"
)

const busBuffer = 256

// Service owns the long lived collaborators of a command.
type Service struct {
	Store   *archive.FileStore
	Index   *archive.SQLiteIndex
	Journal *archive.Journal
	Cache   *cache.BadgerCache
	Sink    coremetrics.RunSink
	Bus     *eventbus.Bus[events.RunEvent]

	cfg  *config.Config
	log  logger.Logger
	mqtt *mqtt.PahoClient
	wg   sync.WaitGroup
	stop context.CancelFunc
}

// New creates a Service from the configuration. Optional collaborators
// are only opened when configured.
func New(cfg *config.Config) (*Service, error) {
	logger.SetLevel(cfg.Logging.Level)
	s := &Service{
		Store: archive.NewFileStore(archive.Layout{Root: cfg.Data.Root}),
		Bus:   eventbus.New[events.RunEvent](busBuffer),
		cfg:   cfg,
		log:   logger.New("service"),
	}

	var err error
	if cfg.Data.IndexPath != "" {
		if s.Index, err = archive.NewSQLiteIndex(cfg.Data.IndexPath); err != nil {
			return nil, s.closeOnError(fmt.Errorf("result index: %w", err))
		}
	}
	if cfg.Logging.JournalPath != "" {
		s.Journal, err = archive.NewJournal(cfg.Logging.JournalPath,
			cfg.Logging.MaxSizeMB, cfg.Logging.MaxBackups, cfg.Logging.MaxAgeDays)
		if err != nil {
			return nil, s.closeOnError(fmt.Errorf("run journal: %w", err))
		}
	}
	if cfg.Cache.Enabled {
		if s.Cache, err = cache.NewBadgerCache(cfg.Cache.Options); err != nil {
			return nil, s.closeOnError(fmt.Errorf("instance cache: %w", err))
		}
	}
	if s.Sink, err = coremetrics.NewSink(cfg.Metrics.Sinks); err != nil {
		return nil, s.closeOnError(fmt.Errorf("metrics sink: %w", err))
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, s.closeOnError(err)
	}
	coremon.Init(mon)
	if cfg.MQTT.Enabled {
		if s.mqtt, err = mqtt.NewPahoClient(cfg.MQTT.Config); err != nil {
			return nil, s.closeOnError(fmt.Errorf("mqtt client: %w", err))
		}
	}
	return s, nil
}

// Start launches the bus consumers: metric collector, journal and MQTT
// notifier, plus the Prometheus endpoint when an address is configured.
func (s *Service) Start(ctx context.Context) {
	ctx, s.stop = context.WithCancel(ctx)
	wait := func(done <-chan struct{}) {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			<-done
		}()
	}
	wait(metrics.StartEventCollector(ctx, s.Bus, s.Sink, s.log.With("consumer", "metrics")))
	if s.mqtt != nil {
		wait(mqtt.StartRunNotifier(ctx, s.Bus, s.mqtt, s.log.With("consumer", "mqtt")))
	}
	if s.Journal != nil {
		ch := s.Bus.Subscribe()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for ev := range ch {
				if err := s.Journal.Record(ev); err != nil {
					s.log.Warnf("journal %s/%s: %v", ev.RunID, ev.Phase, err)
				}
			}
		}()
	}
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
}

// Saver returns where run results go: the file store, and the index when
// one is configured.
func (s *Service) Saver() archive.Saver {
	if s.Index == nil {
		return s.Store
	}
	return archive.Tee{s.Store, s.Index}
}

// Runner returns an experiment runner bound to the service.
func (s *Service) Runner() *experiments.Runner {
	r := &experiments.Runner{
		Store:       s.Store,
		Bus:         s.Bus,
		Log:         logger.New("experiments"),
		Workers:     s.cfg.Experiments.Workers,
		FromScratch: s.cfg.Experiments.FromScratch,
	}
	if s.Index != nil {
		r.Index = s.Index
	}
	if s.Cache != nil {
		r.Cache = s.Cache
	}
	if rec, ok := s.Sink.(coremetrics.ExtendRecorder); ok {
		r.Extends = rec
	}
	return r
}

// API returns the results API handler. It requires the result index.
func (s *Service) API() (*results.Handler, error) {
	if s.Index == nil {
		return nil, errors.New("the results API requires data.index_path")
	}
	h := &results.Handler{
		Index:  s.Index,
		Loader: s.Store,
		Token:  s.cfg.API.Token,
		Log:    logger.New("api"),
	}
	if s.Journal != nil {
		h.Journal = s.Journal
	}
	return h, nil
}

// Config returns the loaded configuration.
func (s *Service) Config() *config.Config { return s.cfg }

// Logger returns the service logger.
func (s *Service) Logger() logger.Logger { return s.log }

// Close drains the bus consumers and releases every resource.
func (s *Service) Close() error {
	s.Bus.Close()
	s.wg.Wait()
	if s.stop != nil {
		s.stop()
	}
	coremon.Flush(2 * time.Second)
	var errs []error
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	if s.Cache != nil {
		errs = append(errs, s.Cache.Close())
	}
	if s.Journal != nil {
		errs = append(errs, s.Journal.Close())
	}
	if s.Index != nil {
		errs = append(errs, s.Index.Close())
	}
	return errors.Join(errs...)
}

func (s *Service) closeOnError(err error) error {
	return errors.Join(err, s.Close())
}
