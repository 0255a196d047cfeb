package pyroscope

import (
	"context"
	"strings"

	"github.com/branchschool/installments/internal/config"
	"github.com/branchschool/installments/internal/logger"
	"github.com/grafana/pyroscope-go"
	"go.uber.org/fx"
)

// Label keys attached to installment work so profiles can be sliced by tenant
// and by the path that triggered generation.
const (
	LabelOperation = "operation"
	LabelTenantID  = "tenant_id"
	LabelEndpoint  = "endpoint"
	LabelMethod    = "method"

	OperationSweep   = "installment_sweep"
	OperationRequest = "http_request"
)

var defaultProfileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
}

var profileTypesByName = map[string]pyroscope.ProfileType{
	"cpu":            pyroscope.ProfileCPU,
	"inuse_objects":  pyroscope.ProfileInuseObjects,
	"alloc_objects":  pyroscope.ProfileAllocObjects,
	"inuse_space":    pyroscope.ProfileInuseSpace,
	"alloc_space":    pyroscope.ProfileAllocSpace,
	"goroutines":     pyroscope.ProfileGoroutines,
	"mutex_count":    pyroscope.ProfileMutexCount,
	"mutex_duration": pyroscope.ProfileMutexDuration,
	"block_count":    pyroscope.ProfileBlockCount,
	"block_duration": pyroscope.ProfileBlockDuration,
}

// Service owns the continuous profiler. A nil or disabled Service runs
// labelled work without profiling it.
type Service struct {
	cfg      *config.Configuration
	logger   *logger.Logger
	profiler *pyroscope.Profiler
}

func Module() fx.Option {
	return fx.Options(
		fx.Provide(NewPyroscopeService),
		fx.Invoke(RegisterHooks),
	)
}

func NewPyroscopeService(cfg *config.Configuration, logger *logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
	}
}

func RegisterHooks(lc fx.Lifecycle, svc *Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return svc.Start()
		},
		OnStop: func(ctx context.Context) error {
			return svc.Stop()
		},
	})
}

// Start connects to the profiling server when profiling is enabled
func (s *Service) Start() error {
	if !s.IsEnabled() {
		s.logger.Info("pyroscope profiling is disabled")
		return nil
	}

	pc := s.cfg.Pyroscope
	profileTypes := s.ProfileTypes()
	s.logger.Infow("starting pyroscope",
		"server_address", pc.ServerAddress,
		"application_name", pc.ApplicationName,
		"sample_rate", pc.SampleRate,
		"profile_types", profileTypes,
	)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   pc.ApplicationName,
		ServerAddress:     pc.ServerAddress,
		BasicAuthUser:     pc.BasicAuthUser,
		BasicAuthPassword: pc.BasicAuthPass,
		ProfileTypes:      profileTypes,
		SampleRate:        pc.SampleRate,
		DisableGCRuns:     pc.DisableGCRuns,
		Logger:            s,
		Tags:              map[string]string{"deployment_mode": string(s.cfg.Deployment.Mode)},
	})
	if err != nil {
		s.logger.Errorw("failed to initialize pyroscope", "error", err)
		return err
	}
	s.profiler = profiler
	return nil
}

func (s *Service) Stop() error {
	if s == nil || s.profiler == nil {
		return nil
	}
	s.logger.Info("stopping pyroscope profiling")
	return s.profiler.Stop()
}

func (s *Service) IsEnabled() bool {
	return s != nil && s.cfg.Pyroscope.Enabled
}

// ProfileTypes resolves the configured profile names, skipping unknown ones
func (s *Service) ProfileTypes() []pyroscope.ProfileType {
	if len(s.cfg.Pyroscope.ProfileTypes) == 0 {
		return defaultProfileTypes
	}

	types := make([]pyroscope.ProfileType, 0, len(s.cfg.Pyroscope.ProfileTypes))
	for _, name := range s.cfg.Pyroscope.ProfileTypes {
		pt, ok := profileTypesByName[strings.ToLower(name)]
		if !ok {
			s.logger.Warnw("unknown pyroscope profile type", "type", name)
			continue
		}
		types = append(types, pt)
	}
	return types
}

// Debugf, Infof and Errorf satisfy pyroscope.Logger; debug output is dropped
func (s *Service) Debugf(format string, args ...interface{}) {}

func (s *Service) Infof(format string, args ...interface{}) {
	s.logger.Infof("[Pyroscope] "+format, args...)
}

func (s *Service) Errorf(format string, args ...interface{}) {
	s.logger.Errorf("[Pyroscope] "+format, args...)
}

// SweepLabels tags one plan's generation inside a due-invoice sweep
func SweepLabels(tenantID string) map[string]string {
	return map[string]string{
		LabelOperation: OperationSweep,
		LabelTenantID:  tenantID,
	}
}

// RequestLabels tags an authenticated API request
func RequestLabels(method, endpoint, tenantID string) map[string]string {
	return map[string]string{
		LabelOperation: OperationRequest,
		LabelMethod:    method,
		LabelEndpoint:  endpoint,
		LabelTenantID:  tenantID,
	}
}

// TagWrapper runs fn with the given profiling labels. Empty label values are
// dropped so they do not fragment the profile.
func (s *Service) TagWrapper(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	if !s.IsEnabled() {
		fn(ctx)
		return
	}

	pairs := make([]string, 0, len(labels)*2)
	for key, value := range labels {
		if value == "" {
			continue
		}
		pairs = append(pairs, key, value)
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}
