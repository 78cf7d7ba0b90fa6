package cmd

import (
	"io"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	jaegerzap "github.com/uber/jaeger-client-go/log/zap"
	"github.com/uber/jaeger-lib/metrics"
	jprom "github.com/uber/jaeger-lib/metrics/prometheus"
	"go.uber.org/zap"
)

const serviceName = "ctxmon"

// tracer metrics are registered once per process
var tracerMetrics = sync.OnceValue(func() metrics.Factory {
	return jprom.New()
})

// initTracer builds a jaeger tracer configured from the standard JAEGER_* environment variables.
//
// Unless a sampler is configured, every trace is sampled.
func initTracer(l *zap.Logger) (opentracing.Tracer, io.Closer, error) {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		return nil, nil, err
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = serviceName
	}
	if cfg.Sampler.Type == "" {
		cfg.Sampler.Type = jaeger.SamplerTypeConst
		cfg.Sampler.Param = 1
	}

	return cfg.NewTracer(
		jaegercfg.Logger(jaegerzap.NewLogger(l)),
		jaegercfg.Metrics(tracerMetrics()),
	)
}
