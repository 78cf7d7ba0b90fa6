package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option sets up a Repository
type Option func(*Repository)

// CommitOption describes a commit
type CommitOption func(*commitSettings)

type commitSettings struct {
	message string
	author  string
}

// Logger for the repository. The default is a no-op logger.
func Logger(l *zap.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.l = l
		}
	}
}

// Metrics registers the repository metrics with some prometheus registerer
func Metrics(reg prometheus.Registerer) Option {
	return func(r *Repository) {
		r.reg = reg
	}
}

// Clock sets the time source used to stamp revisions. The default is time.Now.
func Clock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// Message describes the change carried by a commit
func Message(message string) CommitOption {
	return func(s *commitSettings) {
		s.message = message
	}
}

// Author of a commit, e.g. a user or the job which produced a proposal
func Author(author string) CommitOption {
	return func(s *commitSettings) {
		s.author = author
	}
}
