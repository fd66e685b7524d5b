package node

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/luca-patrignani/agriblock/ledger"
)

type options struct {
	log        *slog.Logger
	registry   *prometheus.Registry
	validators []ledger.Validator
	ledgerOpts []ledger.Option
}

type Option func(options) options

// WithLogger replaces the logger built from the log section of the config.
func WithLogger(log *slog.Logger) Option {
	return func(o options) options {
		o.log = log
		return o
	}
}

// WithRegistry registers the node metrics with reg instead of a private registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o options) options {
		o.registry = reg
		return o
	}
}

// WithValidator runs v on every submitted transaction after the built-in checks.
func WithValidator(v ledger.Validator) Option {
	return func(o options) options {
		o.validators = append(o.validators, v)
		return o
	}
}

// WithLedgerOptions passes extra options to the ledger, applied last.
func WithLedgerOptions(opts ...ledger.Option) Option {
	return func(o options) options {
		o.ledgerOpts = append(o.ledgerOpts, opts...)
		return o
	}
}
