package gateway

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"lingo_gateway/internal/accounting"
	"lingo_gateway/internal/cache"
	"lingo_gateway/internal/features"
	"lingo_gateway/internal/history"
	"lingo_gateway/internal/providers"
	"lingo_gateway/internal/utils"
)

// Result is the outcome of one successful request.
type Result struct {
	Feature    string         `json:"feature"`
	Data       map[string]any `json:"data"`
	UsageUnits int            `json:"usage_units"`
	Source     string         `json:"source"`
}

// Options holds orchestrator tuning.
type Options struct {
	TTLShort       time.Duration
	TTLLong        time.Duration
	RecordFailures bool
}

// Orchestrator runs the request pipeline. Concurrent identical misses are
// coalesced into a single provider call; only the call that actually reaches
// the provider is billed.
type Orchestrator struct {
	catalog *features.Catalog
	cache   cache.Store
	client  providers.Client
	retryer *Retryer
	ledger  accounting.Accountant
	history history.Recorder
	opts    Options
	group   singleflight.Group
	logger  *utils.Logger
}

// New creates an orchestrator over the given stores and provider client.
func New(
	catalog *features.Catalog,
	store cache.Store,
	client providers.Client,
	retryer *Retryer,
	ledger accounting.Accountant,
	recorder history.Recorder,
	opts Options,
) *Orchestrator {
	if opts.TTLShort <= 0 {
		opts.TTLShort = 1 * time.Hour
	}
	if opts.TTLLong <= 0 {
		opts.TTLLong = 24 * time.Hour
	}
	return &Orchestrator{
		catalog: catalog,
		cache:   store,
		client:  client,
		retryer: retryer,
		ledger:  ledger,
		history: recorder,
		opts:    opts,
		logger:  utils.NewLogger("orchestrator"),
	}
}

// generated carries a provider call's outcome through the singleflight group.
type generated struct {
	data  map[string]any
	units int
}

// Execute validates the request, consults the cache, and falls back to a
// retried provider call. Usage is recorded only for responses that actually
// reached the provider; cache hits and coalesced followers cost nothing.
func (o *Orchestrator) Execute(ctx context.Context, feature string, params map[string]any) (*Result, error) {
	normalized, err := o.catalog.ValidateRequest(feature, params)
	if err != nil {
		return nil, validationError(err)
	}

	def, _ := o.catalog.Get(feature)
	key := cache.Key(feature, normalized)
	summary := o.catalog.Summarize(feature, normalized)

	if raw, found, err := o.cache.Get(ctx, key); err != nil {
		// A broken cache degrades to a miss rather than failing the request.
		o.logger.Warn("Cache lookup failed", "feature", feature, "error", err)
	} else if found {
		if data, err := o.catalog.ValidateResponse(feature, raw); err == nil {
			o.record(ctx, feature, summary, history.SourceCache, 0)
			return &Result{Feature: feature, Data: data, UsageUnits: 0, Source: "cache"}, nil
		}
		o.logger.Warn("Discarding invalid cache entry", "feature", feature, "key", key)
	}

	// The closure runs synchronously in the caller that wins the flight, so
	// leader is true for exactly the one call that reached the provider.
	// Group.Do's shared flag cannot tell that caller apart: it reports true
	// for every member of a shared flight, the leader included.
	var leader bool
	value, err, _ := o.group.Do(key, func() (interface{}, error) {
		leader = true
		return o.generate(ctx, feature, def, normalized, key)
	})
	if err != nil {
		if o.opts.RecordFailures {
			o.record(ctx, feature, summary, history.SourceError, 0)
		}
		return nil, err
	}

	gen := value.(*generated)
	if !leader {
		// Followers ride on the leader's provider call.
		o.record(ctx, feature, summary, history.SourceCache, 0)
		return &Result{Feature: feature, Data: cloneData(gen.data), UsageUnits: 0, Source: "cache"}, nil
	}

	o.record(ctx, feature, summary, history.SourceProvider, gen.units)
	return &Result{Feature: feature, Data: cloneData(gen.data), UsageUnits: gen.units, Source: "provider"}, nil
}

// cloneData copies a validated response so callers sharing one flight never
// hand out the same mutable maps and slices. Values are the shapes
// Schema.Validate produces: scalars, []string and []map[string]any.
func cloneData(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case []string:
			out[k] = append([]string(nil), t...)
		case []map[string]any:
			objs := make([]map[string]any, len(t))
			for i, obj := range t {
				objs[i] = cloneData(obj)
			}
			out[k] = objs
		case map[string]any:
			out[k] = cloneData(t)
		default:
			out[k] = v
		}
	}
	return out
}

// generate performs the retried provider call for a cache miss and stores the
// validated response. Runs at most once per key at a time.
func (o *Orchestrator) generate(ctx context.Context, feature string, def *features.Feature, params map[string]any, key string) (*generated, error) {
	spec, err := o.catalog.Build(feature, params)
	if err != nil {
		return nil, validationError(err)
	}

	var resp *providers.GenerateResponse
	callErr := o.retryer.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = o.client.Generate(ctx, spec)
		return err
	})
	if callErr != nil {
		o.logger.Error("Provider call failed", "feature", feature, "error", callErr)
		return nil, terminalError(callErr)
	}

	data, err := o.catalog.ValidateResponse(feature, resp.Output)
	if err != nil {
		o.logger.Error("Provider response failed validation", "feature", feature, "error", err)
		return nil, parseError(err)
	}

	if err := o.cache.Set(ctx, key, resp.Output, o.ttlFor(def)); err != nil {
		o.logger.Warn("Cache store failed", "feature", feature, "error", err)
	}

	if _, err := o.ledger.Record(ctx, resp.UsageUnits); err != nil {
		o.logger.Error("Usage recording failed", "feature", feature, "error", err)
	}

	o.logger.Info("Provider call completed",
		"feature", feature,
		"usage_units", resp.UsageUnits,
		"latency", resp.Latency)

	return &generated{data: data, units: resp.UsageUnits}, nil
}

func (o *Orchestrator) ttlFor(def *features.Feature) time.Duration {
	if def.TTLClass == features.TTLLong {
		return o.opts.TTLLong
	}
	return o.opts.TTLShort
}

func (o *Orchestrator) record(ctx context.Context, feature, detail, source string, units int) {
	err := o.history.Append(ctx, history.Record{
		Feature:    feature,
		Detail:     detail,
		Source:     source,
		UsageUnits: units,
	})
	if err != nil {
		o.logger.Error("History append failed", "feature", feature, "error", err)
	}
}
