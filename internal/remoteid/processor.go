package remoteid

import "time"

// Outcome is what happened to one advertisement.
type Outcome int

// Processing outcomes. Only OutcomeMerged changes the registry.
const (
	OutcomeMerged Outcome = iota
	OutcomeNoSignature
	OutcomeUnknownTag
	OutcomeDecodeFailed
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeMerged:
		return "merged"
	case OutcomeNoSignature:
		return "no_signature"
	case OutcomeUnknownTag:
		return "unknown_tag"
	case OutcomeDecodeFailed:
		return "decode_failed"
	default:
		return "unknown"
	}
}

// Result describes the processing of one advertisement.
type Result struct {
	Outcome Outcome

	// Kind and Resolution are set when Outcome is OutcomeMerged.
	Kind       Kind
	Resolution Resolution
}

// ProcessorOptions configures a Processor.
type ProcessorOptions struct {
	// Decoder decodes message blocks. Defaults to ODIDDecoder.
	Decoder Decoder

	// Clock supplies last-seen timestamps. Defaults to time.Now.
	Clock func() time.Time

	// Logger receives debug output for dropped adverts.
	Logger Logger
}

// Processor runs signature detection, classification and registry merge
// for each advertisement.
type Processor struct {
	classifier *Classifier
	registry   *Registry
	clock      func() time.Time
	logger     Logger
}

// NewProcessor creates a Processor feeding registry.
func NewProcessor(registry *Registry, opts ProcessorOptions) *Processor {
	p := &Processor{
		classifier: NewClassifier(opts.Decoder),
		registry:   registry,
		clock:      opts.Clock,
		logger:     opts.Logger,
	}
	if p.clock == nil {
		p.clock = time.Now
	}
	if p.logger == nil {
		p.logger = noopLogger{}
	}
	return p
}

// Registry returns the registry the processor feeds.
func (p *Processor) Registry() *Registry {
	return p.registry
}

// Process handles one advertisement. Adverts that are not Remote ID, carry
// an untracked message kind, or fail to decode leave the registry untouched.
func (p *Processor) Process(adv RawAdvertisement) Result {
	block, ok := SubMessage(adv.Payload)
	if !ok {
		return Result{Outcome: OutcomeNoSignature}
	}

	msg, outcome := p.classifier.Classify(block)
	if outcome != OutcomeMerged {
		p.logger.Debug("advertisement dropped",
			"address", adv.Address.String(),
			"outcome", outcome.String(),
			"length", len(block),
		)
		return Result{Outcome: outcome}
	}

	res := p.registry.Ingest(adv.Address, msg, adv.RSSI, p.clock())
	return Result{Outcome: OutcomeMerged, Kind: msg.Kind(), Resolution: res}
}
