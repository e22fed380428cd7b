// Package assess runs one structural risk evaluation: it validates the form
// values, derives area and volume, looks up the seismic zone of the selected
// point and scores the structure.
package assess

import (
	"errors"
	"fmt"
	"math"
	"time"

	"SafeStruct/internal/calc/irs"
	"SafeStruct/internal/calc/zones"
	"SafeStruct/internal/observability"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var ErrInvalidInput = errors.New("invalid input")

// Form limits of the calculator.
const (
	MinHeightM    = 1.0
	MaxHeightM    = 100.0
	MaxLoadKN     = 5000.0
	MinDimensionM = 1.0
	MaxDimensionM = 100.0
)

type Input struct {
	Lat      float64      `json:"lat"`
	Lon      float64      `json:"lon"`
	HeightM  float64      `json:"height_m"`
	LoadKN   float64      `json:"load_kn"`
	LengthM  float64      `json:"length_m"`
	WidthM   float64      `json:"width_m"`
	Material irs.Material `json:"material"`
}

func (in Input) AreaM2() float64   { return in.LengthM * in.WidthM }
func (in Input) VolumeM3() float64 { return in.AreaM2() * in.HeightM }

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Validate checks the input against the calculator form limits.
func (in Input) Validate() error {
	checks := []struct {
		field    string
		v        float64
		min, max float64
	}{
		{"lat", in.Lat, -90, 90},
		{"lon", in.Lon, -180, 180},
		{"height_m", in.HeightM, MinHeightM, MaxHeightM},
		{"load_kn", in.LoadKN, 0, MaxLoadKN},
		{"length_m", in.LengthM, MinDimensionM, MaxDimensionM},
		{"width_m", in.WidthM, MinDimensionM, MaxDimensionM},
	}
	for _, c := range checks {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return &ValidationError{Field: c.field, Reason: "must be a finite number"}
		}
		if c.v < c.min || c.v > c.max {
			return &ValidationError{Field: c.field, Reason: fmt.Sprintf("must be between %g and %g", c.min, c.max)}
		}
	}
	return nil
}

type Zone struct {
	PGA     float64        `json:"pga"`
	Soil    zones.SoilType `json:"soil_type"`
	Matched bool           `json:"matched"`
}

type Assessment struct {
	Input       Input      `json:"input"`
	AreaM2      float64    `json:"area_m2"`
	VolumeM3    float64    `json:"volume_m3"`
	Zone        Zone       `json:"zone"`
	Result      irs.Result `json:"result"`
	EvaluatedAt time.Time  `json:"evaluated_at"`
}

// Evaluator is safe for concurrent use; the zone table is never mutated.
type Evaluator struct {
	table   *zones.Table
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *zap.Logger
}

type Option func(*Evaluator)

func WithClock(c clockwork.Clock) Option {
	return func(e *Evaluator) { e.clock = c }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

func NewEvaluator(table *zones.Table, opts ...Option) *Evaluator {
	e := &Evaluator{
		table:  table,
		clock:  clockwork.NewRealClock(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics != nil {
		e.metrics.ZoneTableRows.Set(float64(table.Len()))
	}
	return e
}

func (e *Evaluator) Zones() *zones.Table { return e.table }

// Lookup resolves the seismic zone of a point.
func (e *Evaluator) Lookup(lat, lon float64) Zone {
	z, ok := e.table.Match(lat, lon)
	if !ok {
		e.observeLookup("default")
		return Zone{PGA: zones.DefaultPGA, Soil: zones.DefaultSoil}
	}
	e.observeLookup("matched")
	return Zone{PGA: z.PGA, Soil: z.Soil, Matched: true}
}

// Evaluate validates the input and scores it. An empty material means
// concrete, the calculator's first choice.
func (e *Evaluator) Evaluate(in Input) (Assessment, error) {
	if err := in.Validate(); err != nil {
		var ve *ValidationError
		if e.metrics != nil && errors.As(err, &ve) {
			e.metrics.ValidationErrors.WithLabelValues(ve.Field).Inc()
		}
		return Assessment{}, err
	}
	if in.Material == "" {
		in.Material = irs.MaterialConcrete
	}
	if !irs.KnownMaterial(in.Material) {
		e.logger.Debug("unknown material, using neutral factor", zap.String("material", string(in.Material)))
	}

	zone := e.Lookup(in.Lat, in.Lon)
	area := in.AreaM2()
	volume := in.VolumeM3()

	result := irs.Compute(irs.Params{
		HeightM:  in.HeightM,
		LoadKN:   in.LoadKN,
		PGA:      zone.PGA,
		SoilType: string(zone.Soil),
		Material: in.Material,
		AreaM2:   area,
		VolumeM3: volume,
	})

	if e.metrics != nil {
		e.metrics.Assessments.WithLabelValues(string(result.Category)).Inc()
		e.metrics.IndexValue.Observe(result.Index)
	}

	return Assessment{
		Input:       in,
		AreaM2:      area,
		VolumeM3:    volume,
		Zone:        zone,
		Result:      result,
		EvaluatedAt: e.clock.Now().UTC(),
	}, nil
}

func (e *Evaluator) observeLookup(result string) {
	if e.metrics != nil {
		e.metrics.ZoneLookups.WithLabelValues(result).Inc()
	}
}
