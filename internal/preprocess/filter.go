// Package preprocess turns raw captured audio frames into speech-only
// segments: band-limiting filters, noise gating, level normalization, and
// energy-based voice activity segmentation.
package preprocess

import (
	"fmt"
	"math"
)

// FilterName identifies the kind of digital filter.
type FilterName int

const (
	Undefined FilterName = iota
	LowPass
	HighPass
)

// Filter is a biquad digital filter based on Robert Bristow-Johnson's
// audio EQ cookbook.
type Filter struct {
	name FilterName

	// state variables
	in1  []float64
	in2  []float64
	out1 []float64
	out2 []float64

	// digital filter parameters
	a0 float64
	a1 float64
	a2 float64
	b0 float64
	b1 float64
	b2 float64

	// number of passes
	passes int

	// Pre-computed coefficients
	b0a0, b1a0, b2a0, a1a0, a2a0 float64
}

// NewFilter creates a new Filter with the specified number of passes.
func NewFilter(name FilterName, a0, a1, a2, b0, b1, b2 float64, passes int) *Filter {
	f := &Filter{
		name:   name,
		a0:     a0,
		a1:     a1,
		a2:     a2,
		b0:     b0,
		b1:     b1,
		b2:     b2,
		passes: passes,
		in1:    make([]float64, passes),
		in2:    make([]float64, passes),
		out1:   make([]float64, passes),
		out2:   make([]float64, passes),
	}

	f.b0a0 = b0 / a0
	f.b1a0 = b1 / a0
	f.b2a0 = b2 / a0
	f.a1a0 = a1 / a0
	f.a2a0 = a2 / a0

	return f
}

// ApplyBatch applies the filter to a batch of samples in place.
func (f *Filter) ApplyBatch(input []float64) {
	for p := range f.passes {
		for i := range input {
			output := f.b0a0*input[i] + f.b1a0*f.in1[p] + f.b2a0*f.in2[p] -
				f.a1a0*f.out1[p] - f.a2a0*f.out2[p]

			f.in2[p] = f.in1[p]
			f.in1[p] = input[i]
			f.out2[p] = f.out1[p]
			f.out1[p] = output

			input[i] = output
		}
	}
}

// Reset clears the filter state so a new run starts cold.
func (f *Filter) Reset() {
	for p := 0; p < f.passes; p++ {
		f.in1[p], f.in2[p] = 0, 0
		f.out1[p], f.out2[p] = 0, 0
	}
}

// NewLowPass returns a low-pass filter with cutoff frequency in Hz.
// q must be greater than 0, passes 1 or greater.
func NewLowPass(sampleRate, frequency, q float64, passes int) (*Filter, error) {
	if passes < 1 {
		return nil, fmt.Errorf("passes must be 1 or greater")
	}
	if frequency <= 0 || frequency >= sampleRate/2 {
		return nil, fmt.Errorf("cutoff frequency %.1f Hz out of range for sample rate %.0f", frequency, sampleRate)
	}

	w0 := 2.0 * math.Pi * frequency / sampleRate
	alpha := math.Sin(w0) / (2.0 * q)

	return NewFilter(
		LowPass,
		1.0+alpha,
		-2.0*math.Cos(w0),
		1.0-alpha,
		(1.0-math.Cos(w0))/2.0,
		1.0-math.Cos(w0),
		(1.0-math.Cos(w0))/2.0,
		passes,
	), nil
}

// NewHighPass returns a high-pass filter with cutoff frequency in Hz.
// q must be greater than 0, passes 1 or greater.
func NewHighPass(sampleRate, frequency, q float64, passes int) (*Filter, error) {
	if passes < 1 {
		return nil, fmt.Errorf("passes must be 1 or greater")
	}
	if frequency <= 0 || frequency >= sampleRate/2 {
		return nil, fmt.Errorf("cutoff frequency %.1f Hz out of range for sample rate %.0f", frequency, sampleRate)
	}

	w0 := 2.0 * math.Pi * frequency / sampleRate
	alpha := math.Sin(w0) / (2.0 * q)

	return NewFilter(
		HighPass,
		1.0+alpha,
		-2.0*math.Cos(w0),
		1.0-alpha,
		(1.0+math.Cos(w0))/2.0,
		-1.0*(1.0+math.Cos(w0)),
		(1.0+math.Cos(w0))/2.0,
		passes,
	), nil
}

// FilterChain applies a sequence of filters in order.
type FilterChain struct {
	filters []*Filter
}

// NewFilterChain creates an empty filter chain.
func NewFilterChain() *FilterChain {
	return &FilterChain{}
}

// Add appends a filter to the chain.
func (fc *FilterChain) Add(f *Filter) {
	fc.filters = append(fc.filters, f)
}

// ApplyBatch runs the whole chain over the samples in place.
func (fc *FilterChain) ApplyBatch(samples []float64) {
	for _, f := range fc.filters {
		f.ApplyBatch(samples)
	}
}

// Reset clears the state of every filter in the chain.
func (fc *FilterChain) Reset() {
	for _, f := range fc.filters {
		f.Reset()
	}
}

// Len returns the number of filters in the chain.
func (fc *FilterChain) Len() int {
	return len(fc.filters)
}
