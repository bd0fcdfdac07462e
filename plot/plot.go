// Package plot samples compiled formulas the way a graphing surface does.
//
// A formula of x and y is evaluated once per column with the column's x and
// the previous sample's y, so that formulas such as "y + 0.1" describe simple
// recurrences. Samples where the formula has no value are kept as gaps rather
// than ending the sweep.
package plot

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Func is a formula of two variables that reports false where it has no
// value, such as the result of Parser.CompileXY.
type Func func(x, y float64) (float64, bool)

// Sample is the value of a formula at one x.
type Sample struct {
	X, Y float64
	// OK is false where the formula has no value. Y is then meaningless.
	OK bool
}

// Sweep evaluates fn at n evenly spaced points from x0 to x1 inclusive. Each
// evaluation receives the last valid y, starting from y0.
func Sweep(fn Func, x0, x1 float64, n int, y0 float64) []Sample {
	if n <= 0 {
		return nil
	}
	r := make([]Sample, n)
	prev := y0
	for i := range r {
		x := at(x0, x1, i, n)
		y, ok := fn(x, prev)
		r[i] = Sample{X: x, Y: y, OK: ok}
		if ok {
			prev = y
		}
	}
	return r
}

// Segments splits samples into runs of consecutive valid samples, the
// polylines a renderer draws. Invalid samples are dropped.
func Segments(samples []Sample) [][]Sample {
	var r [][]Sample
	start := -1
	for i, s := range samples {
		switch {
		case s.OK && start < 0:
			start = i
		case !s.OK && start >= 0:
			r = append(r, samples[start:i])
			start = -1
		}
	}
	if start >= 0 {
		r = append(r, samples[start:])
	}
	return r
}

// Grid evaluates fn at every pair of xs and ys. Row i of the result holds
// fn(xs[j], ys[i]) for each j. Rows are evaluated concurrently, at most
// GOMAXPROCS at a time. If ctx is canceled before every row is done, the
// result is nil and the error is the context's.
func Grid(ctx context.Context, fn Func, xs, ys []float64) ([][]Sample, error) {
	r := make([][]Sample, len(ys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, y := range ys {
		i, y := i, y
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row := make([]Sample, len(xs))
			for j, x := range xs {
				v, ok := fn(x, y)
				row[j] = Sample{X: x, Y: v, OK: ok}
			}
			r[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return r, nil
}

// Range returns n evenly spaced points from x0 to x1 inclusive.
func Range(x0, x1 float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	r := make([]float64, n)
	for i := range r {
		r[i] = at(x0, x1, i, n)
	}
	return r
}

func at(x0, x1 float64, i, n int) float64 {
	if n == 1 {
		return x0
	}
	if i == n-1 {
		return x1
	}
	return x0 + (x1-x0)*float64(i)/float64(n-1)
}
