package bind

import (
	"context"
	"io"
	"os"
)

type outputKey struct{}

type converterKey struct{}

// WithOutput returns a context whose bound functions print to w.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

// Output returns the writer bound functions print to. It defaults to
// standard output.
func Output(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok {
		return w
	}
	return os.Stdout
}

// ConverterFrom returns the converter of the call in progress. Bound
// functions that take a context.Context use it to render or wrap values.
func ConverterFrom(ctx context.Context) *Converter {
	if c, ok := ctx.Value(converterKey{}).(*Converter); ok {
		return c
	}
	return nil
}

func withConverter(ctx context.Context, conv *Converter) context.Context {
	if ConverterFrom(ctx) == conv {
		return ctx
	}
	return context.WithValue(ctx, converterKey{}, conv)
}
