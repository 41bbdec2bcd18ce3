package linewise

import "fmt"

// Transform maps one input line to at most one output line.
// ok == false means the line is dropped; it is not an error.
// A Transform instance is owned by a single worker and is never called concurrently,
// so implementations wrapping non-thread-safe libraries need no locking.
type Transform interface {
	Transform(line string) (out string, ok bool, err error)
}

// TransformFunc adapts an ordinary function to Transform.
type TransformFunc func(line string) (string, bool, error)

func (f TransformFunc) Transform(line string) (string, bool, error) { return f(line) }

// Factory builds a fresh Transform. The engine calls it exactly once per worker.
type Factory func() (Transform, error)

// FactoryOf returns a Factory that hands every worker the same stateless function.
func FactoryOf(fn func(line string) (string, bool, error)) Factory {
	return func() (Transform, error) { return TransformFunc(fn), nil }
}

// MapFunc returns a Factory for a transform that never drops lines and never fails.
func MapFunc(fn func(line string) string) Factory {
	return FactoryOf(func(line string) (string, bool, error) { return fn(line), true, nil })
}

// applyTransform runs t on a single line, converting panics into errors.
func applyTransform(t Transform, line string) (out string, ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, ok = "", false
			err = fmt.Errorf("%w: %v", ErrTransformPanicked, p)
		}
	}()
	out, ok, err = t.Transform(line)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrTransformFailed, err)
	}
	return out, ok, err
}
