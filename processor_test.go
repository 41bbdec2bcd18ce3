package linewise_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/linewise"
	"github.com/ygrebnov/linewise/metrics"
	"github.com/ygrebnov/linewise/transforms"
)

func writeInput(t *testing.T, content string) (src, dst string) {
	t.Helper()
	dir := t.TempDir()
	src = filepath.Join(dir, "in.txt")
	dst = filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(src, []byte(content), 0o600))
	return src, dst
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

// jitter sleeps for a random short time so lines complete out of order.
func jitter(d time.Duration) {
	time.Sleep(rand.N(d))
}

func upperDropC(line string) (string, bool, error) {
	jitter(5 * time.Millisecond)
	if line == "c" {
		return "", false, nil
	}
	return strings.ToUpper(line), true, nil
}

func TestProcessFile_UppercaseDropScenario(t *testing.T) {
	src, dst := writeInput(t, "a\nb\nc\nd\ne\n")

	p, err := linewise.New(linewise.FactoryOf(upperDropC), linewise.WithWorkers(3))
	require.NoError(t, err)

	stats, err := p.ProcessFile(context.Background(), src, dst)
	require.NoError(t, err)
	require.Equal(t, "A\nB\nD\nE\n", readOutput(t, dst))
	require.Equal(t, uint64(5), stats.Lines)
	require.Equal(t, uint64(4), stats.Written)
	require.Equal(t, uint64(1), stats.Dropped)
	require.Equal(t, 3, stats.Workers)
	require.NotEmpty(t, stats.RunID)
}

func TestProcessFile_EmptyInput(t *testing.T) {
	src, dst := writeInput(t, "")

	p, err := linewise.New(transforms.Identity(), linewise.WithWorkers(4))
	require.NoError(t, err)

	stats, err := p.ProcessFile(context.Background(), src, dst)
	require.NoError(t, err)
	require.FileExists(t, dst)
	require.Empty(t, readOutput(t, dst))
	require.Zero(t, stats.Lines)
}

func TestProcessFile_IdentityRoundTrip(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"terminated", "one\ntwo\nthree\n", "one\ntwo\nthree\n"},
		{"unterminated last line", "one\ntwo", "one\ntwo\n"},
		{"crlf", "one\r\ntwo\r\n", "one\ntwo\n"},
		{"blank lines", "\n\nx\n\n", "\n\nx\n\n"},
		{"unicode", "İstanbul'da\nçiçek\n", "İstanbul'da\nçiçek\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, dst := writeInput(t, tt.in)
			p, err := linewise.New(transforms.Identity(), linewise.WithWorkers(4), linewise.WithSoftCap(2))
			require.NoError(t, err)

			_, err = p.ProcessFile(context.Background(), src, dst)
			require.NoError(t, err)
			require.Equal(t, tt.want, readOutput(t, dst))
		})
	}
}

func numbered(n int) (content string, lines []string) {
	var sb strings.Builder
	lines = make([]string, n)
	for i := range n {
		lines[i] = fmt.Sprintf("line-%06d", i)
		sb.WriteString(lines[i])
		sb.WriteByte('\n')
	}
	return sb.String(), lines
}

// Output must be identical whatever the worker count, with lines completing in random order.
func TestProcessFile_OrderAndScalingInvariance(t *testing.T) {
	content, _ := numbered(2000)
	tr := linewise.FactoryOf(func(s string) (string, bool, error) {
		jitter(200 * time.Microsecond)
		if strings.HasSuffix(s, "7") {
			return "", false, nil
		}
		return strings.ToUpper(s), true, nil
	})

	var want string
	for _, n := range []int{1, 4, 64} {
		t.Run(fmt.Sprintf("workers=%d", n), func(t *testing.T) {
			src, dst := writeInput(t, content)
			p, err := linewise.New(tr, linewise.WithWorkers(n), linewise.WithWaterMarks(10, 30), linewise.WithSoftCap(8))
			require.NoError(t, err)

			stats, err := p.ProcessFile(context.Background(), src, dst)
			require.NoError(t, err)
			require.Equal(t, uint64(2000), stats.Lines)
			require.Equal(t, uint64(200), stats.Dropped)

			got := readOutput(t, dst)
			if want == "" {
				want = got
				lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
				require.Len(t, lines, 1800)
				for i := 1; i < len(lines); i++ {
					require.Less(t, lines[i-1], lines[i], "output out of order at %d", i)
				}
				return
			}
			require.Equal(t, want, got)
		})
	}
}

func TestProcessFile_InputNotFound(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.txt")

	p, err := linewise.New(transforms.Identity())
	require.NoError(t, err)

	_, err = p.ProcessFile(context.Background(), filepath.Join(dir, "missing.txt"), dst)
	require.ErrorIs(t, err, linewise.ErrInputNotFound)
	require.ErrorIs(t, err, os.ErrNotExist)
	require.NoFileExists(t, dst)

	_, err = p.ProcessFile(context.Background(), dir, dst)
	require.ErrorIs(t, err, linewise.ErrInputNotFound)
	require.NoFileExists(t, dst)
}

func TestProcessFile_TransformError(t *testing.T) {
	src, dst := writeInput(t, "a\nb\nbad\nd\n")
	boom := errors.New("cannot parse")

	p, err := linewise.New(linewise.FactoryOf(func(s string) (string, bool, error) {
		if s == "bad" {
			return "", false, boom
		}
		return s, true, nil
	}), linewise.WithWorkers(2))
	require.NoError(t, err)

	_, err = p.ProcessFile(context.Background(), src, dst)
	require.ErrorIs(t, err, linewise.ErrTransformFailed)
	require.ErrorIs(t, err, boom)
	seq, ok := linewise.ExtractLineSeq(err)
	require.True(t, ok)
	require.Equal(t, uint64(2), seq)
}

func TestProcessFile_TransformPanic(t *testing.T) {
	src, dst := writeInput(t, "a\nb\nc\n")

	p, err := linewise.New(linewise.FactoryOf(func(s string) (string, bool, error) {
		if s == "b" {
			panic("unexpected token")
		}
		return s, true, nil
	}), linewise.WithWorkers(2))
	require.NoError(t, err)

	_, err = p.ProcessFile(context.Background(), src, dst)
	require.ErrorIs(t, err, linewise.ErrTransformPanicked)
	seq, ok := linewise.ExtractLineSeq(err)
	require.True(t, ok)
	require.Equal(t, uint64(1), seq)
}

func TestProcessFile_FactoryError(t *testing.T) {
	src, dst := writeInput(t, "a\nb\n")
	boom := errors.New("model file missing")

	var calls atomic.Int32
	p, err := linewise.New(func() (linewise.Transform, error) {
		if calls.Add(1) == 2 {
			return nil, boom
		}
		return linewise.TransformFunc(func(s string) (string, bool, error) { return s, true, nil }), nil
	}, linewise.WithWorkers(3))
	require.NoError(t, err)

	_, err = p.ProcessFile(context.Background(), src, dst)
	require.ErrorIs(t, err, linewise.ErrTransformInit)
	require.ErrorIs(t, err, boom)
}

func TestProcessFile_FactoryCalledOncePerWorker(t *testing.T) {
	content, _ := numbered(500)
	src, dst := writeInput(t, content)

	var calls atomic.Int32
	p, err := linewise.New(func() (linewise.Transform, error) {
		calls.Add(1)
		return linewise.TransformFunc(func(s string) (string, bool, error) { return s, true, nil }), nil
	}, linewise.WithWorkers(5))
	require.NoError(t, err)

	_, err = p.ProcessFile(context.Background(), src, dst)
	require.NoError(t, err)
	require.Equal(t, int32(5), calls.Load())
}

func TestProcessFile_Interrupted(t *testing.T) {
	content, _ := numbered(1000)
	src, dst := writeInput(t, content)

	ctx, cancel := context.WithCancel(context.Background())
	var seen atomic.Int32
	p, err := linewise.New(linewise.FactoryOf(func(s string) (string, bool, error) {
		if seen.Add(1) == 20 {
			cancel()
		}
		time.Sleep(time.Millisecond)
		return s, true, nil
	}), linewise.WithWorkers(4))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := p.ProcessFile(ctx, src, dst)
		done <- err
	}()

	select {
	case err = <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop after cancellation")
	}
	require.ErrorIs(t, err, linewise.ErrInterrupted)
	require.ErrorIs(t, err, context.Canceled)
	require.FileExists(t, dst, "partial output is left in place")
}

func TestProcessFile_ConcurrentRuns(t *testing.T) {
	p, err := linewise.New(linewise.MapFunc(strings.ToUpper), linewise.WithWorkers(3))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 4 {
		content, lines := numbered(300 + i*50)
		src, dst := writeInput(t, content)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.ProcessFile(context.Background(), src, dst); err != nil {
				t.Errorf("run %d: %v", i, err)
				return
			}
			want := strings.ToUpper(strings.Join(lines, "\n")) + "\n"
			got, err := os.ReadFile(dst)
			if err != nil || string(got) != want {
				t.Errorf("run %d: output mismatch (err=%v)", i, err)
			}
		}()
	}
	wg.Wait()
}

func TestProcessFile_Metrics(t *testing.T) {
	src, dst := writeInput(t, "a\nb\nc\nd\ne\n")
	mp := metrics.NewMemoryProvider()

	p, err := linewise.New(linewise.FactoryOf(upperDropC), linewise.WithWorkers(2), linewise.WithMetrics(mp))
	require.NoError(t, err)
	_, err = p.ProcessFile(context.Background(), src, dst)
	require.NoError(t, err)

	s := mp.Snapshot()
	require.Equal(t, int64(5), s.Counters[metrics.LinesRead])
	require.Equal(t, int64(5), s.Counters[metrics.LinesProcessed])
	require.Equal(t, int64(4), s.Counters[metrics.LinesWritten])
	require.Equal(t, int64(1), s.Counters[metrics.LinesDropped])
	require.Equal(t, int64(0), s.Counters[metrics.ReorderPending])
	require.Equal(t, int64(5), s.Histograms[metrics.TransformSeconds].Count)
}

func TestProcessFile_Logging(t *testing.T) {
	src, dst := writeInput(t, "a\nb\nc\n")
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p, err := linewise.New(linewise.MapFunc(strings.ToUpper), linewise.WithLogger(log), linewise.WithProgressEvery(2))
	require.NoError(t, err)
	stats, err := p.ProcessFile(context.Background(), src, dst)
	require.NoError(t, err)

	var msgs []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		require.Equal(t, stats.RunID, rec["run_id"])
		msgs = append(msgs, rec["msg"].(string))
	}
	require.Equal(t, "processing started", msgs[0])
	require.Equal(t, "processing finished", msgs[len(msgs)-1])
	require.Contains(t, msgs, "processed lines")
}

func TestProcessStream(t *testing.T) {
	p, err := linewise.New(linewise.FactoryOf(upperDropC), linewise.WithWorkers(3))
	require.NoError(t, err)

	var out bytes.Buffer
	stats, err := p.ProcessStream(context.Background(), strings.NewReader("a\r\nb\nc\nd\ne"), &out)
	require.NoError(t, err)
	require.Equal(t, "A\nB\nD\nE\n", out.String())
	require.Equal(t, uint64(5), stats.Lines)
}

func TestProcessLines(t *testing.T) {
	got, err := linewise.ProcessLines(context.Background(), []string{"a", "b", "c", "d", "e"},
		linewise.FactoryOf(upperDropC), linewise.WithWorkers(3))
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "D", "E"}, got)

	got, err = linewise.ProcessLines(context.Background(), nil, transforms.Identity())
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = linewise.ProcessLines(context.Background(), []string{"x"}, nil)
	require.ErrorIs(t, err, linewise.ErrInvalidConfig)
}

// A last line that takes longer than the reorder timeout is slow, not lost.
func TestProcessLines_SlowLastLine(t *testing.T) {
	const timeout = 100 * time.Millisecond
	got, err := linewise.ProcessLines(context.Background(), []string{"a", "b", "slow"},
		linewise.FactoryOf(func(s string) (string, bool, error) {
			if s == "slow" {
				time.Sleep(3 * timeout)
			}
			return strings.ToUpper(s), true, nil
		}),
		linewise.WithWorkers(2),
		linewise.WithReorderTimeout(timeout),
	)
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "SLOW"}, got)
}

func TestProcessFile_SlowLineBehindGap(t *testing.T) {
	const timeout = 100 * time.Millisecond
	src, dst := writeInput(t, "slow\nb\nc\nd\n")

	p, err := linewise.New(linewise.FactoryOf(func(s string) (string, bool, error) {
		if s == "slow" {
			time.Sleep(4 * timeout)
		}
		return s, true, nil
	}), linewise.WithWorkers(3), linewise.WithReorderTimeout(timeout))
	require.NoError(t, err)

	_, err = p.ProcessFile(context.Background(), src, dst)
	require.NoError(t, err)
	require.Equal(t, "slow\nb\nc\nd\n", readOutput(t, dst))
}

func TestProcessLines_ClosesTransforms(t *testing.T) {
	var closed atomic.Int32
	factory := func() (linewise.Transform, error) {
		return &closer{closed: &closed}, nil
	}
	_, err := linewise.ProcessLines(context.Background(), []string{"x", "y"}, factory, linewise.WithWorkers(2))
	require.NoError(t, err)
	require.Equal(t, int32(2), closed.Load())
}

type closer struct {
	closed *atomic.Int32
}

func (c *closer) Transform(s string) (string, bool, error) { return s, true, nil }

func (c *closer) Close() error {
	c.closed.Add(1)
	return nil
}
