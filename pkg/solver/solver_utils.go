package solver

import (
	"bufio"
	"context"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/limaJavier/ilpenum/pkg/logging"
	"github.com/limaJavier/ilpenum/pkg/model"
)

const (
	outputTailLines   = 20
	integralTolerance = 1e-6
)

type runFiles struct {
	model  string
	output string
	result string
}

// prepareRun writes the model into the run directory and truncates the result file so that a
// solver exiting without writing it reads as infeasible
func prepareRun(document *model.Document, workingDirectory string) (runFiles, error) {
	files := runFiles{
		model:  filepath.Join(workingDirectory, ModelFile),
		output: filepath.Join(workingDirectory, OutputFile),
		result: filepath.Join(workingDirectory, ResultFile),
	}
	if err := document.Save(files.model); err != nil {
		return runFiles{}, err
	}
	if err := os.WriteFile(files.result, nil, 0666); err != nil {
		return runFiles{}, errors.Wrapf(err, "cannot create result file %q", files.result)
	}
	return files, nil
}

// streamOutput copies reader line by line into output and, unless quiet, the logger. It returns
// the last lines read so that failures can show them.
func streamOutput(reader io.Reader, output io.Writer, logger logging.Logger, quiet bool) ([]string, error) {
	tail := make([]string, 0, outputTailLines)
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if _, err := io.WriteString(output, line+"\n"); err != nil {
			return tail, errors.Wrap(err, "cannot write solver output")
		}
		if !quiet {
			logger.Write(line)
		}

		if len(tail) == outputTailLines {
			tail = tail[1:]
		}
		tail = append(tail, line)
	}
	return tail, scanner.Err()
}

// writeOutput appends lines to the run's output file and echoes them like streamOutput does
func writeOutput(path string, logger logging.Logger, quiet bool, lines ...string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		return errors.Wrapf(err, "cannot open solver output %q", path)
	}
	defer file.Close()

	if _, err := streamOutput(strings.NewReader(strings.Join(lines, "\n")), file, logger, quiet); err != nil {
		return err
	}
	return file.Close()
}

// runCancellable runs an in-process solve and gives up on it once ctx is done. The abandoned
// goroutine finishes on its own, its result is dropped.
func runCancellable[T any](ctx context.Context, solve func() (T, error)) (T, error) {
	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)
	go func() {
		value, err := solve()
		done <- outcome{value, err}
	}()

	select {
	case result := <-done:
		return result.value, result.err
	case <-ctx.Done():
		var zero T
		return zero, contextError(ctx)
	}
}

// contextError maps an expired deadline to ErrSolverTimeout and keeps cancellation as is
func contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(ErrSolverTimeout, ctx.Err().Error())
	}
	return ctx.Err()
}

func integral(value float64) (int, bool) {
	rounded := math.Round(value)
	return int(rounded), math.Abs(value-rounded) <= integralTolerance
}
