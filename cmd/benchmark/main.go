package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/pflag"

	"github.com/limaJavier/ilpenum/pkg/enumerate"
	"github.com/limaJavier/ilpenum/pkg/model"
	"github.com/limaJavier/ilpenum/pkg/workspace"
)

const KB = 1024

type ResultType int

const (
	exhausted ResultType = iota
	failed
)

var resultTypes = map[ResultType]string{
	exhausted: "exhausted",
	failed:    "failed",
}

type TestMetadata struct {
	Name        string
	Variables   int
	Constraints int
}

type BenchmarkResult struct {
	Solver        string
	Strategy      enumerate.Strategy
	Test          TestMetadata
	Solutions     int
	Duration      int64
	Memory        float32
	CpuPercentage int64
	Result        ResultType
}

var (
	executablePath = pflag.String("executable", "../../bin/ilpenum", "ilpenum binary to measure")
	testDirectory  = pflag.String("models", "../../test/models/", "Directory holding the .lp models to enumerate")
	solvers        = pflag.StringSlice("solvers", []string{"gophersat"}, "Solvers to compare")
	outputPath     = pflag.String("out", "benchmark_results.csv", "CSV file the results are written to")
)

func main() {
	pflag.Parse()
	tests := getTests(*testDirectory)
	results := make([]BenchmarkResult, 0, len(tests)*len(*solvers)*len(enumerate.Strategies))

	for _, test := range tests {
		for _, solver := range *solvers {
			for _, strategy := range enumerate.Strategies {
				fmt.Printf("Benchmarking test \"%v\" with solver \"%v\" and strategy \"%v\"\n", test.Name, solver, strategy)

				solutions, duration, maxMemory, cpuPercentage, result := measure(solver, strategy, test.Name)

				results = append(results, BenchmarkResult{
					Solver:        solver,
					Strategy:      strategy,
					Test:          test,
					Solutions:     solutions,
					Duration:      duration,
					Memory:        maxMemory,
					CpuPercentage: cpuPercentage,
					Result:        result,
				})
			}
		}
	}

	toCsv(results, *outputPath)
}

func getTests(directory string) []TestMetadata {
	testFiles, err := os.ReadDir(directory)
	if err != nil {
		log.Fatalf("cannot read directory: %v", err)
	}

	tests := make([]TestMetadata, 0, len(testFiles))
	for _, file := range testFiles {
		if filepath.Ext(file.Name()) != ".lp" {
			continue
		}
		filename := filepath.Join(directory, file.Name())
		document, err := model.LoadFile(filename)
		if err != nil {
			log.Fatalf("cannot parse model file: %v", err)
		}

		tests = append(tests, TestMetadata{
			Name:        filename,
			Variables:   len(document.Binaries()),
			Constraints: len(document.Constraints()),
		})
	}
	return tests
}

func measure(solver string, strategy enumerate.Strategy, testFile string) (solutions int, duration int64, maxMemory float32, cpuPercentage int64, result ResultType) {
	work, err := os.MkdirTemp("", "ilpenum-benchmark-*")
	if err != nil {
		log.Fatalf("cannot create workspace: %v", err)
	}
	defer os.RemoveAll(work) // Ensure the workspace is removed after execution

	cmd := exec.Command("/usr/bin/time", "-v", *executablePath, "enumerate", testFile,
		"--solver", solver, "--strategy", string(strategy), "--workspace", work, "--force", "--quiet", "--no-color")

	var stdOut bytes.Buffer
	cmd.Stdout = &stdOut
	var stdErr bytes.Buffer
	cmd.Stderr = &stdErr

	result = exhausted
	if err := cmd.Run(); err != nil {
		log.Printf("an error occurred during the execution of \"ilpenum\" at test \"%v\" using solver \"%v\" and strategy \"%v\": %v\n", testFile, solver, strategy, stdErr.String())
		result = failed
	}
	solutions = countSolutions(filepath.Join(work, workspace.ResultsName))

	splits := strings.Split(stdErr.String(), "\n")
	getLine := func(substr string) string {
		line, ok := lo.Find(splits, func(line string) bool {
			return strings.Contains(strings.ToLower(line), substr)
		})
		if !ok {
			log.Fatalf("Substring \"%v\" could not be found", substr)
		}
		return line
	}

	duration = parseDurationLine(getLine("wall clock"))
	maxMemory = parseMemoryLine(getLine("maximum resident set size"))
	cpuPercentage = parseCpuPercentageLine(getLine("percent of cpu"))

	return solutions, duration, maxMemory, cpuPercentage, result
}

func countSolutions(resultFile string) int {
	content, err := os.ReadFile(resultFile)
	if err != nil {
		return 0
	}
	return len(lo.Compact(strings.Split(string(content), "\n")))
}

func toCsv(results []BenchmarkResult, path string) {
	file, err := os.Create(path)
	if err != nil {
		log.Panicf("cannot create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"Solver", "Strategy", "Test", "Variables", "Constraints", "Solutions", "Duration(ms)", "Memory(MB)", "CPU(%)", "Result"}
	if err := writer.Write(header); err != nil {
		log.Panicf("cannot write CSV header: %v", err)
	}

	for _, result := range results {
		record := []string{
			result.Solver,
			string(result.Strategy),
			result.Test.Name,
			fmt.Sprintf("%d", result.Test.Variables),
			fmt.Sprintf("%d", result.Test.Constraints),
			fmt.Sprintf("%d", result.Solutions),
			fmt.Sprintf("%d", result.Duration),
			fmt.Sprintf("%.1f", result.Memory),
			fmt.Sprintf("%d", result.CpuPercentage),
			resultTypes[result.Result],
		}
		if err := writer.Write(record); err != nil {
			log.Panicf("cannot write CSV record: %v", err)
		}
	}
}

func parseDurationLine(line string) int64 {
	durationStr := strings.Split(line, "(h:mm:ss or m:ss):")[1][1:]
	return parseDuration(durationStr)
}

func parseDuration(durationStr string) int64 {
	parts := strings.Split(durationStr, ":")
	secondsStr := parts[len(parts)-1]
	secondsParts := strings.Split(secondsStr, ".")

	var duration int64
	if len(parts) == 3 { // h:mm:ss
		hours := lo.Must(strconv.Atoi(parts[0]))
		minutes := lo.Must(strconv.Atoi(parts[1]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(hours*3600+minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else if len(parts) == 2 { // m:ss
		minutes := lo.Must(strconv.Atoi(parts[0]))
		seconds := lo.Must(strconv.Atoi(secondsParts[0]))
		hundredthOfSeconds := lo.Must(strconv.Atoi(secondsParts[1]))
		duration = int64(minutes*60+seconds)*1000 + int64(hundredthOfSeconds*10)
	} else {
		log.Fatalf("unexpected duration format: %v", durationStr)
	}
	return duration
}

func parseMemoryLine(line string) float32 {
	memoryStr := strings.Split(line, ":")[1][1:]
	return float32(lo.Must(strconv.ParseFloat(memoryStr, 32))) / KB
}

func parseCpuPercentageLine(line string) int64 {
	percentageStr := strings.Split(line, ":")[1][1:]
	percentageStr = percentageStr[:len(percentageStr)-1]
	return int64(lo.Must(strconv.Atoi(percentageStr)))
}
