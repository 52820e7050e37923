// Package cucumber is the godog harness for the journal feature tests.
//
// Each scenario keeps its own variables and the result of the last action,
// which is either a store operation (JSON-encoded) or a management HTTP
// request. Variable references in step text are expanded:
//   - ${name}            → scenario variable
//   - ${name.field}      → nested field of a variable
//   - ${result}          → the last result as parsed JSON
//   - ${result.field}    → a gojq selection on the last result
//   - ${name | pipe}     → pipe transformations (json, string)
package cucumber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/itchyny/gojq"
	"github.com/pmezard/go-difflib/difflib"
)

func NewTestSuite() *TestSuite {
	return &TestSuite{Extra: map[string]any{}}
}

func DefaultOptions() godog.Options {
	return godog.Options{
		Output:      colors.Colored(os.Stdout),
		Format:      "progress",
		Paths:       []string{"features"},
		Randomize:   time.Now().UTC().UnixNano(),
		Concurrency: 1,
	}
}

// ApplyReportOptions configures junit XML output when GODOG_REPORT_DIR is set.
// Returns a cleanup function that must be called after the test runs.
func ApplyReportOptions(opts *godog.Options, testName string) func() {
	reportDir := os.Getenv("GODOG_REPORT_DIR")
	if reportDir == "" {
		return func() {}
	}
	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return func() {}
	}
	f, err := os.Create(filepath.Join(reportDir, strings.ReplaceAll(testName, "/", "-")+".xml"))
	if err != nil {
		return func() {}
	}
	opts.Output = f
	opts.Format = "junit"
	return func() { _ = f.Close() }
}

// TestSuite holds state shared by all scenarios.
type TestSuite struct {
	// ManagementURL is the base URL of the running management server.
	ManagementURL string
	Mu            sync.Mutex
	TestingT      *testing.T
	// Extra carries backend handles (store, fake document server) for the
	// step modules in the bdd package.
	Extra map[string]any
	// BeforeScenario, if set, resets backend state.
	BeforeScenario func() error
}

// TestScenario holds state for a single scenario. Not accessed concurrently.
type TestScenario struct {
	Suite     *TestSuite
	Variables map[string]any
	Result    Result
}

// Result is the outcome of the last action of a scenario.
type Result struct {
	// StatusCode is set by HTTP steps.
	StatusCode int
	Body       []byte
	// Err is set when a store operation failed.
	Err  error
	json any
}

// SetJSON records v, JSON-encoded, as the last result.
func (s *TestScenario) SetJSON(v any, err error) error {
	s.Result = Result{Err: err}
	if err != nil {
		return nil
	}
	data, merr := json.Marshal(v)
	if merr != nil {
		return merr
	}
	s.Result.Body = data
	return nil
}

// JSON returns the last result body as parsed JSON.
func (r *Result) JSON() (any, error) {
	if r.Err != nil {
		return nil, fmt.Errorf("last operation failed: %w", r.Err)
	}
	if r.json == nil {
		if r.Body == nil {
			return nil, fmt.Errorf("no result")
		}
		if err := json.Unmarshal(r.Body, &r.json); err != nil {
			return nil, fmt.Errorf("error parsing result json: %w\njson was:\n%s", err, r.Body)
		}
	}
	return r.json, nil
}

func (s *TestScenario) Logf(format string, args ...any) {
	s.Suite.TestingT.Logf(format, args...)
}

func prettyJSON(v any) []byte {
	data, _ := json.MarshalIndent(v, "", "  ")
	return data
}

func parseExpected(s *TestScenario, expected string, expand bool) (any, error) {
	if expand {
		var err error
		if expected, err = s.Expand(expected); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(expected) == "" {
		return nil, fmt.Errorf("expected json not specified")
	}
	var parsed any
	if err := json.Unmarshal([]byte(expected), &parsed); err != nil {
		return nil, fmt.Errorf("error parsing expected json: %w\njson was:\n%s", err, expected)
	}
	return parsed, nil
}

// JSONMustMatch compares actual against expected for deep equality.
func (s *TestScenario) JSONMustMatch(actual any, expected string, expand bool) error {
	expectedParsed, err := parseExpected(s, expected, expand)
	if err != nil {
		return err
	}
	if !reflect.DeepEqual(expectedParsed, actual) {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(prettyJSON(expectedParsed))),
			B:        difflib.SplitLines(string(prettyJSON(actual))),
			FromFile: "Expected",
			ToFile:   "Actual",
			Context:  1,
		})
		return fmt.Errorf("actual does not match expected, diff:\n%s", diff)
	}
	return nil
}

// JSONMustContain checks that every field in expected exists in actual with
// a matching value.
func (s *TestScenario) JSONMustContain(actual any, expected string, expand bool) error {
	expectedParsed, err := parseExpected(s, expected, expand)
	if err != nil {
		return err
	}
	if err := jsonSubset(expectedParsed, actual, ""); err != nil {
		return fmt.Errorf("actual does not contain expected.\n  mismatch: %s\n  expected:\n%s\n  actual:\n%s",
			err, prettyJSON(expectedParsed), prettyJSON(actual))
	}
	return nil
}

// jsonSubset: objects may carry extra keys, arrays must have the same
// length, primitives must be equal.
func jsonSubset(expected, actual any, path string) error {
	if expected == nil {
		if actual != nil {
			return fmt.Errorf("at %s: expected null, got %v", pathOrRoot(path), actual)
		}
		return nil
	}
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return fmt.Errorf("at %s: expected object, got %T", pathOrRoot(path), actual)
		}
		for key, expVal := range exp {
			actVal, exists := act[key]
			if !exists {
				return fmt.Errorf("at %s: missing key %q", pathOrRoot(path), key)
			}
			if err := jsonSubset(expVal, actVal, path+"."+key); err != nil {
				return err
			}
		}
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return fmt.Errorf("at %s: expected array, got %T", pathOrRoot(path), actual)
		}
		if len(exp) != len(act) {
			return fmt.Errorf("at %s: expected array length %d, got %d", pathOrRoot(path), len(exp), len(act))
		}
		for i := range exp {
			if err := jsonSubset(exp[i], act[i], fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	default:
		if !reflect.DeepEqual(expected, actual) {
			return fmt.Errorf("at %s: expected %v (%T), got %v (%T)", pathOrRoot(path), expected, expected, actual, actual)
		}
	}
	return nil
}

func pathOrRoot(path string) string {
	if path == "" {
		return "$"
	}
	return "$" + path
}

// Select runs a gojq selector against v and returns the first output.
func Select(v any, selector string) (any, error) {
	q, err := gojq.Parse(selector)
	if err != nil {
		return nil, err
	}
	next, found := q.Run(v).Next()
	if !found {
		return nil, fmt.Errorf("no node matches selector: %s", selector)
	}
	if err, ok := next.(error); ok {
		return nil, err
	}
	return next, nil
}

// Expand replaces ${var} references in value.
func (s *TestScenario) Expand(value string) (result string, rerr error) {
	return os.Expand(value, func(name string) string {
		res, err := s.ResolveString(name)
		if err != nil {
			rerr = err
			return ""
		}
		return res
	}), rerr
}

func (s *TestScenario) ResolveString(name string) (string, error) {
	value, err := s.Resolve(name)
	if err != nil {
		return "", err
	}
	return ToString(value)
}

func ToString(value any) (string, error) {
	switch value := value.(type) {
	case string:
		return value, nil
	case bool:
		return strconv.FormatBool(value), nil
	case int, int64:
		return fmt.Sprintf("%d", value), nil
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64), nil
	case nil:
		return "", nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *TestScenario) Resolve(name string) (any, error) {
	pipes := strings.Split(name, "|")
	for i := range pipes {
		pipes[i] = strings.TrimSpace(pipes[i])
	}
	name, pipes = pipes[0], pipes[1:]

	if name == "result" || strings.HasPrefix(name, "result.") || strings.HasPrefix(name, "result[") {
		doc, err := s.Result.JSON()
		if err != nil {
			return pipeline(pipes, nil, err)
		}
		v, err := Select(map[string]any{"result": doc}, "."+name)
		return pipeline(pipes, v, err)
	}

	parts := strings.Split(name, ".")
	value, found := s.Variables[parts[0]]
	if !found {
		return pipeline(pipes, nil, fmt.Errorf("variable ${%s} not defined yet", parts[0]))
	}
	for _, part := range parts[1:] {
		var err error
		if value, err = selectChild(value, part); err != nil {
			return pipeline(pipes, nil, err)
		}
	}
	return pipeline(pipes, value, nil)
}

func selectChild(value any, path string) (any, error) {
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map:
		key := reflect.ValueOf(path)
		if v.Type().Key() != key.Type() {
			return nil, fmt.Errorf("cannot select map key %s from %s", path, v.Type())
		}
		v = v.MapIndex(key)
		if !v.IsValid() {
			return nil, fmt.Errorf("map key %s not found", path)
		}
	case reflect.Slice:
		index, err := strconv.Atoi(path)
		if err != nil || index < 0 || index >= v.Len() {
			return nil, fmt.Errorf("cannot select index %s from %s", path, v.Type())
		}
		v = v.Index(index)
	case reflect.Struct:
		f := v.FieldByName(path)
		if !f.IsValid() {
			return nil, fmt.Errorf("struct field %s not found", path)
		}
		v = f
	default:
		return nil, fmt.Errorf("can't navigate to '%s' on type of %s", path, v.Type())
	}
	return v.Interface(), nil
}

func pipeline(pipes []string, value any, err error) (any, error) {
	for _, pipe := range pipes {
		fn := PipeFunctions[pipe]
		if fn == nil {
			return nil, fmt.Errorf("unknown pipe: %s", pipe)
		}
		value, err = fn(value, err)
	}
	return value, err
}

var PipeFunctions = map[string]func(any, error) (any, error){
	"json": func(value any, err error) (any, error) {
		if err != nil {
			return value, err
		}
		buf := &bytes.Buffer{}
		enc := json.NewEncoder(buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(value); err != nil {
			return value, err
		}
		return buf.String(), nil
	},
	"string": func(value any, err error) (any, error) {
		if err != nil {
			return value, err
		}
		return fmt.Sprintf("%v", value), nil
	},
}

// StepModules registers steps with each new scenario.
var StepModules []func(ctx *godog.ScenarioContext, s *TestScenario)

func (suite *TestSuite) InitializeScenario(ctx *godog.ScenarioContext) {
	s := &TestScenario{
		Suite:     suite,
		Variables: map[string]any{},
	}
	if suite.BeforeScenario != nil {
		ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
			return ctx, suite.BeforeScenario()
		})
	}
	for _, module := range StepModules {
		module(ctx, s)
	}
}
