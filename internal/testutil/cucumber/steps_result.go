package cucumber

import (
	"fmt"
	"strings"

	"github.com/cucumber/godog"
)

func init() {
	StepModules = append(StepModules, func(ctx *godog.ScenarioContext, s *TestScenario) {
		ctx.Step(`^the result should match json:$`, s.theResultShouldMatchJSON)
		ctx.Step(`^the result should contain json:$`, s.theResultShouldContainJSON)
		ctx.Step(`^the "([^"]*)" selection from the result should match "([^"]*)"$`, s.theSelectionShouldMatch)
		ctx.Step(`^the "([^"]*)" selection from the result should match json:$`, s.theSelectionShouldMatchJSON)
		ctx.Step(`^I store the "([^"]*)" selection from the result as \${([^}]*)}$`, s.iStoreTheSelectionAs)
		ctx.Step(`^the operation should succeed$`, s.theOperationShouldSucceed)
		ctx.Step(`^the operation should fail with "([^"]*)"$`, s.theOperationShouldFailWith)
		ctx.Step(`^\${([^}]*)} should equal \${([^}]*)}$`, s.variablesShouldBeEqual)
	})
}

func (s *TestScenario) theResultShouldMatchJSON(expected *godog.DocString) error {
	actual, err := s.Result.JSON()
	if err != nil {
		return err
	}
	return s.JSONMustMatch(actual, expected.Content, true)
}

func (s *TestScenario) theResultShouldContainJSON(expected *godog.DocString) error {
	actual, err := s.Result.JSON()
	if err != nil {
		return err
	}
	return s.JSONMustContain(actual, expected.Content, true)
}

func (s *TestScenario) selection(selector string) (any, error) {
	doc, err := s.Result.JSON()
	if err != nil {
		return nil, err
	}
	return Select(doc, selector)
}

func (s *TestScenario) theSelectionShouldMatch(selector, expected string) error {
	actual, err := s.selection(selector)
	if err != nil {
		return err
	}
	expected, err = s.Expand(expected)
	if err != nil {
		return err
	}
	got := "null"
	if actual != nil {
		if got, err = ToString(actual); err != nil {
			return err
		}
	}
	if got != expected {
		return fmt.Errorf("selection %s does not match. expected: %v, actual: %v", selector, expected, got)
	}
	return nil
}

func (s *TestScenario) theSelectionShouldMatchJSON(selector string, expected *godog.DocString) error {
	actual, err := s.selection(selector)
	if err != nil {
		return err
	}
	return s.JSONMustMatch(actual, expected.Content, true)
}

func (s *TestScenario) iStoreTheSelectionAs(selector, as string) error {
	v, err := s.selection(selector)
	if err != nil {
		return err
	}
	s.Variables[as] = v
	return nil
}

func (s *TestScenario) theOperationShouldSucceed() error {
	if s.Result.Err != nil {
		return fmt.Errorf("expected success, got: %w", s.Result.Err)
	}
	return nil
}

func (s *TestScenario) theOperationShouldFailWith(text string) error {
	if s.Result.Err == nil {
		return fmt.Errorf("expected an error containing %q, the operation succeeded with: %s", text, s.Result.Body)
	}
	if !strings.Contains(s.Result.Err.Error(), text) {
		return fmt.Errorf("expected an error containing %q, got: %v", text, s.Result.Err)
	}
	return nil
}

func (s *TestScenario) variablesShouldBeEqual(a, b string) error {
	va, err := s.ResolveString(a)
	if err != nil {
		return err
	}
	vb, err := s.ResolveString(b)
	if err != nil {
		return err
	}
	if va != vb {
		return fmt.Errorf("${%s}=%q differs from ${%s}=%q", a, va, b, vb)
	}
	return nil
}
