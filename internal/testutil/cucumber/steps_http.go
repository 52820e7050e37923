package cucumber

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

func init() {
	StepModules = append(StepModules, func(ctx *godog.ScenarioContext, s *TestScenario) {
		ctx.Step(`^I GET management path "([^"]*)"$`, s.iGETManagementPath)
		ctx.Step(`^the response code should be (\d+)$`, s.theResponseCodeShouldBe)
		ctx.Step(`^the response should contain "([^"]*)"$`, s.theResponseShouldContain)
		ctx.Step(`^I wait up to "([^"]*)" seconds for management path "([^"]*)" to respond with code (\d+)$`, s.iWaitForManagementPathCode)
	})
}

func (s *TestScenario) iGETManagementPath(path string) error {
	path, err := s.Expand(path)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Suite.ManagementURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	s.Result = Result{StatusCode: resp.StatusCode, Body: body}
	return nil
}

func (s *TestScenario) theResponseCodeShouldBe(expected int) error {
	if s.Result.StatusCode == 0 {
		return fmt.Errorf("no HTTP response available")
	}
	if s.Result.StatusCode != expected {
		return fmt.Errorf("expected response code to be: %d, but actual is: %d, body: %s", expected, s.Result.StatusCode, s.Result.Body)
	}
	return nil
}

func (s *TestScenario) theResponseShouldContain(text string) error {
	text, err := s.Expand(text)
	if err != nil {
		return err
	}
	if !strings.Contains(string(s.Result.Body), text) {
		return fmt.Errorf("response does not contain %q", text)
	}
	return nil
}

func (s *TestScenario) iWaitForManagementPathCode(seconds, path string, code int) error {
	secs, err := strconv.ParseFloat(seconds, 64)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(time.Duration(secs * float64(time.Second)))
	for {
		if err := s.iGETManagementPath(path); err == nil && s.Result.StatusCode == code {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%s did not respond with %d within %s seconds (last: %d)", path, code, seconds, s.Result.StatusCode)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
