package common

import (
	"fmt"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the scenario context the assertion steps need.
type TestContext interface {
	LastStatus() int
	Field(path string) (any, error)
}

func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &assertionSteps{tc: tc}
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal (\d+)$`, steps.fieldShouldEqualNumber)
	ctx.Step(`^the response should contain error "([^"]*)"$`, steps.shouldContainError)
	ctx.Step(`^the response should contain reason "([^"]*)"$`, steps.shouldContainReason)
}

type assertionSteps struct {
	tc TestContext
}

func (s *assertionSteps) statusShouldBe(want int) error {
	if got := s.tc.LastStatus(); got != want {
		return fmt.Errorf("expected status %d, got %d", want, got)
	}
	return nil
}

func (s *assertionSteps) fieldShouldBe(path, want string) error {
	got, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	if fmt.Sprint(got) != want {
		return fmt.Errorf("field %q: expected %q, got %v", path, want, got)
	}
	return nil
}

func (s *assertionSteps) fieldShouldEqualNumber(path string, want int) error {
	got, err := s.tc.Field(path)
	if err != nil {
		return err
	}
	n, ok := got.(float64)
	if !ok || n != float64(want) {
		return fmt.Errorf("field %q: expected %s, got %v", path, strconv.Itoa(want), got)
	}
	return nil
}

func (s *assertionSteps) shouldContainError(code string) error {
	return s.fieldShouldBe("error", code)
}

func (s *assertionSteps) shouldContainReason(reason string) error {
	return s.fieldShouldBe("reason", reason)
}
