package citation

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
)

type citationTestContext struct {
	now    time.Time
	data   Data
	result []Citation
	second []Citation
}

func (c *citationTestContext) reset() {
	c.now = time.Now()
	c.data = Data{}
	c.result = nil
	c.second = nil
}

func (c *citationTestContext) todayIs(date string) error {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return err
	}
	c.now = t
	return nil
}

func (c *citationTestContext) aRecordInTheCollection(record, collection string) error {
	c.data.RecordIdentifier = record
	c.data.CollectionName = collection
	return nil
}

func (c *citationTestContext) aRecordInTheCollectionFrom(record, collection string, year int) error {
	c.data.RecordIdentifier = record
	c.data.CollectionName = collection
	c.data.Year = year
	return nil
}

func (c *citationTestContext) theRecordWasMadeIn(location string) error {
	c.data.Location = location
	return nil
}

func (c *citationTestContext) generator() *Generator {
	now := c.now
	return NewGenerator(func() time.Time { return now })
}

func (c *citationTestContext) iGenerateCitations() error {
	c.result = c.generator().All(c.data)
	return nil
}

func (c *citationTestContext) iGenerateCitationsTwice() error {
	c.result = c.generator().All(c.data)
	c.second = c.generator().All(c.data)
	return nil
}

func (c *citationTestContext) citation(style string) (string, error) {
	for _, ct := range c.result {
		if string(ct.Style) == style {
			return ct.Text, nil
		}
	}
	return "", fmt.Errorf("no %s citation generated", style)
}

func (c *citationTestContext) thereAreDistinctCitations(n int) error {
	distinct := map[string]bool{}
	for _, ct := range c.result {
		distinct[ct.Text] = true
	}
	if len(distinct) != n {
		return fmt.Errorf("expected %d distinct citations, got %d", n, len(distinct))
	}
	return nil
}

func (c *citationTestContext) noCitationMentions(s string) error {
	for _, ct := range c.result {
		if strings.Contains(ct.Text, s) {
			return fmt.Errorf("%s citation mentions %q: %q", ct.Style, s, ct.Text)
		}
	}
	return nil
}

func (c *citationTestContext) theCitationStartsWith(style, prefix string) error {
	text, err := c.citation(style)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(text, prefix) {
		return fmt.Errorf("expected %s citation to start with %q, got %q", style, prefix, text)
	}
	return nil
}

func (c *citationTestContext) theCitationContains(style, substring string) error {
	text, err := c.citation(style)
	if err != nil {
		return err
	}
	if !strings.Contains(text, substring) {
		return fmt.Errorf("expected %s citation to contain %q, got %q", style, substring, text)
	}
	return nil
}

func (c *citationTestContext) theCitationDoesNotContain(style, substring string) error {
	text, err := c.citation(style)
	if err != nil {
		return err
	}
	if strings.Contains(text, substring) {
		return fmt.Errorf("expected %s citation not to contain %q, got %q", style, substring, text)
	}
	return nil
}

func (c *citationTestContext) bothRunsAreIdentical() error {
	if !reflect.DeepEqual(c.result, c.second) {
		return fmt.Errorf("runs differ: %v vs %v", c.result, c.second)
	}
	return nil
}

func (c *citationTestContext) theDisplayContains(style, substring string) error {
	text, err := c.citation(style)
	if err != nil {
		return err
	}
	if out := Display(Style(style), text); !strings.Contains(out, substring) {
		return fmt.Errorf("expected %s display to contain %q, got %q", style, substring, out)
	}
	return nil
}

func (c *citationTestContext) theDisplayStartsWith(style, prefix string) error {
	text, err := c.citation(style)
	if err != nil {
		return err
	}
	if out := Display(Style(style), text); !strings.HasPrefix(out, prefix) {
		return fmt.Errorf("expected %s display to start with %q, got %q", style, prefix, out)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &citationTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^today is "([^"]*)"$`, tc.todayIs)
	ctx.Step(`^a record "([^"]*)" in the collection "([^"]*)"$`, tc.aRecordInTheCollection)
	ctx.Step(`^a record "([^"]*)" in the collection "([^"]*)" from (\d+)$`, tc.aRecordInTheCollectionFrom)
	ctx.Step(`^the record was made in "([^"]*)"$`, tc.theRecordWasMadeIn)

	ctx.Step(`^I generate citations in every style$`, tc.iGenerateCitations)
	ctx.Step(`^I generate citations in every style twice$`, tc.iGenerateCitationsTwice)

	ctx.Step(`^there are (\d+) distinct citations$`, tc.thereAreDistinctCitations)
	ctx.Step(`^no citation mentions "([^"]*)"$`, tc.noCitationMentions)
	ctx.Step(`^the "([^"]*)" citation starts with "([^"]*)"$`, tc.theCitationStartsWith)
	ctx.Step(`^the "([^"]*)" citation contains "([^"]*)"$`, tc.theCitationContains)
	ctx.Step(`^the "([^"]*)" citation does not contain "([^"]*)"$`, tc.theCitationDoesNotContain)
	ctx.Step(`^both runs are identical$`, tc.bothRunsAreIdentical)
	ctx.Step(`^the "([^"]*)" display contains "([^"]*)"$`, tc.theDisplayContains)
	ctx.Step(`^the "([^"]*)" display starts with "([^"]*)"$`, tc.theDisplayStartsWith)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
