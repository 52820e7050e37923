package bdd

import (
	"encoding/json"
	"fmt"

	"github.com/chirino/journal-service/internal/docstore/value"
	"github.com/chirino/journal-service/internal/ident"
	registrystore "github.com/chirino/journal-service/internal/registry/store"
	"github.com/chirino/journal-service/internal/testutil/cucumber"
	"github.com/chirino/journal-service/internal/testutil/testdocstore"
	"github.com/cucumber/godog"
)

const (
	extraStore = "store"
	extraDocs  = "docs"
)

func init() {
	cucumber.StepModules = append(cucumber.StepModules, func(ctx *godog.ScenarioContext, s *cucumber.TestScenario) {
		d := &documentSteps{s: s}
		ctx.Step(`^I am user "([^"]*)"$`, d.iAmUser)
		ctx.Step(`^the document "([^"]*)" is stored with fields:$`, d.theDocumentIsStoredWithFields)
		ctx.Step(`^the document "([^"]*)" should have fields:$`, d.theDocumentShouldHaveFields)
		ctx.Step(`^the document "([^"]*)" should not exist$`, d.theDocumentShouldNotExist)
		ctx.Step(`^the collection "([^"]*)" should have (\d+) documents?$`, d.theCollectionShouldHaveDocuments)
		ctx.Step(`^I store the content id of "([^"]*)" as \${([^}]*)}$`, d.iStoreTheContentIDAs)
	})
}

type documentSteps struct {
	s *cucumber.TestScenario
}

func docs(s *cucumber.TestScenario) *testdocstore.Server {
	return s.Suite.Extra[extraDocs].(*testdocstore.Server)
}

func store(s *cucumber.TestScenario) registrystore.JournalStore {
	return s.Suite.Extra[extraStore].(registrystore.JournalStore)
}

func uid(s *cucumber.TestScenario) string {
	if u, ok := s.Variables["uid"].(string); ok {
		return u
	}
	return "user-1"
}

func (d *documentSteps) iAmUser(u string) error {
	d.s.Variables["uid"] = u
	return nil
}

// theDocumentIsStoredWithFields seeds a document from tagged wire JSON, so
// scenarios can describe records exactly as the document store holds them.
func (d *documentSteps) theDocumentIsStoredWithFields(path string, body *godog.DocString) error {
	path, err := d.s.Expand(path)
	if err != nil {
		return err
	}
	content, err := d.s.Expand(body.Content)
	if err != nil {
		return err
	}
	fields := value.NewFields()
	if err := json.Unmarshal([]byte(content), fields); err != nil {
		return fmt.Errorf("invalid wire fields: %w", err)
	}
	docs(d.s).Put(path, fields)
	return nil
}

// theDocumentShouldHaveFields compares the stored fields, rendered as plain
// JSON, against expected with subset semantics.
func (d *documentSteps) theDocumentShouldHaveFields(path string, expected *godog.DocString) error {
	path, err := d.s.Expand(path)
	if err != nil {
		return err
	}
	fields, ok := docs(d.s).Fields(path)
	if !ok {
		return fmt.Errorf("document %s does not exist", path)
	}
	// Round trip through encoding/json so numbers compare as float64.
	data, err := json.Marshal(value.FieldsToJSON(fields))
	if err != nil {
		return err
	}
	var actual any
	if err := json.Unmarshal(data, &actual); err != nil {
		return err
	}
	return d.s.JSONMustContain(actual, expected.Content, true)
}

func (d *documentSteps) theDocumentShouldNotExist(path string) error {
	path, err := d.s.Expand(path)
	if err != nil {
		return err
	}
	if _, ok := docs(d.s).Fields(path); ok {
		return fmt.Errorf("document %s exists", path)
	}
	return nil
}

func (d *documentSteps) theCollectionShouldHaveDocuments(collection string, n int) error {
	collection, err := d.s.Expand(collection)
	if err != nil {
		return err
	}
	paths := docs(d.s).Paths(collection)
	if len(paths) != n {
		return fmt.Errorf("expected %d documents in %s, found %d: %v", n, collection, len(paths), paths)
	}
	return nil
}

func (d *documentSteps) iStoreTheContentIDAs(text, as string) error {
	d.s.Variables[as] = ident.ContentID(text)
	return nil
}
