package verify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBaseURL = "https://dsproj.local/schemas/"

var (
	cocoSchema     = mustCompileSchema("coco.json")
	datumaroSchema = mustCompileSchema("datumaro.json")
)

func mustCompileSchema(name string) *jsonschema.Schema {
	raw, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(fmt.Sprintf("verify: read embedded schema %s: %v", name, err))
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("verify: parse embedded schema %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaBaseURL+name, doc); err != nil {
		panic(fmt.Sprintf("verify: add schema %s: %v", name, err))
	}
	sch, err := c.Compile(schemaBaseURL + name)
	if err != nil {
		panic(fmt.Sprintf("verify: compile schema %s: %v", name, err))
	}
	return sch
}

// validateJSONFiles validates every file against sch, stopping at the first failure.
func validateJSONFiles(ctx context.Context, sch *jsonschema.Schema, files []string) error {
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := validateJSONFile(sch, path); err != nil {
			return err
		}
	}
	return nil
}

func validateJSONFile(sch *jsonschema.Schema, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	inst, err := jsonschema.UnmarshalJSON(f)
	if err != nil {
		return fmt.Errorf("%s: invalid JSON: %w", path, err)
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
