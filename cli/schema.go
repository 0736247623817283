package cli

import (
	"encoding/json"
	"runtime/debug"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/tagcal/calibration"
	"go.viam.com/tagcal/synthetic"
)

// Documents the schema command can describe.
const (
	schemaConfig    = "config"
	schemaGenerator = "generator"
	schemaResult    = "result"
)

var registeredSchemas = map[string]func() *jsonschema.Schema{
	schemaConfig:    func() *jsonschema.Schema { return jsonschema.Reflect(&calibration.Config{}) },
	schemaGenerator: func() *jsonschema.Schema { return jsonschema.Reflect(&synthetic.Config{}) },
	schemaResult:    func() *jsonschema.Schema { return jsonschema.Reflect(&calibration.Result{}) },
}

// SchemaAction prints the JSON schema of the document named by --type.
func SchemaAction(c *cli.Context) error {
	name := c.String(schemaFlagType)
	reflect, ok := registeredSchemas[name]
	if !ok {
		return errors.Errorf("unknown schema %q, expected one of %q, %q or %q", name, schemaConfig, schemaGenerator, schemaResult)
	}
	b, err := json.MarshalIndent(reflect(), "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", b)
	return nil
}

// Version is set at build time with -ldflags "-X go.viam.com/tagcal/cli.Version=...".
var Version = ""

// VersionAction prints the version of the program.
func VersionAction(c *cli.Context) error {
	version := Version
	info, ok := debug.ReadBuildInfo()
	if version == "" && ok {
		version = info.Main.Version
	}
	if version == "" {
		version = "(devel)"
	}
	printf(c.App.Writer, "tagcal version %s", version)
	if ok {
		printf(c.App.Writer, "built with %s", info.GoVersion)
	}
	return nil
}
