package config

import "github.com/invopop/jsonschema"

// Schema describes the scene file for editors and CI checks.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(new(File))
	schema.Title = "cavefish scene"
	schema.Description = "Tank geometry, fish schools and submarines for the cave simulation"
	return schema
}
