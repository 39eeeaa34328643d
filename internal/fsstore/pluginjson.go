package fsstore

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kohlsync/core/internal/errkind"
)

// pluginDataSchemaJSON constrains the shape of PluginData (spec.md §6):
// integers for schema_version, arrays preserving insertion order for
// applied_migrations. Validated the way the teacher validates content-type
// schemas in internal/validation/schema.go.
const pluginDataSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["schema_version", "settings", "applied_migrations"],
  "properties": {
    "schema_version": {"type": "integer", "minimum": 0},
    "settings": {"type": "object"},
    "applied_migrations": {"type": "array", "items": {"type": "string"}},
    "last_plugin_migrated_to": {"type": "string"}
  }
}`

var compiledPluginSchema struct {
	once   sync.Once
	schema *jsonschema.Schema
	err    error
}

func pluginDataSchema() (*jsonschema.Schema, error) {
	compiledPluginSchema.once.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("plugin-data.json", bytes.NewReader([]byte(pluginDataSchemaJSON))); err != nil {
			compiledPluginSchema.err = err
			return
		}
		compiledPluginSchema.schema, compiledPluginSchema.err = compiler.Compile("plugin-data.json")
	})
	return compiledPluginSchema.schema, compiledPluginSchema.err
}

// WritePluginDataJSONAtomic marshals data, validates it against the plugin
// data JSON schema, and writes it atomically to path with a ".bak" sibling
// updated to the previous contents (spec.md §4.7, §6).
func (s *Service) WritePluginDataJSONAtomic(path SystemPath, data any) error {
	s.pluginMu.Lock()
	defer s.pluginMu.Unlock()

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errkind.New(errkind.DbPersistFailed, "marshal plugin data", err).WithPath(string(path))
	}

	var decoded any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return errkind.New(errkind.DbValidateFailed, "decode plugin data for validation", err).WithPath(string(path))
	}
	schema, err := pluginDataSchema()
	if err != nil {
		return errkind.New(errkind.DbValidateFailed, "compile plugin data schema", err)
	}
	if err := schema.Validate(decoded); err != nil {
		return errkind.New(errkind.DbValidateFailed, "plugin data failed schema validation", err).WithPath(string(path))
	}

	if existing, err := os.ReadFile(string(path)); err == nil {
		_ = writeFileAtomic(string(path)+".bak", string(existing))
	}

	if err := os.MkdirAll(filepath.Dir(string(path)), 0o755); err != nil {
		return errkind.New(errkind.PermissionDenied, "ensure plugin data dir", err).WithPath(string(path))
	}
	if err := writeFileAtomic(string(path), string(encoded)); err != nil {
		return errkind.New(errkind.DbPersistFailed, "write plugin data", err).WithPath(string(path))
	}
	return nil
}

// TryReadPluginDataJSON reads path into out, falling back to path+".bak" if
// the primary is missing or corrupt, per spec.md §4.7.
func (s *Service) TryReadPluginDataJSON(path SystemPath, out any) error {
	if err := readJSONFile(string(path), out); err == nil {
		return nil
	}
	if err := readJSONFile(string(path)+".bak", out); err != nil {
		return errkind.New(errkind.NotFound, "plugin data and backup both unavailable", err).WithPath(string(path))
	}
	return nil
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
