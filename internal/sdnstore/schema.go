// Package sdnstore persists the SDN entity graph (zones, vnets,
// subnets, controllers, ipams) as one JSON document per entity under
// the cluster-file store's sdn/ prefix (§4.6), and enforces S-1..S-4
// referential integrity before any write lands. Grounded on spec.md
// §6 ("one JSON document per entity ... write_sdn_config writes all
// files then triggers a cluster sync for the sdn prefix") and on the
// teacher's gojsonschema usage pattern for config validation.
package sdnstore

import (
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"

	"github.com/pve-project/pve-network-go/internal/model"
)

// entitySchemas holds one JSON Schema per entity kind, checked before
// any entity document is persisted. Kept minimal and structural
// (required fields, type, enum) — the semantic checks (S-1..S-4,
// overlap detection, bond-option compatibility) stay in
// internal/validate, which needs the full SDNConfiguration graph that
// a single document's schema cannot express.
var entitySchemas = map[string]string{
	"zone": `{
		"type": "object",
		"required": ["name", "kind"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"kind": {"type": "string", "enum": ["simple", "vlan", "qinq", "vxlan", "evpn"]}
		}
	}`,
	"vnet": `{
		"type": "object",
		"required": ["name", "zone"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"zone": {"type": "string", "minLength": 1}
		}
	}`,
	"subnet": `{
		"type": "object",
		"required": ["name", "vnet", "cidr"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"vnet": {"type": "string", "minLength": 1},
			"cidr": {"type": "string", "minLength": 1}
		}
	}`,
	"controller": `{
		"type": "object",
		"required": ["name", "kind"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"kind": {"type": "string", "enum": ["bgp", "evpn", "faucet"]}
		}
	}`,
	"ipam": `{
		"type": "object",
		"required": ["name", "kind"],
		"properties": {
			"name": {"type": "string", "minLength": 1},
			"kind": {"type": "string", "enum": ["pve", "phpipam", "netbox"]}
		}
	}`,
}

// validateDocument checks raw (the as-written JSON document) against
// entityKind's schema.
func validateDocument(entityKind string, raw []byte) error {
	schema, ok := entitySchemas[entityKind]
	if !ok {
		return model.NewError(model.KindValidation, "unknown sdn entity kind "+entityKind, nil)
	}

	schemaLoader := gojsonschema.NewStringLoader(schema)
	docLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return model.NewError(model.KindValidation, "schema validation failed for "+entityKind, err)
	}
	if !result.Valid() {
		errs := model.ValidationErrors{}
		for _, e := range result.Errors() {
			errs = append(errs, &model.ValidationError{
				Field:   e.Field(),
				Message: e.Description(),
			})
		}
		return errs
	}
	return nil
}

// marshalIndented is the one writer format every entity document
// shares: pretty-printed JSON with a trailing newline (§6).
func marshalIndented(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
