package details

import (
	"github.com/luca-patrignani/agriblock/ledger"
)

// Schemas for the details the marketplace attaches to its events.
var standardSchemas = map[string]string{
	ledger.EventProductCreated: `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["product_id", "title"],
		"properties": {
			"product_id": {"type": "string", "minLength": 1},
			"title": {"type": "string", "minLength": 1},
			"crop_details": {"type": ["object", "string", "null"]}
		}
	}`,
	ledger.EventHarvest: `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["batch_code", "initial_quantity"],
		"properties": {
			"batch_code": {"type": "string", "minLength": 1},
			"product_id": {"type": "string"},
			"initial_quantity": {"type": "number", "exclusiveMinimum": 0},
			"quantity_unit": {"type": "string"},
			"harvest_date": {"type": "string"}
		}
	}`,
	ledger.EventBatchSplit: `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["parent_batch_code", "quantity"],
		"properties": {
			"parent_batch_code": {"type": "string", "minLength": 1},
			"quantity": {"type": "number", "exclusiveMinimum": 0}
		}
	}`,
	ledger.EventShipmentAssigned: `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["shipment_id", "order_id", "transporter_id"],
		"properties": {
			"shipment_id": {"type": "string", "minLength": 1},
			"order_id": {"type": "string", "minLength": 1},
			"transporter_id": {"type": "string", "minLength": 1},
			"estimated_delivery": {"type": "string"}
		}
	}`,
	ledger.EventDelivered: `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["shipment_id"],
		"properties": {
			"shipment_id": {"type": "string", "minLength": 1},
			"location_coords": {"type": ["string", "null"]}
		}
	}`,
}

// Standard returns a registry loaded with the marketplace schemas.
func Standard() *Registry {
	r := NewRegistry()
	for eventType, schema := range standardSchemas {
		if err := r.Register(eventType, schema); err != nil {
			panic(err)
		}
	}
	return r
}
