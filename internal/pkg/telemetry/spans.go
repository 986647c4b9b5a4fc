package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span names.
const (
	SpanParse         = "geoquery.parse"
	SpanParseBatch    = "geoquery.parse_batch"
	SpanInfer         = "geoquery.llm.infer"
	SpanValidate      = "geoquery.validate"
	SpanTransform     = "geoquery.transform"
	SpanResolve       = "geoquery.resolve_location"
	SpanBuildArea     = "geoquery.search_area"
	SpanBatchWorkflow = "geoquery.batch.workflow"
)

// Attribute keys.
const (
	AttrQuery      = attribute.Key("geoquery.query")
	AttrRelation   = attribute.Key("geoquery.relation")
	AttrCategory   = attribute.Key("geoquery.category")
	AttrLocation   = attribute.Key("geoquery.location")
	AttrConfidence = attribute.Key("geoquery.confidence")
	AttrOutcome    = attribute.Key("geoquery.outcome")
	AttrBatchSize  = attribute.Key("geoquery.batch_size")
	AttrModel      = attribute.Key("llm.model")
)
