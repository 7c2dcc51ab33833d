// Package operations runs the half-year transformation of RBMF collections.
//
// A collection run is an OperationState driven through four registered steps
// by the Manager, in dependency order:
//
//	load      read every workbook's RBMF tab into quarter records
//	group     partition records by file, entity and half-year
//	aggregate fold each group into a half-year row and log discrepancies
//	emit      assemble the CollectionResult and pass it to the Emitter
//
// Steps share data through the state context and keep no per-run fields, so
// one Pipeline can serve concurrent collections. Pipeline.TransformAll runs
// collections in ID order, in parallel when configured, and gathers
// collection failures in an ErrorList.
//
//	p, err := operations.NewPipeline(operations.PipelineOptions{DataDir: "data"}, logger)
//	results, err := p.TransformAll(ctx, []operations.Collection{{ID: "1 INO"}})
package operations
