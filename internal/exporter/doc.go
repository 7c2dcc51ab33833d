// Package exporter writes transformation results to the output directory.
//
// Exporter implements the pipeline's emit step. For each collection it
// writes:
//
//	<output>/<collection>/final/<file>.xlsx   one workbook per source file
//	<output>/<collection>/steps/<file>.xlsx   same, with RBMF_1 and RBMF_2 tabs
//	<output>/<collection>/<collection>_validation.log
//	<output>/<collection>/<mode>/<collection>.csv   when CSV output is enabled
//
// and records every file in a Report, saved as transformation_report.json.
//
// Example usage:
//
//	exp := exporter.New(files.NewManager(paths, logger), exporter.Options{Steps: true}, logger)
//	pipeline, _ := operations.NewPipeline(operations.PipelineOptions{Emitter: exp}, logger)
//	results, err := pipeline.TransformAll(ctx, collections)
//	reportPath, _ := exp.WriteReport()
package exporter
