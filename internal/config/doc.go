// Package config loads the transformer configuration and resolves file paths.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority), optionally seeded from .env
//  2. A YAML file: $RBMF_CONFIG, config.yaml or configs/config.yaml
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern RBMF_<SECTION>_<FIELD>:
//
//	RBMF_PATHS_DATA_DIR=/srv/rbmf/data
//	RBMF_TRANSFORM_STEPS=true
//	RBMF_TRANSFORM_PARALLELISM=4
//	RBMF_LOGGING_LEVEL=debug
//	RBMF_SERVER_PORT=8080
//
// # Paths
//
// Config.ResolvePaths returns absolute Paths. Output goes to
// <data>/2025-output/<collection>/final (or steps/), and the mapping files
// column_mapping.json and file_to_projectId_mapping.json are looked up in the
// output directory unless configured otherwise.
package config
