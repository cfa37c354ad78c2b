// Package config's doc: loaded with kelseyhightower/envconfig for scalars
// and an optional goccy/go-yaml file (TRACE_CONFIG_FILE) for the longer
// include/exclude/allowFns pattern lists that are awkward to express as a
// single environment variable.
package config
