/*
Package config provides typed access to loosely-typed configuration maps.

Node options arrive from the workflow editor as map[string]any. Config wraps
such a map so handlers can ask for a string, float or header map without a
chain of type assertions; every accessor takes a default that is returned when
the key is missing or holds something unusable.

	cfg := config.New(node.Config)
	model := cfg.String("model", "")
	temp := cfg.Float("temperature", 0.7)
	headers := cfg.StringMap("headers")

The same type backs process-wide engine settings. LoadEngine reads a YAML or
JSON file, then a .env file, then NODEFLOW_* environment variables, each
layer overriding the previous one:

	eng, err := config.LoadEngine("nodeflow.yaml", ".env")

Config is safe for concurrent reads. It never mutates the wrapped map.
*/
package config
