// Package config provides configuration parsing for blox projects.
//
// The configuration is stored in blox.json (or blox.yaml) at the project
// root. This package handles loading, saving, and validating it. Command
// line flags override the values read here.
//
// # Configuration File Structure
//
//	{
//	  "templates": {
//	    "dir": "templates",
//	    "extensions": [".html", ".xhtml", ".xml"],
//	    "s3": {"bucket": "site", "prefix": "tpl/", "region": "eu-west-1"},
//	    "cacheTTL": "5m"
//	  },
//	  "render": {"formatted": true, "indent": "  "},
//	  "compile": {
//	    "strict": true,
//	    "fallback": "span",
//	    "queries": {"items": "ul > li"}
//	  },
//	  "server": {"host": "localhost", "port": 8080, "watch": true},
//	  "metrics": {"enabled": true, "namespace": "blox"}
//	}
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Templates:", cfg.TemplatesPath())
package config
