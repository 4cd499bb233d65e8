// Package project loads and saves dataset project documents.
//
// A project directory holds the hand-editable document (config.yaml by
// default) and a tool-managed env directory (.dsproj by default):
//
//	myproject/
//	├── config.yaml          ← project_name, format_version, sources, models, build_targets
//	├── .dsproj/
//	│   ├── layout.yaml      ← internal layout fields
//	│   ├── vcs.yaml         ← VCS-tracked source index
//	│   └── plugins/formats/ ← format plugin descriptors
//	└── sources/
//	    └── {name}/          ← provisioned source data
//
// project_dir and detached are derived when a project is loaded and are
// never written. Every write replaces the target file atomically.
package project
