// Package config defines the format-agnostic model of a job layout file and
// the Loader interface that produces it. Concrete file formats, such as HCL,
// live in separate packages.
package config
