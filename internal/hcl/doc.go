// Package hcl provides the HCL implementation of config.Loader. It parses
// layout files, decodes them into the schema structs and translates those
// into the format-agnostic config.Model, using cty for attribute values.
package hcl
