// Package config provides the key-value configuration object used by
// gridcut components, plus TOML document loading and saving.
//
// A [Config] is a flat set of string-keyed, string-valued settings. Typed
// access goes through [Get], [GetOptional] and [AddOptional], which parse and
// format values on demand. Parsing is lenient: a value that does not parse as
// the requested type is treated as absent.
//
// [Optional] distinguishes "never set" from "set to the default value", so
// serializing a component back to a Config emits only the fields a user
// actually configured.
//
// # TOML Documents
//
// On disk, configs live in TOML tables. [Load] reads a file into a
// [Document], one [Config] per table:
//
//	[gridding]
//	cell_size = 5000.0
//	culling_technique = "crop"
//
//	doc, err := config.Load("gridcut.toml")
//	policy := grid.PolicyFromConfig(doc.Section("gridding"))
package config
