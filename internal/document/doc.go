// Package document implements the untyped configuration tree: parsing YAML
// documents into nested mapping/sequence/scalar values, merging layered
// documents with a single documented rule (mappings merge recursively,
// everything else replaces), and dotted-path lookup into the result.
package document
