// Package model defines the language-neutral structural model shared by every
// extractor: class-like entities with their bases, fields and methods.
//
// Entities are produced by a single extraction pass over one file and are not
// modified afterwards. Names are taken verbatim from source identifiers and
// member order follows declaration order.
package model
