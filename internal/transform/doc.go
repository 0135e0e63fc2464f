// Package transform derives the compact views of a site document that are
// handed to the plan generator, and the text-level helpers the fallback
// rewrite relies on.
//
// The views are:
//  1. Slim: the body with noise removed, minified and capped
//  2. BuildIndex: addressable elements with tag, id, classes and short text
//
// Everything here is read-only with respect to the stored document.
package transform
