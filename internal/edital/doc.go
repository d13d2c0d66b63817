// Package edital defines the core types shared across the document
// resolution pipeline.
package edital
