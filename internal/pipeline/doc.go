// Package pipeline defines the core types shared across the ingestion stages:
// the rows persisted in the shared store, the typed errors of the error
// taxonomy, and the store interface every stage synchronizes through.
package pipeline
