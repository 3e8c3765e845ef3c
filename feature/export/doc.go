// Package export copies a preference model into Redis so recall services can
// read user and item interaction maps without touching the source backend.
//
// Keys are written in pipelined batches; see Exporter for the layout.
package export
