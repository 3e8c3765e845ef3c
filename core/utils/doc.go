// Package utils provides conversion helpers shared by the backends and the
// HTTP layer: turning scanned column values into keys and preference values
// whatever type the driver chose, and parsing loose boolean flags.
package utils
