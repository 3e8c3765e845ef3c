// Package loader provides the plugin-like feature loading system.
//
// Each HTTP-facing module implements the Feature interface and registers its
// own routes when loaded.
//
// # Feature Interface
//
//	type Feature interface {
//	    Name() string
//	    IsEnabled() bool
//	    Load(app fiber.Router) error
//	}
//
// # Manager
//
// The Manager holds the registry of features. Register adds one; LoadAll loads
// every enabled feature in registration order and stops at the first error.
package loader
