// Package domain contains the core domain entities and value objects for compatre.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (archives, host loaders, logging)
// and contains only value types and error kinds.
//
// # Entities
//
//   - [VersionToken]: the running host build's version segment (e.g. v1_16_R2)
//   - [Module]: a module that has been defined by the host and is active
//   - [PluginDescription]: metadata of the plugin owning an archive
//
// # Design Principles
//
// Domain entities are:
//   - Immutable after construction (where practical)
//   - Free of infrastructure dependencies
//   - Testable without mocks or external systems
package domain
