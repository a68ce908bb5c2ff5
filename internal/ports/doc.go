// Package ports defines the interfaces (ports) that connect the application
// layer to the host platform and to infrastructure adapters.
//
// compatre never owns the host's module loading subsystem. Everything it
// needs from the host is expressed here:
//
//   - [TransformerRegistry]: where the load hook registers its callback
//   - [PrivilegedAccessor]: the one-time capability to reach a plugin
//     loader's private state, yielding a [LoaderAccess]
//   - [Archive]: read-only view of a plugin's backing archive
//   - [ModuleDefiner]: the host's own define primitive
//   - [OverrideTable]: the loader's already-resolved cache, insert/overwrite only
//   - [ModuleProcessor]: optional host preprocessing applied before remapping
//   - [Logger]: structured logging abstraction
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters) implement them for zip archives, the local
// file system, and an in-process host.
package ports
