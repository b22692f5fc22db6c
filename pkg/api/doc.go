// Package api defines the request and response messages of the PlatePick
// RPC services. Messages are plain structs serialized as JSON; field names
// follow the lowerCamelCase convention of the Connect JSON wire format.
package api
