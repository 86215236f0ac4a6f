// Package improbable defines the standard runtime components: Metadata,
// Position and Persistence.
package improbable
