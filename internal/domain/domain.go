// Package domain holds shared domain constants and error definitions.
package domain

// KeyPrefix namespaces every chartfind key in the backing store.
const KeyPrefix = "chartfind:"
