// Package metrics provides driven.Observer implementations.
package metrics
