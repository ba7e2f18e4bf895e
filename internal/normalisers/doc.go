// Package normalisers holds text clean-up applied to all extracted text
// before chunking.
package normalisers
