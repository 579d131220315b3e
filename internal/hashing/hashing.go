// Package hashing provides the djb2 string hash used by the layer registry
// and the key/value store.
package hashing

import "golang.org/x/text/unicode/norm"

// DJB2 computes the djb2 hash of s over its raw bytes. Module paths and
// key/value keys are hashed this way, byte for byte.
func DJB2(s string) uint32 {
	h := uint32(5381)
	for i := 0; i < len(s); i++ {
		h = h*33 + uint32(s[i])
	}
	return h
}

// Name hashes a layer name.
//
// The input is NFC normalized first so that a name typed into an environment
// variable and the same name returned by a layer's name getter hash equally
// even when one of them arrives decomposed.
func Name(s string) uint32 {
	return DJB2(norm.NFC.String(s))
}
